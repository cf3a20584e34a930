package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
	"github.com/regexflow/ledger-bfa-go/internal/infra/observability"
	"github.com/regexflow/ledger-bfa-go/internal/service"
)

var tracer = otel.Tracer("handler")

const healthProbeTimeout = 2 * time.Second

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the contract of the RegexFlow monthly expense page.
func NewRouter(svc *service.Ledger, metrics *observability.Metrics, logger *zap.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", headerCorrelationID},
		ExposedHeaders:   []string{headerCorrelationID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/ledger", ledgerMetricsHandler(metrics))

		r.Route("/transactions", func(r chi.Router) {
			r.Get("/filters", filtersHandler())
			r.Post("/aggregate", aggregateHandler(svc, logger))
			r.Post("/classify", classifyHandler(svc, logger))

			// Backed by the caller's RegexFlow session.
			r.Group(func(r chi.Router) {
				r.Use(SessionMiddleware(logger))
				r.Get("/monthly", monthlySummaryHandler(svc, logger))
				r.Get("/monthly/{monthKey}", monthHandler(svc, logger))
				r.Delete("/monthly/cache", invalidateHandler(svc))
			})
		})
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

func healthzHandler(svc *service.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "ledger-bfa", Status: "healthy", LastChecked: now},
		}

		if svc != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
			upstream := svc.UpstreamHealth(ctx)
			cancel()
			services = append(services, upstream)
		}

		// Stateless routes work without RegexFlow: degraded, not unhealthy.
		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func ledgerMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetLedgerSnapshot())
	}
}
