package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
	"github.com/regexflow/ledger-bfa-go/internal/ledger"
	"github.com/regexflow/ledger-bfa-go/internal/service"
)

type monthsResponse struct {
	Months []ledger.MonthBucket `json:"months"`
}

// ============================================================
// GET /v1/transactions/monthly
// ============================================================

func monthlySummaryHandler(svc *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/monthly")
		defer span.End()

		refresh, err := parseRefresh(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		months, err := svc.MonthlySummary(ctx, SessionFromContext(ctx), refresh)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("months.count", len(months)))

		writeJSON(w, http.StatusOK, monthsResponse{Months: months})
	}
}

// ============================================================
// GET /v1/transactions/monthly/{monthKey}?filter=
// ============================================================

func monthHandler(svc *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/monthly/{monthKey}")
		defer span.End()

		monthKey := chi.URLParam(r, "monthKey")
		filter := r.URL.Query().Get("filter")
		span.SetAttributes(
			attribute.String("month.key", monthKey),
			attribute.String("month.filter", filter),
		)

		refresh, err := parseRefresh(r)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		view, err := svc.Month(ctx, SessionFromContext(ctx), monthKey, filter, refresh)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, view)
	}
}

// ============================================================
// DELETE /v1/transactions/monthly/cache
// ============================================================

func invalidateHandler(svc *service.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		svc.Invalidate(SessionFromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// GET /v1/transactions/filters
// ============================================================

func filtersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, ledger.Filters())
	}
}

// ============================================================
// POST /v1/transactions/aggregate
// ============================================================

func aggregateHandler(svc *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/aggregate")
		defer span.End()

		var records []domain.SMSRecord
		if err := decodeBody(w, r, &records); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.Int("sms.count", len(records)))

		months, err := svc.Aggregate(ctx, records)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, monthsResponse{Months: months})
	}
}

// ============================================================
// POST /v1/transactions/classify
// ============================================================

func classifyHandler(svc *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/classify")
		defer span.End()

		var rec domain.SMSRecord
		if err := decodeBody(w, r, &rec); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, svc.Classify(ctx, rec))
	}
}
