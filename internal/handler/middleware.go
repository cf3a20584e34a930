package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/regexflow/ledger-bfa-go/internal/domain"
)

type contextKey string

const sessionKey contextKey = "session"

const headerCorrelationID = "X-Correlation-ID"

// SessionMiddleware captures the caller's RegexFlow credentials (session
// cookie and Authorization header) so they can be forwarded upstream.
// Requests carrying neither are rejected.
func SessionMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			correlationID := r.Header.Get(headerCorrelationID)
			if correlationID == "" {
				correlationID = middleware.GetReqID(r.Context())
			}

			sess := domain.Session{
				Cookie:        r.Header.Get("Cookie"),
				Authorization: r.Header.Get("Authorization"),
				CorrelationID: correlationID,
			}
			if sess.Empty() {
				logger.Warn("session: missing credentials",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "regexflow session required")
				return
			}

			if correlationID != "" {
				w.Header().Set(headerCorrelationID, correlationID)
			}
			ctx := context.WithValue(r.Context(), sessionKey, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the session captured by SessionMiddleware.
func SessionFromContext(ctx context.Context) domain.Session {
	v, _ := ctx.Value(sessionKey).(domain.Session)
	return v
}
