package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/storefront/pkg/logger"
)

// RequestLogger builds a request-scoped logger enriched with correlation_id,
// trace_id and span_id and stores it in context via logger.NewContext.
// Handlers retrieve it with logger.FromContext(ctx). Auth, mounted later on
// protected routes, adds user_id to the same logger.
//
// Mount it after RequestLogging (correlation ID) and Tracing (span context).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
