package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// requestIDHeader carries the request id on both request and response.
const requestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestID tags every request with an id for log correlation. A client-sent
// id is propagated unchanged; otherwise one is minted. The id is echoed on
// the response and made available to handlers through the request context.
func RequestID(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
				logger.Debug("minted request id",
					zap.String("request_id", id),
					zap.String("path", r.URL.Path),
				)
			}

			w.Header().Set(requestIDHeader, id)
			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetRequestID returns the id tagged onto the context, or "" outside the
// middleware.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// GetRequestIDFromRequest returns the id tagged onto the request.
func GetRequestIDFromRequest(r *http.Request) string {
	return GetRequestID(r.Context())
}
