package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/acarlson90/polls/internal/api/response"
)

// Recovery is middleware that recovers from panics and returns a 500 error.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					requestID := GetRequestID(r.Context())
					logger.Error("panic recovered",
						zap.Any("error", err), zap.String("request_id", requestID), zap.StackSkip("stack", 1))
					response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", requestID)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
