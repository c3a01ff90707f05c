package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/frontier-realms/world-server/internal/delivery/dto"
)

// Recovery recovers from a panic in any downstream handler and responds
// with a generic 500 rather than letting the connection die silently.
func Recovery(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic in http handler",
						zap.Any("error", err),
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.String("remote_addr", r.RemoteAddr))

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(dto.ErrorEnvelope{
						Error: dto.ErrorPayload{Message: "internal server error", Code: "internal"},
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
