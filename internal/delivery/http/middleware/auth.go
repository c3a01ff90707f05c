package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/frontier-realms/world-server/internal/auth"
	"github.com/frontier-realms/world-server/internal/delivery/dto"
	"github.com/frontier-realms/world-server/internal/kind"
)

// Authenticate verifies the request's bearer token and injects the
// resulting principal into the request context, rejecting the request
// with a 401 envelope if verification fails (§6).
func Authenticate(verifier *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, err := verifier.VerifyRequest(r)
			if err != nil {
				status := http.StatusUnauthorized
				if k, ok := kind.As(err); ok {
					status = kind.HTTPStatus(k.Kind)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(status)
				json.NewEncoder(w).Encode(dto.ErrorEnvelope{
					Error: dto.ErrorPayload{Message: err.Error(), Code: "unauthorized"},
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), principal)))
		})
	}
}
