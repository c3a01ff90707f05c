// Package auth implements the ownership/authorization shim (§2): the
// RequireOwner "does this principal own that entity" helper (the engines
// compare owner ids inline instead), plus verification of the bearer
// token a third-party identity provider issues (§1: authentication is an
// external collaborator, this package only trusts and parses its output).
package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/frontier-realms/world-server/internal/config"
	"github.com/frontier-realms/world-server/internal/kind"
)

// Principal is the verified identity attached to a request context after
// token verification succeeds.
type Principal struct {
	UserID string
}

type principalContextKey struct{}

// WithPrincipal attaches a verified principal to ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// FromContext retrieves the principal attached by middleware, if any.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// Verifier checks bearer tokens issued by the external identity provider
// and extracts the user id claim.
type Verifier struct {
	secret            []byte
	expirationHours int
}

func NewVerifier(cfg config.JWTConfig) *Verifier {
	return &Verifier{secret: []byte(cfg.Secret), expirationHours: cfg.ExpirationHours}
}

// IssueToken mints a bearer token for userID, signed with the same
// secret VerifyRequest checks against. This is the local stand-in for
// whatever the external identity provider issues in production (§1, §6).
func (v *Verifier) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(time.Duration(v.expirationHours) * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// VerifyRequest extracts and validates the Authorization header's bearer
// token, returning the verified principal.
func (v *Verifier) VerifyRequest(r *http.Request) (Principal, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Principal{}, kind.Unauthorizedf("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Principal{}, kind.Unauthorizedf("authorization header must be a bearer token")
	}

	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, kind.Unauthorizedf("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, kind.Unauthorizedf("invalid or expired token")
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return Principal{}, kind.Unauthorizedf("token missing subject claim")
	}
	return Principal{UserID: sub}, nil
}

// RequireOwner returns a Forbidden error unless principalID matches
// ownerID. The engines do not call it; each compares the loaded entity's
// owner id with the principal inline and builds its own Forbidden error.
func RequireOwner(principalID, ownerID, entityDescription string) error {
	if principalID != ownerID {
		return kind.Forbiddenf("%s is not owned by this principal", entityDescription)
	}
	return nil
}
