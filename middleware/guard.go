package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/MrEthical07/authcore"
)

// Authenticator is the part of *authcore.Engine the guards use.
type Authenticator interface {
	ValidateAccess(ctx context.Context, accessToken string) (*authcore.Claims, error)
	AuthorizeClaims(claims *authcore.Claims, capability string) bool
}

var _ Authenticator = (*authcore.Engine)(nil)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims stored by [Guard].
func ClaimsFromContext(ctx context.Context) (*authcore.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*authcore.Claims)
	return claims, ok && claims != nil
}

func withClaims(ctx context.Context, claims *authcore.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// Guard validates the bearer access token and stores its claims in the
// request context. Missing or invalid tokens get 401.
func Guard(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := auth.ValidateAccess(r.Context(), token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// Require rejects requests whose role lacks capability with 403. It must run
// behind [Guard]; without claims it answers 401. The response never names
// the missing capability.
func Require(auth Authenticator, capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || auth == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !auth.AuthorizeClaims(claims, capability) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "bearer "
	if len(value) <= len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
