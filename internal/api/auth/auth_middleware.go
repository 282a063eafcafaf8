package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FACorreiaa/go-item-tracker/internal/api"
	"github.com/FACorreiaa/go-item-tracker/internal/types"
)

type contextKey string

const identityKey contextKey = "identity"

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(token string) (types.Identity, bool)
}

var _ TokenVerifier = (*TokenManager)(nil)

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity types.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the identity attached by RequireAuth or OptionalAuth.
func IdentityFromContext(ctx context.Context) (types.Identity, bool) {
	identity, ok := ctx.Value(identityKey).(types.Identity)
	return identity, ok
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(logger *slog.Logger, verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "RequireAuth"))

			token, ok := bearerToken(r)
			if !ok {
				l.DebugContext(ctx, "Missing or malformed Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, msgMissingAuthHeader)
				return
			}

			identity, ok := verifier.Verify(token)
			if !ok {
				l.WarnContext(ctx, "Token verification failed")
				api.ErrorResponse(w, r, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

// OptionalAuth attaches the identity when a valid bearer token is present and
// never rejects the request.
func OptionalAuth(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if identity, valid := verifier.Verify(token); valid {
					r = r.WithContext(WithIdentity(r.Context(), identity))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
