package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FACorreiaa/skill-registry/internal/api"
	"github.com/FACorreiaa/skill-registry/internal/types"
)

const bearerPrefix = "Bearer "

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a child context carrying id.
func WithIdentity(ctx context.Context, id types.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity attached by Authenticate.
func IdentityFromContext(ctx context.Context) (types.Identity, bool) {
	id, ok := ctx.Value(identityKey).(types.Identity)
	return id, ok
}

// Authenticate is middleware to validate bearer access tokens. Requests
// without a valid token get a 401 and never reach next.
func Authenticate(verifier TokenVerifier, logger *slog.Logger) func(next http.Handler) http.Handler {
	return gate(verifier, logger, true)
}

// OptionalAuthenticate attaches the identity when a bearer token is sent and
// lets anonymous requests through. A token that fails verification is still a 401.
func OptionalAuthenticate(verifier TokenVerifier, logger *slog.Logger) func(next http.Handler) http.Handler {
	return gate(verifier, logger, false)
}

func gate(verifier TokenVerifier, logger *slog.Logger, required bool) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				l.DebugContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, api.KindUnauthenticated, "authorization header required")
				return
			}

			tokenString, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || tokenString == "" {
				l.DebugContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusUnauthorized, api.KindUnauthenticated, "authorization header format must be Bearer {token}")
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				l.DebugContext(ctx, "Token rejected")
				api.ErrorResponse(w, r, http.StatusUnauthorized, api.KindUnauthenticated, ErrInvalidToken.Error())
				return
			}

			ctx = WithIdentity(ctx, types.Identity{UserID: claims.UserID, Username: claims.Username})
			l.DebugContext(ctx, "Authentication successful", slog.Int64("userID", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
