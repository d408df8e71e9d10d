package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/adapter/http/response"
	identity "github.com/Abdurahmanit/GroupProject/marketplace-service/internal/identity/domain"
	"github.com/Abdurahmanit/GroupProject/marketplace-service/internal/platform/logger"
	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to the current identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identity.Identity, error)
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// JWTAuth rejects requests without a valid session token.
func JWTAuth(auth Authenticator, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				response.Error(w, http.StatusUnauthorized, response.CodeUnauthenticated, "missing bearer token", nil)
				return
			}

			id, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, identity.ErrInvalidToken) || errors.Is(err, identity.ErrTokenRevoked) {
					log.Debug("Rejected session token", zap.Error(err))
					response.Error(w, http.StatusUnauthorized, response.CodeUnauthenticated, "invalid or expired token", nil)
					return
				}
				log.Error("Authentication backend failed", zap.Error(err))
				response.Error(w, http.StatusInternalServerError, response.CodeInternal, "authentication unavailable", nil)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id, token)))
		})
	}
}

// RequireAdmin must run after JWTAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			response.Error(w, http.StatusUnauthorized, response.CodeUnauthenticated, "authentication required", nil)
			return
		}
		if !id.IsAdmin {
			response.Error(w, http.StatusForbidden, response.CodeForbidden, "administrator privileges required", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}
