package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/koor-works/koor-backend/api/responses"
	pkgauth "github.com/koor-works/koor-backend/pkg/auth"
	"github.com/koor-works/koor-backend/pkg/db/models"
	pkgerrors "github.com/koor-works/koor-backend/pkg/errors"
	"github.com/koor-works/koor-backend/pkg/logger"
)

// AccessValidator checks a bearer token against its server-side session.
type AccessValidator interface {
	ValidateAccess(ctx context.Context, token string) (*pkgauth.TokenClaims, *models.User, error)
}

// Auth validates a bearer token and seeds the request context with the user
// and session. Browsers cannot set headers on websocket dials, so the token
// query parameter is accepted as a fallback.
func Auth(validator AccessValidator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, user, err := validator.ValidateAccess(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithUser(r.Context(), user)
			ctx = WithSessionID(ctx, claims.SessionID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, user.ID.String())
				ctx = logg.WithActorRole(ctx, string(user.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw != "" {
		if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
			return strings.TrimSpace(raw[7:])
		}
		return raw
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
