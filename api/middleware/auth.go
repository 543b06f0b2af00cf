package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/scraplink/dealer-backend/api/responses"
	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
	"github.com/scraplink/dealer-backend/pkg/identity"
	"github.com/scraplink/dealer-backend/pkg/logger"
)

// Verifier checks a bearer token against the external identity service.
type Verifier interface {
	Verify(ctx context.Context, token string) (*identity.Identity, error)
}

// Auth verifies the bearer token and seeds the request context with the
// caller's identity, role and raw token.
func Auth(verifier Verifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			ident, err := verifier.Verify(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxDealerID, ident.ID)
			ctx = context.WithValue(ctx, ctxRole, ident.Role)
			ctx = context.WithValue(ctx, ctxToken, token)

			if logg != nil {
				ctx = logg.WithFields(ctx, map[string]any{
					"dealer_id":  ident.ID.String(),
					"actor_role": ident.Role.String(),
				})
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
