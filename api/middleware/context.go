package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/scraplink/dealer-backend/pkg/enums"
)

type contextKey string

const (
	ctxDealerID contextKey = "dealer_id"
	ctxRole     contextKey = "actor_role"
	ctxToken    contextKey = "bearer_token"
)

// DealerIDFromContext returns the verified caller identity, or uuid.Nil when
// the request never passed the auth middleware.
func DealerIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxDealerID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return ""
}

// TokenFromContext returns the caller's raw bearer token. The coordinator
// reuses it for mirror pushes to the remote request store.
func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxToken).(string); ok {
		return v
	}
	return ""
}

// WithIdentity seeds the context the way the auth middleware does; exported
// for handler tests.
func WithIdentity(ctx context.Context, dealerID uuid.UUID, role enums.Role, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxDealerID, dealerID)
	ctx = context.WithValue(ctx, ctxRole, role)
	return context.WithValue(ctx, ctxToken, token)
}
