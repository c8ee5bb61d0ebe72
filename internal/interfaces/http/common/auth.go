package common

import (
	"context"

	"github.com/chystahata/site/api/internal/account"
)

type contextKey string

const adminSessionContextKey contextKey = "adminSession"

// ContextWithSession stores validated admin claims into context.
func ContextWithSession(ctx context.Context, claims *account.Claims) context.Context {
	return context.WithValue(ctx, adminSessionContextKey, claims)
}

// SessionFromContext extracts admin claims from context.
func SessionFromContext(ctx context.Context) (*account.Claims, bool) {
	claims, ok := ctx.Value(adminSessionContextKey).(*account.Claims)
	return claims, ok && claims != nil
}
