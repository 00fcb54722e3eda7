package middleware

import (
	"context"

	"github.com/angelmondragon/pharmacy-backend/internal/access"
)

type contextKey string

const ctxIdentity contextKey = "identity"

// IdentityFromContext returns the authenticated caller or access.Anonymous.
func IdentityFromContext(ctx context.Context) access.Identity {
	if ctx == nil {
		return access.Anonymous
	}
	if v, ok := ctx.Value(ctxIdentity).(access.Identity); ok {
		return v
	}
	return access.Anonymous
}

// WithIdentity injects the caller identity into the context.
func WithIdentity(ctx context.Context, identity access.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, identity)
}

// UserIDFromContext returns the caller's user id as a string, empty when anonymous.
func UserIDFromContext(ctx context.Context) string {
	identity := IdentityFromContext(ctx)
	if !identity.IsAuthenticated() {
		return ""
	}
	return identity.UserID.String()
}
