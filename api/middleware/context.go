package middleware

import (
	"context"

	"github.com/telemart/storefront-gateway/pkg/telegram"
)

type contextKey string

const (
	ctxUser   contextKey = "telegram_user"
	ctxLaunch contextKey = "launch_data"
)

// UserFromContext returns the validated Telegram user, if any.
func UserFromContext(ctx context.Context) (telegram.User, bool) {
	if ctx == nil {
		return telegram.User{}, false
	}
	if v, ok := ctx.Value(ctxUser).(telegram.User); ok {
		return v, true
	}
	return telegram.User{}, false
}

// LaunchFromContext returns the raw launch string attached by auth.
func LaunchFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxLaunch).(string); ok {
		return v
	}
	return ""
}

// WithUser injects a validated Telegram user into the context.
func WithUser(ctx context.Context, user telegram.User) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUser, user)
}

// WithLaunch injects the raw launch string into the context.
func WithLaunch(ctx context.Context, raw string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxLaunch, raw)
}
