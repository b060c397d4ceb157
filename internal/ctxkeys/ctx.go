package ctxkeys

import (
	"context"

	"github.com/templui/goalcoach/internal/config"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	ConfigKey contextKey = "config"
	ClientKey contextKey = "client_ip"
)

func Config(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(ConfigKey).(*config.Config)
	return cfg
}

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, ConfigKey, cfg)
}

// ClientIP is the caller address resolved by the RealIP middleware.
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(ClientKey).(string)
	return ip
}

func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ClientKey, ip)
}
