package commands

import (
	"context"

	"github.com/marshallshelly/storefront/pkg/config"
	"github.com/marshallshelly/storefront/pkg/runtime"
)

// connect resolves the database URL from flags or environment and opens
// the pool.
func connect(ctx context.Context) (*runtime.DB, *config.Config, error) {
	cfg := config.Load()
	if dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if redisAddr != "" {
		cfg.RedisAddr = redisAddr
	}

	db, err := runtime.ConnectWithURL(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	return db, cfg, nil
}
