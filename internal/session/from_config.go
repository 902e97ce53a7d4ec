package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mixchapters/internal/config"
)

// NewStore builds the Store selected by session.store.
func NewStore(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Session.Store {
	case config.StoreRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.Session.RedisAddr,
			Password: cfg.Session.RedisPassword,
			DB:       cfg.Session.RedisDB,
			Key:      cfg.Session.RedisKey,
		})
	case config.StoreFile, "":
		return NewFileStore(cfg.Session.CachePath), nil
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Session.Store)
	}
}

// NewManagerFromConfig wires a Manager with the configured account, store
// and limits.
func NewManagerFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Manager, error) {
	store, err := NewStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewManager(cfg.Catalog.BaseURL,
		WithStore(store),
		WithCredentials(Credentials{Email: cfg.Catalog.Email, Password: cfg.Catalog.Password}),
		WithUserAgent(cfg.Catalog.UserAgent),
		WithMaxRedirects(cfg.Session.MaxRedirects),
		WithTimeout(time.Duration(cfg.Catalog.TimeoutSeconds)*time.Second),
		WithLogger(logger),
	)
}
