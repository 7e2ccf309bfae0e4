package store

import (
	"context"
	"fmt"
)

// KV is a durable string key-value store. Values are opaque to the store.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Options selects and configures a backend.
type Options struct {
	Backend        string
	SQLitePath     string
	DatabaseURL    string
	RedisAddr      string
	RedisKeyPrefix string
}

// Open returns the backend named by opts.Backend.
func Open(opts Options) (KV, error) {
	switch opts.Backend {
	case "memory":
		return NewMemory(), nil
	case "sqlite", "":
		return NewSQLite(opts.SQLitePath)
	case "postgres":
		return NewPostgres(opts.DatabaseURL)
	case "redis":
		return NewRedis(opts.RedisAddr, opts.RedisKeyPrefix), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
