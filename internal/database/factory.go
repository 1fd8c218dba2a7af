package database

import (
	"context"
	"fmt"

	"github.com/Rana718/pizzaseed/internal/database/mysql"
	"github.com/Rana718/pizzaseed/internal/database/postgres"
	"github.com/Rana718/pizzaseed/internal/database/sqlite"
)

func NewAdapter(provider string, opts Options) DatabaseAdapter {
	switch provider {
	case "postgresql", "postgres":
		return postgres.New(opts.Schema)
	case "mysql":
		return mysql.New()
	case "sqlite", "sqlite3":
		return sqlite.New()
	default:
		return postgres.New(opts.Schema)
	}
}

// Open builds the adapter for provider, connects and pings it.
func Open(ctx context.Context, provider, url string, opts Options) (DatabaseAdapter, error) {
	adapter := NewAdapter(provider, opts)
	if err := adapter.Connect(ctx, url); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	if err := adapter.Ping(ctx); err != nil {
		adapter.Close()
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	return adapter, nil
}
