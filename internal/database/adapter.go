package database

import (
	"context"
	"errors"

	"github.com/Rana718/pizzaseed/internal/database/common"
)

// ErrConnect marks failures to establish or verify a connection.
var ErrConnect = errors.New("database connection failed")

type (
	Tx      = common.Tx
	Rows    = common.Rows
	Result  = common.Result
	Dialect = common.Dialect
)

type DatabaseAdapter interface {
	Connect(ctx context.Context, url string) error
	Close() error
	Ping(ctx context.Context) error

	// Begin opens the single unit of work a population run executes in.
	Begin(ctx context.Context) (Tx, error)
	Dialect() Dialect
}

// Options carries provider settings that are not part of the DSN.
type Options struct {
	// Schema is the PostgreSQL search_path applied to every transaction.
	Schema string
}
