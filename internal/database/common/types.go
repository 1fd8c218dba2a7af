package common

import (
	"context"
	"fmt"
	"regexp"

	"github.com/Masterminds/squirrel"
)

// validIdentifier validates SQL identifiers (table/column names) to prevent SQL injection
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func IsValidIdentifier(name string) bool {
	return validIdentifier.MatchString(name)
}

// CheckIdentifiers returns an error naming the first invalid identifier.
func CheckIdentifiers(names ...string) error {
	for _, name := range names {
		if !IsValidIdentifier(name) {
			return fmt.Errorf("invalid identifier: %q", name)
		}
	}
	return nil
}

type Tx interface {
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Result struct {
	RowsAffected int64
	LastInsertID int64
}

// Rows is the subset of pgx.Rows and *sql.Rows the pipeline reads through.
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close()
}

// Dialect hides the SQL differences between providers.
type Dialect interface {
	Name() string
	Placeholders() squirrel.PlaceholderFormat
	// SupportsReturning reports whether INSERT ... RETURNING yields the new ids.
	SupportsReturning() bool
	// BulkUpdate returns one statement setting column from n (key, value)
	// pairs joined against table on key, using ? placeholders. Args are
	// passed as key1, value1, key2, value2, ...
	BulkUpdate(table, key, column string, n int) (string, error)
}
