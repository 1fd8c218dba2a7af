package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/pizzaseed/internal/database/common"
	_ "github.com/mattn/go-sqlite3"
)

type Adapter struct {
	db *sql.DB
}

func New() *Adapter {
	return &Adapter{}
}

func (s *Adapter) Connect(ctx context.Context, url string) error {
	dsn := strings.TrimPrefix(url, "sqlite://")
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return fmt.Errorf("failed to open SQLite connection: %w", err)
	}

	// single connection: the pipeline holds one transaction at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s.db = db
	return nil
}

func (s *Adapter) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Adapter) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Adapter) Begin(ctx context.Context) (common.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return common.NewSQLTx(tx), nil
}

func (s *Adapter) Dialect() common.Dialect {
	return Dialect{}
}

type Dialect struct{}

func (Dialect) Name() string { return "sqlite" }

func (Dialect) Placeholders() squirrel.PlaceholderFormat { return squirrel.Question }

// SupportsReturning needs SQLite 3.35+, which go-sqlite3 bundles.
func (Dialect) SupportsReturning() bool { return true }

func (Dialect) BulkUpdate(table, key, column string, n int) (string, error) {
	if err := common.CheckIdentifiers(table, key, column); err != nil {
		return "", err
	}
	if n <= 0 {
		return "", fmt.Errorf("bulk update of %s needs at least one row", table)
	}

	values := common.RepeatTuple("(CAST(? AS INTEGER), CAST(? AS NUMERIC))", n)
	return fmt.Sprintf(
		"WITH data(%s, %s) AS (VALUES %s) UPDATE %s SET %s = data.%s FROM data WHERE %s.%s = data.%s",
		key, column, values, table, column, column, table, key, key,
	), nil
}
