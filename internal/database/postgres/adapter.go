package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/pizzaseed/internal/database/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type Adapter struct {
	pool   *pgxpool.Pool
	schema string
}

func New(schema string) *Adapter {
	return &Adapter{schema: schema}
}

func (p *Adapter) Connect(ctx context.Context, url string) error {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return fmt.Errorf("failed to parse connection URL: %w", err)
	}

	config.MaxConns = 2
	config.MinConns = 0
	config.MaxConnLifetime = 15 * time.Minute
	config.MaxConnIdleTime = 3 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	p.pool = pool
	return nil
}

func (p *Adapter) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Adapter) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Adapter) Begin(ctx context.Context) (common.Tx, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	if p.schema != "" {
		if _, err := tx.Exec(ctx, SearchPathSQL(p.schema)); err != nil {
			tx.Rollback(ctx)
			return nil, fmt.Errorf("failed to set search_path to %s: %w", p.schema, err)
		}
	}
	return &pgTx{tx: tx}, nil
}

func (p *Adapter) Dialect() common.Dialect {
	return Dialect{}
}

// SearchPathSQL scopes the search_path to the current transaction.
func SearchPathSQL(schema string) string {
	return "SET LOCAL search_path TO " + pq.QuoteIdentifier(schema)
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Exec(ctx context.Context, query string, args ...interface{}) (common.Result, error) {
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return common.Result{}, err
	}
	return common.Result{RowsAffected: tag.RowsAffected()}, nil
}

func (t *pgTx) Query(ctx context.Context, query string, args ...interface{}) (common.Rows, error) {
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *pgTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

type Dialect struct{}

func (Dialect) Name() string { return "postgresql" }

func (Dialect) Placeholders() squirrel.PlaceholderFormat { return squirrel.Dollar }

func (Dialect) SupportsReturning() bool { return true }

// BulkUpdate joins an inline VALUES list against the table. Parameters are
// cast explicitly since untyped VALUES parameters resolve to text.
func (Dialect) BulkUpdate(table, key, column string, n int) (string, error) {
	if err := common.CheckIdentifiers(table, key, column); err != nil {
		return "", err
	}
	if n <= 0 {
		return "", fmt.Errorf("bulk update of %s needs at least one row", table)
	}

	values := common.RepeatTuple("(?::bigint, ?::numeric)", n)
	return fmt.Sprintf(
		"UPDATE %s AS t SET %s = data.%s FROM (VALUES %s) AS data(%s, %s) WHERE t.%s = data.%s",
		table, column, column, values, key, column, key, key,
	), nil
}
