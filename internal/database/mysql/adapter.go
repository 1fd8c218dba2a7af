package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/pizzaseed/internal/database/common"
	_ "github.com/go-sql-driver/mysql"
)

// ErrIncrementStride is returned by Begin when the session would not assign
// consecutive auto-increment ids.
var ErrIncrementStride = errors.New("multi-row inserts need auto_increment_increment = 1")

type Adapter struct {
	db *sql.DB
}

func New() *Adapter {
	return &Adapter{}
}

func (m *Adapter) Connect(ctx context.Context, url string) error {
	dsn := strings.TrimPrefix(url, "mysql://")

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(15 * time.Minute)
	db.SetConnMaxIdleTime(3 * time.Minute)

	m.db = db
	return nil
}

func (m *Adapter) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

func (m *Adapter) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

func (m *Adapter) Begin(ctx context.Context) (common.Tx, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	var step int64
	if err := tx.QueryRowContext(ctx, "SELECT @@SESSION.auto_increment_increment").Scan(&step); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to read auto_increment_increment: %w", err)
	}
	if err := CheckIncrement(step); err != nil {
		tx.Rollback()
		return nil, err
	}
	return common.NewSQLTx(tx), nil
}

// CheckIncrement rejects an auto-increment step other than 1, under which
// LAST_INSERT_ID() + i no longer names the i-th row of a multi-row insert.
func CheckIncrement(step int64) error {
	if step != 1 {
		return fmt.Errorf("%w: auto_increment_increment is %d", ErrIncrementStride, step)
	}
	return nil
}

func (m *Adapter) Dialect() common.Dialect {
	return Dialect{}
}

type Dialect struct{}

func (Dialect) Name() string { return "mysql" }

func (Dialect) Placeholders() squirrel.PlaceholderFormat { return squirrel.Question }

// SupportsReturning is false: ids are recovered from LAST_INSERT_ID(), which
// is the first id of a multi-row insert. With a single writer InnoDB assigns
// the rest consecutively.
func (Dialect) SupportsReturning() bool { return false }

func (Dialect) BulkUpdate(table, key, column string, n int) (string, error) {
	if err := common.CheckIdentifiers(table, key, column); err != nil {
		return "", err
	}
	if n <= 0 {
		return "", fmt.Errorf("bulk update of %s needs at least one row", table)
	}

	var b strings.Builder
	for i := 0; i < n; i++ {
		if i == 0 {
			fmt.Fprintf(&b, "SELECT ? AS %s, CAST(? AS DECIMAL(10,2)) AS %s", key, column)
			continue
		}
		b.WriteString(" UNION ALL SELECT ?, CAST(? AS DECIMAL(10,2))")
	}
	return fmt.Sprintf(
		"UPDATE %s AS t JOIN (%s) AS data ON t.%s = data.%s SET t.%s = data.%s",
		table, b.String(), key, key, column, column,
	), nil
}
