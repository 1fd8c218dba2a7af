package common

import (
	"context"
	"database/sql"
	"strings"
)

// SQLTx adapts *sql.Tx for the mysql and sqlite providers.
type SQLTx struct {
	tx *sql.Tx
}

func NewSQLTx(tx *sql.Tx) *SQLTx {
	return &SQLTx{tx: tx}
}

func (t *SQLTx) Exec(ctx context.Context, query string, args ...interface{}) (Result, error) {
	res, err := t.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, err
	}

	var out Result
	if n, err := res.RowsAffected(); err == nil {
		out.RowsAffected = n
	}
	if id, err := res.LastInsertId(); err == nil {
		out.LastInsertID = id
	}
	return out, nil
}

func (t *SQLTx) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (t *SQLTx) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

func (t *SQLTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback()
}

type sqlRows struct {
	*sql.Rows
}

func (r sqlRows) Close() {
	r.Rows.Close()
}

// RepeatTuple renders tuple n times separated by commas, e.g. "(?, ?), (?, ?)".
func RepeatTuple(tuple string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat(tuple+", ", n), ", ")
}
