// Package testutil provides a throwaway SQLite database carrying the target
// schema, for package tests that need a real store.
package testutil

import (
	"context"
	_ "embed"
	"path/filepath"
	"testing"

	"github.com/Rana718/pizzaseed/internal/database/common"
	"github.com/Rana718/pizzaseed/internal/database/sqlite"
	"github.com/stretchr/testify/require"
)

//go:embed schema_sqlite.sql
var schemaSQL string

// NewSQLite opens a file-backed SQLite database in t.TempDir() and creates
// the seven pizzeria tables in it.
func NewSQLite(t *testing.T) *sqlite.Adapter {
	t.Helper()
	ctx := context.Background()

	adapter := sqlite.New()
	path := filepath.Join(t.TempDir(), "pizzeria.db")
	require.NoError(t, adapter.Connect(ctx, "file:"+path+"?_foreign_keys=on"))
	t.Cleanup(func() { adapter.Close() })
	require.NoError(t, adapter.Ping(ctx))

	tx, err := adapter.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.Exec(ctx, schemaSQL)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	return adapter
}

// Count returns SELECT COUNT(*) for table, outside of any pipeline transaction.
func Count(t *testing.T, adapter *sqlite.Adapter, table string) int {
	t.Helper()
	require.NoError(t, common.CheckIdentifiers(table))

	n := 0
	QueryEach(t, adapter, "SELECT COUNT(*) FROM "+table, func(rows common.Rows) {
		require.NoError(t, rows.Scan(&n))
	})
	return n
}

// QueryEach runs query in its own transaction and calls fn for every row.
func QueryEach(t *testing.T, adapter *sqlite.Adapter, query string, fn func(common.Rows), args ...interface{}) {
	t.Helper()
	ctx := context.Background()

	tx, err := adapter.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, query, args...)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		fn(rows)
	}
	require.NoError(t, rows.Err())
}
