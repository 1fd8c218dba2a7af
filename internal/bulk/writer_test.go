package bulk_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Rana718/pizzaseed/internal/bulk"
	"github.com/Rana718/pizzaseed/internal/database/common"
	"github.com/Rana718/pizzaseed/internal/events"
	"github.com/Rana718/pizzaseed/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeRows(n int, offset int) [][]interface{} {
	opened := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := make([][]interface{}, n)
	for i := range rows {
		rows[i] = []interface{}{
			fmt.Sprintf("%d Main Street", i+offset),
			"Springfield RushMore Pizzeria",
			fmt.Sprintf("1555000%04d", i+offset),
			opened,
		}
	}
	return rows
}

var storeColumns = []string{"address", "city", "phone_number", "opened_at"}

func TestInsertReturnsIDsInOrder(t *testing.T) {
	ctx := context.Background()
	adapter := testutil.NewSQLite(t)
	rec := events.NewRecorder()

	tx, err := adapter.Begin(ctx)
	require.NoError(t, err)
	w := bulk.NewWriter(tx, adapter.Dialect(), events.NewEmitter(rec, uuid.New()))

	ids, err := w.Insert(ctx, bulk.InsertRequest{
		Stage:     "stores",
		Table:     "stores",
		IDColumn:  "store_id",
		Columns:   storeColumns,
		Rows:      storeRows(5, 0),
		ChunkSize: 2,
		FetchIDs:  true,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, []int64{1, 2, 3, 4, 5}, ids)
	assert.Equal(t, 5, testutil.Count(t, adapter, "stores"))

	chunks := rec.OfKind(events.ChunkWritten)
	require.Len(t, chunks, 3)
	assert.Equal(t, []int{2, 4, 5}, []int{chunks[0].Done, chunks[1].Done, chunks[2].Done})
	for _, c := range chunks {
		assert.Equal(t, 5, c.Total)
		assert.Equal(t, "stores", c.Stage)
	}

	// ids map back to the row that produced them
	var phone string
	testutil.QueryEach(t, adapter, "SELECT phone_number FROM stores WHERE store_id = ?", func(rows common.Rows) {
		require.NoError(t, rows.Scan(&phone))
	}, ids[3])
	assert.Equal(t, "15550000003", phone)
}

func TestInsertWithoutIDs(t *testing.T) {
	ctx := context.Background()
	adapter := testutil.NewSQLite(t)

	tx, err := adapter.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	w := bulk.NewWriter(tx, adapter.Dialect(), events.NewEmitter(nil, uuid.New()))

	ids, err := w.Insert(ctx, bulk.InsertRequest{
		Table:   "stores",
		Columns: storeColumns,
		Rows:    storeRows(3, 0),
	})
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestInsertEmptyRowsIsNoop(t *testing.T) {
	ctx := context.Background()
	adapter := testutil.NewSQLite(t)
	rec := events.NewRecorder()

	tx, err := adapter.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	w := bulk.NewWriter(tx, adapter.Dialect(), events.NewEmitter(rec, uuid.New()))

	ids, err := w.Insert(ctx, bulk.InsertRequest{
		Table: "stores", IDColumn: "store_id", Columns: storeColumns, FetchIDs: true,
	})
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Empty(t, rec.OfKind(events.ChunkWritten))
}

func TestInsertFailureReportsChunk(t *testing.T) {
	ctx := context.Background()
	adapter := testutil.NewSQLite(t)

	tx, err := adapter.Begin(ctx)
	require.NoError(t, err)
	w := bulk.NewWriter(tx, adapter.Dialect(), events.NewEmitter(nil, uuid.New()))

	rows := storeRows(4, 0)
	rows[3][2] = nil // phone_number is NOT NULL; fails in the second chunk

	_, err = w.Insert(ctx, bulk.InsertRequest{
		Table: "stores", IDColumn: "store_id", Columns: storeColumns,
		Rows: rows, ChunkSize: 2, FetchIDs: true,
	})
	require.Error(t, err)

	var chunkErr *bulk.ChunkError
	require.True(t, errors.As(err, &chunkErr))
	assert.Equal(t, 1, chunkErr.Chunk)
	assert.Equal(t, 2, chunkErr.Offset)
	assert.Equal(t, 2, chunkErr.Size)
	assert.Contains(t, err.Error(), "rows 2-3")

	require.NoError(t, tx.Rollback(ctx))
	assert.Equal(t, 0, testutil.Count(t, adapter, "stores"))
}

func TestInsertRejectsBadIdentifiers(t *testing.T) {
	ctx := context.Background()
	adapter := testutil.NewSQLite(t)

	tx, err := adapter.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)
	w := bulk.NewWriter(tx, adapter.Dialect(), events.NewEmitter(nil, uuid.New()))

	_, err = w.Insert(ctx, bulk.InsertRequest{Table: "stores", Columns: []string{"city; --"}, Rows: storeRows(1, 0)})
	assert.Error(t, err)

	_, err = w.Insert(ctx, bulk.InsertRequest{Table: "stores", Columns: []string{"city"}, Rows: [][]interface{}{{"a", "b"}}})
	assert.Error(t, err)
}

func TestUpdateSetsValuesByKey(t *testing.T) {
	ctx := context.Background()
	adapter := testutil.NewSQLite(t)

	tx, err := adapter.Begin(ctx)
	require.NoError(t, err)
	w := bulk.NewWriter(tx, adapter.Dialect(), events.NewEmitter(nil, uuid.New()))

	storeIDs, err := w.Insert(ctx, bulk.InsertRequest{
		Table: "stores", IDColumn: "store_id", Columns: storeColumns, Rows: storeRows(1, 0), FetchIDs: true,
	})
	require.NoError(t, err)

	orderRows := make([][]interface{}, 3)
	for i := range orderRows {
		orderRows[i] = []interface{}{nil, storeIDs[0], time.Now().UTC(), decimal.Zero, "Pending"}
	}
	orderIDs, err := w.Insert(ctx, bulk.InsertRequest{
		Table: "orders", IDColumn: "order_id",
		Columns:  []string{"customer_id", "store_id", "order_timestamp", "total_amount", "status"},
		Rows:     orderRows,
		FetchIDs: true,
	})
	require.NoError(t, err)
	require.Len(t, orderIDs, 3)

	pairs := []bulk.Pair{
		{Key: orderIDs[0], Value: decimal.RequireFromString("12.50")},
		{Key: orderIDs[1], Value: decimal.RequireFromString("7.05")},
		{Key: orderIDs[2], Value: decimal.RequireFromString("0.99")},
	}
	n, err := w.Update(ctx, bulk.UpdateRequest{
		Table: "orders", KeyColumn: "order_id", Column: "total_amount", Pairs: pairs, ChunkSize: 2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	require.NoError(t, tx.Commit(ctx))

	got := map[int64]decimal.Decimal{}
	testutil.QueryEach(t, adapter, "SELECT order_id, total_amount FROM orders", func(rows common.Rows) {
		var id int64
		var total decimal.Decimal
		require.NoError(t, rows.Scan(&id, &total))
		got[id] = total
	})
	for _, p := range pairs {
		assert.True(t, p.Value.(decimal.Decimal).Equal(got[p.Key.(int64)]), "order %d", p.Key)
	}
}
