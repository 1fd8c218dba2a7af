// Package bulk writes large row sets in fixed-size chunks inside an open
// transaction, optionally returning the ids the server assigned.
package bulk

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/pizzaseed/internal/database"
	"github.com/Rana718/pizzaseed/internal/database/common"
	"github.com/Rana718/pizzaseed/internal/events"
)

const DefaultChunkSize = 1000

// ChunkError reports the chunk a bulk write stopped at.
type ChunkError struct {
	Op     string
	Table  string
	Chunk  int
	Offset int
	Size   int
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("%s %s failed at chunk %d (rows %d-%d): %v",
		e.Op, e.Table, e.Chunk, e.Offset, e.Offset+e.Size-1, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

type InsertRequest struct {
	Stage     string
	Table     string
	IDColumn  string
	Columns   []string
	Rows      [][]interface{}
	ChunkSize int
	FetchIDs  bool
}

// Pair is one (key, value) assignment for an Update.
type Pair struct {
	Key   interface{}
	Value interface{}
}

type UpdateRequest struct {
	Stage     string
	Table     string
	KeyColumn string
	Column    string
	Pairs     []Pair
	ChunkSize int
}

type Writer struct {
	tx      database.Tx
	dialect database.Dialect
	emit    events.Emitter
}

func NewWriter(tx database.Tx, dialect database.Dialect, emit events.Emitter) *Writer {
	return &Writer{tx: tx, dialect: dialect, emit: emit}
}

// Insert writes req.Rows chunk by chunk. With FetchIDs the returned slice has
// one id per input row, in input order. The first failing chunk stops the
// write; earlier chunks stay in the caller's transaction.
func (w *Writer) Insert(ctx context.Context, req InsertRequest) ([]int64, error) {
	if err := common.CheckIdentifiers(append([]string{req.Table}, req.Columns...)...); err != nil {
		return nil, err
	}
	if req.FetchIDs {
		if err := common.CheckIdentifiers(req.IDColumn); err != nil {
			return nil, err
		}
	}
	if len(req.Columns) == 0 {
		return nil, fmt.Errorf("insert into %s: no columns", req.Table)
	}

	size := chunkSize(req.ChunkSize)
	total := len(req.Rows)
	var ids []int64
	if req.FetchIDs {
		ids = make([]int64, 0, total)
	}

	for chunk, start := 0, 0; start < total; chunk, start = chunk+1, start+size {
		end := start + size
		if end > total {
			end = total
		}
		rows := req.Rows[start:end]

		got, err := w.insertChunk(ctx, req, rows)
		if err != nil {
			return nil, &ChunkError{Op: "insert into", Table: req.Table, Chunk: chunk, Offset: start, Size: len(rows), Err: err}
		}
		ids = append(ids, got...)
		w.emit.Chunk(stageName(req.Stage, req.Table), end, total)
	}

	return ids, nil
}

func (w *Writer) insertChunk(ctx context.Context, req InsertRequest, rows [][]interface{}) ([]int64, error) {
	qb := squirrel.Insert(req.Table).
		Columns(req.Columns...).
		PlaceholderFormat(w.dialect.Placeholders())
	for i, row := range rows {
		if len(row) != len(req.Columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(req.Columns))
		}
		qb = qb.Values(row...)
	}

	if req.FetchIDs && w.dialect.SupportsReturning() {
		qb = qb.Suffix("RETURNING " + req.IDColumn)
		query, args, err := qb.ToSql()
		if err != nil {
			return nil, err
		}
		return w.queryIDs(ctx, query, args, len(rows))
	}

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, err
	}
	res, err := w.tx.Exec(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if !req.FetchIDs {
		return nil, nil
	}
	if res.LastInsertID <= 0 {
		return nil, fmt.Errorf("driver returned no insert id")
	}

	ids := make([]int64, len(rows))
	for i := range ids {
		ids[i] = res.LastInsertID + int64(i)
	}
	return ids, nil
}

func (w *Writer) queryIDs(ctx context.Context, query string, args []interface{}, want int) ([]int64, error) {
	rows, err := w.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int64, 0, want)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan returned id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) != want {
		return nil, fmt.Errorf("server returned %d ids for %d rows", len(ids), want)
	}
	return ids, nil
}

// Update sets req.Column from req.Pairs, one statement per chunk. It returns
// the number of rows the server reported as changed.
func (w *Writer) Update(ctx context.Context, req UpdateRequest) (int64, error) {
	size := chunkSize(req.ChunkSize)
	total := len(req.Pairs)
	var affected int64

	for chunk, start := 0, 0; start < total; chunk, start = chunk+1, start+size {
		end := start + size
		if end > total {
			end = total
		}
		pairs := req.Pairs[start:end]

		n, err := w.updateChunk(ctx, req, pairs)
		if err != nil {
			return affected, &ChunkError{Op: "update", Table: req.Table, Chunk: chunk, Offset: start, Size: len(pairs), Err: err}
		}
		affected += n
		w.emit.Chunk(stageName(req.Stage, req.Table), end, total)
	}

	return affected, nil
}

func (w *Writer) updateChunk(ctx context.Context, req UpdateRequest, pairs []Pair) (int64, error) {
	raw, err := w.dialect.BulkUpdate(req.Table, req.KeyColumn, req.Column, len(pairs))
	if err != nil {
		return 0, err
	}
	query, err := w.dialect.Placeholders().ReplacePlaceholders(raw)
	if err != nil {
		return 0, err
	}

	args := make([]interface{}, 0, len(pairs)*2)
	for _, p := range pairs {
		args = append(args, p.Key, p.Value)
	}

	res, err := w.tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func chunkSize(n int) int {
	if n <= 0 {
		return DefaultChunkSize
	}
	return n
}

func stageName(stage, table string) string {
	if stage != "" {
		return stage
	}
	return table
}
