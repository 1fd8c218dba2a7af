// Package seeder generates the pizzeria dataset and loads it, one stage per
// table, inside a single transaction.
package seeder

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Rana718/pizzaseed/internal/bulk"
	"github.com/Rana718/pizzaseed/internal/database"
	"github.com/Rana718/pizzaseed/internal/events"
	"github.com/google/uuid"
)

type Seeder struct {
	adapter database.DatabaseAdapter
	opts    Options
	sink    events.Sink
	synth   Synthesizer
}

func NewSeeder(adapter database.DatabaseAdapter, opts Options, sink events.Sink) *Seeder {
	return &Seeder{adapter: adapter, opts: opts, sink: sink}
}

// WithSynthesizer replaces the built-in field synthesizer.
func (s *Seeder) WithSynthesizer(synth Synthesizer) *Seeder {
	s.synth = synth
	return s
}

// run carries the ids issued by earlier stages to later ones.
type run struct {
	opts    Options
	tx      database.Tx
	dialect database.Dialect
	writer  *bulk.Writer
	gen     *generator
	rand    *rand.Rand
	emit    events.Emitter

	storeIDs      []int64
	customerIDs   []int64
	ingredientIDs []int64
	menuIDs       []int64
	orderIDs      []int64
	reconcile     ReconcileSummary
}

// Run populates every table and commits. Any stage failure rolls the whole
// run back, so a failed run leaves no rows behind.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if err := s.opts.Validate(); err != nil {
		return nil, err
	}

	started := time.Now()
	seed := s.opts.Seed
	if seed == 0 {
		seed = started.UnixNano()
	}
	now := time.Now
	if s.opts.Now != nil {
		now = s.opts.Now
	}

	rng := rand.New(rand.NewSource(seed))
	synth := s.synth
	if synth == nil {
		synth = NewDataGenerator(rng)
	}

	emit := events.NewEmitter(s.sink, uuid.New())
	dialect := s.adapter.Dialect()
	emit.RunStarted("Populating %s database (run %s, seed %d)", dialect.Name(), emit.RunID(), seed)

	tx, err := s.adapter.Begin(ctx)
	if err != nil {
		err = fmt.Errorf("failed to begin transaction: %w", err)
		emit.RunFailed(err)
		return nil, err
	}

	r := &run{
		opts:    s.opts,
		tx:      tx,
		dialect: dialect,
		writer:  bulk.NewWriter(tx, dialect, emit),
		gen:     newGenerator(rng, synth, now(), emit),
		rand:    rng,
		emit:    emit,
	}

	graph, err := r.stages()
	if err == nil {
		_, err = graph.BuildOrder()
	}
	if err != nil {
		return nil, s.abort(ctx, tx, emit, err)
	}

	rows := make(map[string]int, len(graph.Order()))
	for _, name := range graph.Order() {
		emit.StageStarted(name, r.planned(name))
		n, err := graph.Stage(name).Run(ctx)
		if err != nil {
			emit.StageFailed(name, err)
			return nil, s.abort(ctx, tx, emit, fmt.Errorf("stage %s: %w", name, err))
		}
		rows[name] = n
		emit.StageCompleted(name, n)
	}

	if err := tx.Commit(ctx); err != nil {
		err = fmt.Errorf("failed to commit transaction: %w", err)
		emit.RunFailed(err)
		return nil, err
	}

	total := 0
	for _, n := range rows {
		total += n
	}
	summary := &Summary{
		RunID:     emit.RunID(),
		Seed:      seed,
		Rows:      rows,
		Reconcile: r.reconcile,
		Elapsed:   time.Since(started),
	}
	emit.RunCompleted(total, "Populated %d rows in %s (revenue %s)",
		total, summary.Elapsed.Round(time.Millisecond), summary.Reconcile.Revenue.StringFixed(2))
	return summary, nil
}

func (s *Seeder) abort(ctx context.Context, tx database.Tx, emit events.Emitter, cause error) error {
	if rbErr := tx.Rollback(ctx); rbErr != nil {
		cause = errors.Join(cause, fmt.Errorf("rollback failed: %w", rbErr))
	}
	emit.RunFailed(cause)
	return cause
}

func (r *run) stages() (*StageGraph, error) {
	graph := NewStageGraph()
	stages := []*Stage{
		{Name: TableStores, Run: r.populateStores},
		{Name: TableCustomers, Run: r.populateCustomers},
		{Name: TableIngredients, Run: r.populateIngredients},
		{Name: TableMenuItems, Run: r.populateMenuItems},
		{Name: TableItemIngredients, DependsOn: []string{TableMenuItems, TableIngredients}, Run: r.populateItemIngredients},
		{Name: TableOrders, DependsOn: []string{TableStores, TableCustomers}, Run: r.populateOrders},
		{Name: TableOrderItems, DependsOn: []string{TableOrders, TableMenuItems}, Run: r.reconcileOrders},
	}
	for _, stage := range stages {
		if err := graph.Add(stage); err != nil {
			return nil, err
		}
	}
	return graph, nil
}

// planned is the row count a stage is asked for, or 0 when it depends on
// random draws.
func (r *run) planned(stage string) int {
	switch stage {
	case TableStores:
		return r.opts.Stores
	case TableCustomers:
		return r.opts.Customers
	case TableIngredients:
		return r.opts.Ingredients
	case TableMenuItems:
		return r.opts.MenuItems
	case TableOrders:
		return r.opts.Orders
	}
	return 0
}

func (r *run) insert(ctx context.Context, table, idColumn string, columns []string, rows [][]interface{}, chunk int) ([]int64, error) {
	return r.writer.Insert(ctx, bulk.InsertRequest{
		Stage:     table,
		Table:     table,
		IDColumn:  idColumn,
		Columns:   columns,
		Rows:      rows,
		ChunkSize: chunk,
		FetchIDs:  idColumn != "",
	})
}

func (r *run) populateStores(ctx context.Context) (int, error) {
	ids, err := r.insert(ctx, TableStores, "store_id", storeColumns, rowsOf(r.gen.Stores(r.opts.Stores)), catalogChunk)
	if err != nil {
		return 0, err
	}
	r.storeIDs = ids
	return len(ids), nil
}

func (r *run) populateCustomers(ctx context.Context) (int, error) {
	ids, err := r.insert(ctx, TableCustomers, "customer_id", customerColumns, rowsOf(r.gen.Customers(r.opts.Customers)), customerChunk)
	if err != nil {
		return 0, err
	}
	r.customerIDs = ids
	return len(ids), nil
}

func (r *run) populateIngredients(ctx context.Context) (int, error) {
	ids, err := r.insert(ctx, TableIngredients, "ingredient_id", ingredientColumns, rowsOf(r.gen.Ingredients(r.opts.Ingredients)), catalogChunk)
	if err != nil {
		return 0, err
	}
	r.ingredientIDs = ids
	return len(ids), nil
}

func (r *run) populateMenuItems(ctx context.Context) (int, error) {
	ids, err := r.insert(ctx, TableMenuItems, "item_id", menuItemColumns, rowsOf(r.gen.MenuItems(r.opts.MenuItems)), catalogChunk)
	if err != nil {
		return 0, err
	}
	r.menuIDs = ids
	return len(ids), nil
}

func (r *run) populateItemIngredients(ctx context.Context) (int, error) {
	links := r.gen.ItemIngredients(r.menuIDs, r.ingredientIDs)
	if len(r.menuIDs) > 0 && len(links) == 0 {
		r.emit.Warn(events.CategoryPopulate, TableItemIngredients, "no ingredients to link to %d menu items", len(r.menuIDs))
	}
	if _, err := r.insert(ctx, TableItemIngredients, "", itemIngredientColumns, rowsOf(links), itemIngredientChunk); err != nil {
		return 0, err
	}
	return len(links), nil
}

func (r *run) populateOrders(ctx context.Context) (int, error) {
	orders, err := r.gen.Orders(r.opts.Orders, r.storeIDs, r.customerIDs, r.opts.GuestRate)
	if err != nil {
		return 0, err
	}
	ids, err := r.insert(ctx, TableOrders, "order_id", orderColumns, rowsOf(orders), orderChunk)
	if err != nil {
		return 0, err
	}
	r.orderIDs = ids
	return len(ids), nil
}

func (r *run) reconcileOrders(ctx context.Context) (int, error) {
	rc := NewReconciler(r.tx, r.dialect, r.rand, r.emit, r.opts.AvgItemsPerOrder)
	summary, err := rc.Run(ctx, r.orderIDs, r.menuIDs)
	if err != nil {
		return 0, err
	}
	r.reconcile = summary
	return summary.OrderItems, nil
}
