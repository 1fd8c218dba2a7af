package seeder

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/pizzaseed/internal/bulk"
	"github.com/Rana718/pizzaseed/internal/database"
	"github.com/Rana718/pizzaseed/internal/events"
	"github.com/shopspring/decimal"
)

var ErrNoMenuItems = errors.New("orders exist but no menu items are available")

// IDRange is an inclusive range of server-assigned ids.
type IDRange struct {
	Min int64
	Max int64
}

// RangeOf returns the smallest range covering ids, or false when ids is empty.
func RangeOf(ids []int64) (IDRange, bool) {
	if len(ids) == 0 {
		return IDRange{}, false
	}
	r := IDRange{Min: ids[0], Max: ids[0]}
	for _, id := range ids[1:] {
		if id < r.Min {
			r.Min = id
		}
		if id > r.Max {
			r.Max = id
		}
	}
	return r, true
}

// Assignment is the full set of order lines planned for a run, with the
// per-order totals derived from them.
type Assignment struct {
	Lines    []OrderLine
	OrderIDs []int64
	Totals   map[int64]decimal.Decimal
}

func (a *Assignment) Revenue() decimal.Decimal {
	revenue := decimal.Zero
	for _, id := range a.OrderIDs {
		revenue = revenue.Add(a.Totals[id])
	}
	return revenue
}

// AssignItems draws the lines for every order. Each order gets at least one
// line; quantities are 1..3 and the recorded price drifts -5%..+10% from the
// menu price.
func AssignItems(r *rand.Rand, orderIDs []int64, menu []MenuPrice, avgItems float64) (*Assignment, error) {
	a := &Assignment{
		OrderIDs: orderIDs,
		Totals:   make(map[int64]decimal.Decimal, len(orderIDs)),
	}
	if len(orderIDs) == 0 {
		return a, nil
	}
	if len(menu) == 0 {
		return nil, fmt.Errorf("%w: %d orders", ErrNoMenuItems, len(orderIDs))
	}
	if math.IsNaN(avgItems) || avgItems < 0 || avgItems > MaxAvgItemsPerOrder {
		return nil, fmt.Errorf("%w: average items per order %v", ErrInvalidOptions, avgItems)
	}

	a.Lines = make([]OrderLine, 0, int(float64(len(orderIDs))*math.Max(avgItems, 1)))
	for _, orderID := range orderIDs {
		n := int(math.Max(1, math.Round(r.NormFloat64()+avgItems)))
		total := decimal.Zero
		for i := 0; i < n; i++ {
			item := menu[r.Intn(len(menu))]
			drift := decimal.NewFromFloat(1 + (-0.05 + r.Float64()*0.15))
			line := OrderLine{
				OrderID:     orderID,
				ItemID:      item.ItemID,
				Quantity:    1 + r.Intn(3),
				PriceAtTime: item.Price.Mul(drift).Round(2),
			}
			total = total.Add(line.LineTotal())
			a.Lines = append(a.Lines, line)
		}
		a.Totals[orderID] = total.Round(2)
	}
	return a, nil
}

// Reconciler writes the order lines for a run and then sets every order's
// total_amount to the sum of its lines.
type Reconciler struct {
	tx       database.Tx
	dialect  database.Dialect
	writer   *bulk.Writer
	rand     *rand.Rand
	emit     events.Emitter
	avgItems float64
}

func NewReconciler(tx database.Tx, dialect database.Dialect, r *rand.Rand, emit events.Emitter, avgItems float64) *Reconciler {
	return &Reconciler{
		tx:       tx,
		dialect:  dialect,
		writer:   bulk.NewWriter(tx, dialect, emit),
		rand:     r,
		emit:     emit,
		avgItems: avgItems,
	}
}

// Run reconciles the orders whose ids fall in orderIDs' range, drawing items
// from the menu items in menuIDs' range.
func (rc *Reconciler) Run(ctx context.Context, orderIDs, menuIDs []int64) (ReconcileSummary, error) {
	summary := ReconcileSummary{Revenue: decimal.Zero}

	orders, err := rc.loadOrders(ctx, orderIDs)
	if err != nil {
		return summary, fmt.Errorf("failed to load orders: %w", err)
	}
	if len(orders) == 0 {
		rc.emit.Warn(events.CategoryPopulate, TableOrderItems, "no orders to reconcile")
		return summary, nil
	}

	menu, err := rc.loadMenu(ctx, menuIDs)
	if err != nil {
		return summary, fmt.Errorf("failed to load menu items: %w", err)
	}

	plan, err := AssignItems(rc.rand, orders, menu, rc.avgItems)
	if err != nil {
		return summary, err
	}

	if _, err := rc.writer.Insert(ctx, bulk.InsertRequest{
		Stage:     TableOrderItems,
		Table:     TableOrderItems,
		Columns:   orderItemColumns,
		Rows:      rowsOf(plan.Lines),
		ChunkSize: orderItemChunk,
	}); err != nil {
		return summary, err
	}

	pairs := make([]bulk.Pair, len(plan.OrderIDs))
	for i, id := range plan.OrderIDs {
		pairs[i] = bulk.Pair{Key: id, Value: plan.Totals[id]}
	}
	affected, err := rc.writer.Update(ctx, bulk.UpdateRequest{
		Stage:     "order_totals",
		Table:     TableOrders,
		KeyColumn: "order_id",
		Column:    "total_amount",
		Pairs:     pairs,
		ChunkSize: totalsUpdateChunk,
	})
	if err != nil {
		return summary, err
	}
	if affected != int64(len(pairs)) {
		rc.emit.Warn(events.CategoryDB, TableOrders, "total update touched %d rows for %d orders", affected, len(pairs))
	}

	summary.Orders = len(plan.OrderIDs)
	summary.OrderItems = len(plan.Lines)
	summary.Revenue = plan.Revenue()
	return summary, nil
}

func (rc *Reconciler) loadOrders(ctx context.Context, ids []int64) ([]int64, error) {
	r, ok := RangeOf(ids)
	if !ok {
		return nil, nil
	}
	query, args, err := squirrel.Select("order_id").
		From(TableOrders).
		Where("order_id BETWEEN ? AND ?", r.Min, r.Max).
		OrderBy("order_id").
		PlaceholderFormat(rc.dialect.Placeholders()).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := rc.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]int64, 0, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (rc *Reconciler) loadMenu(ctx context.Context, ids []int64) ([]MenuPrice, error) {
	r, ok := RangeOf(ids)
	if !ok {
		return nil, nil
	}
	query, args, err := squirrel.Select("item_id", "price").
		From(TableMenuItems).
		Where("item_id BETWEEN ? AND ?", r.Min, r.Max).
		OrderBy("item_id").
		PlaceholderFormat(rc.dialect.Placeholders()).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := rc.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	menu := make([]MenuPrice, 0, len(ids))
	for rows.Next() {
		var m MenuPrice
		if err := rows.Scan(&m.ItemID, &m.Price); err != nil {
			return nil, err
		}
		menu = append(menu, m)
	}
	return menu, rows.Err()
}
