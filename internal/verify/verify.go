// Package verify re-reads a populated database and reports rows that break
// the dataset's invariants.
package verify

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/Rana718/pizzaseed/internal/database"
	"github.com/shopspring/decimal"
)

const DefaultTolerance = 0.05

type Options struct {
	// GuestRate is the expected share of orders without a customer. A
	// negative value skips the check.
	GuestRate float64
	Tolerance float64
}

type TotalMismatch struct {
	OrderID int64
	Total   decimal.Decimal
	Lines   decimal.Decimal
}

type Report struct {
	Orders           int
	GuestOrders      int
	TotalMismatches  []TotalMismatch
	DuplicateEmails  map[string]int
	DuplicatePhones  map[string]int
	DuplicateLinks   int
	GuestRate        float64
	GuestRateChecked bool
	GuestRateOK      bool
}

func (r *Report) OK() bool {
	return len(r.Violations()) == 0
}

// Violations describes every failed check, one line each.
func (r *Report) Violations() []string {
	var out []string
	for _, m := range r.TotalMismatches {
		out = append(out, fmt.Sprintf("order %d total %s does not match its lines (%s)",
			m.OrderID, m.Total.StringFixed(2), m.Lines.StringFixed(2)))
	}
	for _, email := range sortedKeys(r.DuplicateEmails) {
		out = append(out, fmt.Sprintf("masked email %q appears %d times", email, r.DuplicateEmails[email]))
	}
	for _, phone := range sortedKeys(r.DuplicatePhones) {
		out = append(out, fmt.Sprintf("masked phone %q appears %d times", phone, r.DuplicatePhones[phone]))
	}
	if r.DuplicateLinks > 0 {
		out = append(out, fmt.Sprintf("%d menu item/ingredient pairs are linked more than once", r.DuplicateLinks))
	}
	if r.GuestRateChecked && !r.GuestRateOK {
		out = append(out, fmt.Sprintf("guest rate %.3f is outside the expected range", r.GuestRate))
	}
	return out
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type checker struct {
	tx      database.Tx
	dialect database.Dialect
	report  *Report
}

// Check runs every invariant query in one read-only transaction.
func Check(ctx context.Context, adapter database.DatabaseAdapter, opts Options) (*Report, error) {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}

	tx, err := adapter.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	c := &checker{
		tx:      tx,
		dialect: adapter.Dialect(),
		report: &Report{
			DuplicateEmails: make(map[string]int),
			DuplicatePhones: make(map[string]int),
		},
	}

	if err := c.totals(ctx); err != nil {
		return nil, fmt.Errorf("failed to check order totals: %w", err)
	}
	if err := c.duplicates(ctx, "email", c.report.DuplicateEmails); err != nil {
		return nil, fmt.Errorf("failed to check customer emails: %w", err)
	}
	if err := c.duplicates(ctx, "phone_number", c.report.DuplicatePhones); err != nil {
		return nil, fmt.Errorf("failed to check customer phones: %w", err)
	}
	if err := c.links(ctx); err != nil {
		return nil, fmt.Errorf("failed to check item ingredients: %w", err)
	}
	if err := c.guests(ctx, opts); err != nil {
		return nil, fmt.Errorf("failed to check guest rate: %w", err)
	}

	return c.report, nil
}

func (c *checker) query(ctx context.Context, qb squirrel.SelectBuilder, scan func(database.Rows) error) error {
	query, args, err := qb.PlaceholderFormat(c.dialect.Placeholders()).ToSql()
	if err != nil {
		return err
	}
	rows, err := c.tx.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (c *checker) totals(ctx context.Context) error {
	qb := squirrel.Select("o.order_id", "o.total_amount", "COALESCE(SUM(oi.price_at_time_of_order * oi.quantity), 0)").
		From("orders o").
		LeftJoin("order_items oi ON oi.order_id = o.order_id").
		GroupBy("o.order_id", "o.total_amount").
		OrderBy("o.order_id")

	return c.query(ctx, qb, func(rows database.Rows) error {
		var m TotalMismatch
		if err := rows.Scan(&m.OrderID, &m.Total, &m.Lines); err != nil {
			return err
		}
		c.report.Orders++
		if !m.Total.Round(2).Equal(m.Lines.Round(2)) {
			c.report.TotalMismatches = append(c.report.TotalMismatches, m)
		}
		return nil
	})
}

func (c *checker) duplicates(ctx context.Context, column string, into map[string]int) error {
	qb := squirrel.Select(column, "COUNT(*)").
		From("customers").
		GroupBy(column).
		Having("COUNT(*) > 1")

	return c.query(ctx, qb, func(rows database.Rows) error {
		var value string
		var n int
		if err := rows.Scan(&value, &n); err != nil {
			return err
		}
		into[value] = n
		return nil
	})
}

func (c *checker) links(ctx context.Context) error {
	qb := squirrel.Select("item_id", "ingredient_id", "COUNT(*)").
		From("item_ingredients").
		GroupBy("item_id", "ingredient_id").
		Having("COUNT(*) > 1")

	return c.query(ctx, qb, func(rows database.Rows) error {
		var item, ingredient int64
		var n int
		if err := rows.Scan(&item, &ingredient, &n); err != nil {
			return err
		}
		c.report.DuplicateLinks++
		return nil
	})
}

func (c *checker) guests(ctx context.Context, opts Options) error {
	qb := squirrel.Select("COUNT(*)", "COALESCE(SUM(CASE WHEN customer_id IS NULL THEN 1 ELSE 0 END), 0)").
		From("orders")

	var orders, guests int64
	err := c.query(ctx, qb, func(rows database.Rows) error {
		return rows.Scan(&orders, &guests)
	})
	if err != nil {
		return err
	}

	c.report.GuestOrders = int(guests)
	if orders == 0 || opts.GuestRate < 0 {
		return nil
	}
	c.report.GuestRate = float64(guests) / float64(orders)
	c.report.GuestRateChecked = true
	c.report.GuestRateOK = math.Abs(c.report.GuestRate-opts.GuestRate) <= opts.Tolerance
	return nil
}
