package seeder

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/Rana718/pizzaseed/internal/events"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, time.October, 17, 15, 30, 0, 0, time.UTC)

// stubSynth overrides selected fields of the built-in generator.
type stubSynth struct {
	*DataGenerator
	email string
	phone string
	word  *string
}

func (s stubSynth) Email() string {
	if s.email != "" {
		return s.email
	}
	return s.DataGenerator.Email()
}

func (s stubSynth) Phone() string {
	if s.phone != "" {
		return s.phone
	}
	return s.DataGenerator.Phone()
}

func (s stubSynth) Word() string {
	if s.word != nil {
		return *s.word
	}
	return s.DataGenerator.Word()
}

func newTestGenerator(seed int64, synth func(*DataGenerator) Synthesizer) (*generator, *events.Recorder) {
	r := rand.New(rand.NewSource(seed))
	rec := events.NewRecorder()
	var s Synthesizer = NewDataGenerator(r)
	if synth != nil {
		s = synth(NewDataGenerator(r))
	}
	return newGenerator(r, s, fixedNow, events.NewEmitter(rec, uuid.New())), rec
}

func warningsContaining(rec *events.Recorder, text string) []events.Event {
	var out []events.Event
	for _, e := range rec.OfKind(events.Warning) {
		if strings.Contains(e.Message, text) {
			out = append(out, e)
		}
	}
	return out
}

func TestStores(t *testing.T) {
	g, _ := newTestGenerator(1, nil)
	stores := g.Stores(25)
	require.Len(t, stores, 25)

	phones := map[string]bool{}
	for _, s := range stores {
		assert.NotContains(t, s.Address, "\n")
		assert.True(t, strings.HasSuffix(s.City, " RushMore Pizzeria"), s.City)
		assert.False(t, phones[s.Phone], "duplicate phone %s", s.Phone)
		phones[s.Phone] = true
		assert.False(t, s.OpenedAt.Before(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
		assert.False(t, s.OpenedAt.After(fixedNow))
	}
}

func TestCustomersAreMasked(t *testing.T) {
	g, _ := newTestGenerator(2, nil)
	customers := g.Customers(50)
	require.Len(t, customers, 50)

	for _, c := range customers {
		assert.Contains(t, c.Email, "*")
		assert.Contains(t, c.Email, "@")
		assert.True(t, strings.HasPrefix(c.Phone, "*******"), c.Phone)
		assert.False(t, c.CreatedAt.Before(startOfYear(fixedNow)))
		assert.False(t, c.CreatedAt.After(fixedNow))
	}
}

func TestCustomersRepairCollisions(t *testing.T) {
	g, rec := newTestGenerator(3, func(d *DataGenerator) Synthesizer {
		return stubSynth{DataGenerator: d, email: "al@x.com", phone: "15551234567"}
	})
	customers := g.Customers(5)

	assert.Equal(t, "a*@x.com", customers[0].Email)
	assert.Equal(t, "*******4567", customers[0].Phone)

	emails := map[string]int{}
	phones := map[string]int{}
	for i, c := range customers {
		emails[c.Email]++
		phones[c.Phone]++
		if i == 0 {
			continue
		}
		assert.Regexp(t, `^a\*\+\d{4}@x\.com$`, c.Email)
		assert.Regexp(t, `^\*{7}4567\d{4}$`, c.Phone)
	}

	// the single pass accepts repaired values unchecked; whatever still
	// collides is reported rather than fixed
	residual := 0
	for _, n := range emails {
		if n > 1 {
			residual++
		}
	}
	for _, n := range phones {
		if n > 1 {
			residual++
		}
	}
	assert.Len(t, warningsContaining(rec, "after repair"), residual)
}

func TestCustomersWarnOnUnmaskable(t *testing.T) {
	g, rec := newTestGenerator(4, func(d *DataGenerator) Synthesizer {
		return stubSynth{DataGenerator: d, email: "not-an-email"}
	})
	customers := g.Customers(1)

	assert.Equal(t, "not-an-email", customers[0].Email)
	warnings := rec.OfKind(events.Warning)
	require.NotEmpty(t, warnings)
	assert.Equal(t, events.CategoryMask, warnings[0].Category)
}

func TestIngredientsAreDistinct(t *testing.T) {
	g, rec := newTestGenerator(5, nil)
	ingredients := g.Ingredients(50)
	require.Len(t, ingredients, 50)

	names := map[string]bool{}
	for _, ing := range ingredients {
		assert.False(t, names[ing.Name], "duplicate name %s", ing.Name)
		names[ing.Name] = true
		assert.GreaterOrEqual(t, ing.StockQuantity, 10)
		assert.LessOrEqual(t, ing.StockQuantity, 500)
		assert.Contains(t, units, ing.Unit)
	}
	assert.Empty(t, warningsContaining(rec, "ran out"))
}

func TestIngredientsFallBackWhenVocabularyRunsOut(t *testing.T) {
	word := "fresh"
	g, rec := newTestGenerator(6, func(d *DataGenerator) Synthesizer {
		return stubSynth{DataGenerator: d, word: &word}
	})
	// 20 bases plus 20 "<base> fresh" variants cannot cover 45 names
	ingredients := g.Ingredients(45)
	require.Len(t, ingredients, 45)

	names := map[string]bool{}
	for _, ing := range ingredients {
		assert.False(t, names[ing.Name], "duplicate name %s", ing.Name)
		names[ing.Name] = true
	}
	assert.Len(t, warningsContaining(rec, "ran out"), 1)
}

func TestIngredientsReplaceEmptyWords(t *testing.T) {
	empty := ""
	g, rec := newTestGenerator(7, func(d *DataGenerator) Synthesizer {
		return stubSynth{DataGenerator: d, word: &empty}
	})
	ingredients := g.Ingredients(30)
	require.Len(t, ingredients, 30)

	for _, ing := range ingredients {
		assert.False(t, strings.HasSuffix(ing.Name, " "), "name %q", ing.Name)
	}
	assert.Len(t, warningsContaining(rec, "empty word"), 1)
}

func TestMenuItems(t *testing.T) {
	g, _ := newTestGenerator(8, nil)
	items := g.MenuItems(40)
	require.Len(t, items, 40)

	low, high := decimal.NewFromInt(5), decimal.NewFromInt(25)
	for _, item := range items {
		assert.True(t, item.Price.GreaterThanOrEqual(low), item.Price.String())
		assert.True(t, item.Price.LessThanOrEqual(high), item.Price.String())
		assert.True(t, item.Price.Equal(item.Price.Round(2)))
		assert.Contains(t, menuCategories, item.Category)
		assert.Contains(t, menuSizes, item.Size)

		matched := false
		for _, flavor := range flavorProfiles {
			if strings.HasSuffix(item.Name, " "+flavor) {
				matched = true
			}
		}
		assert.True(t, matched, item.Name)
	}
}

func TestItemIngredients(t *testing.T) {
	g, _ := newTestGenerator(9, nil)
	menu := []int64{1, 2, 3, 4}
	pool := []int64{10, 11, 12, 13, 14, 15, 16, 17}

	links := g.ItemIngredients(menu, pool)
	perItem := map[int64]map[int64]bool{}
	for _, l := range links {
		if perItem[l.ItemID] == nil {
			perItem[l.ItemID] = map[int64]bool{}
		}
		assert.False(t, perItem[l.ItemID][l.IngredientID], "ingredient %d twice on item %d", l.IngredientID, l.ItemID)
		perItem[l.ItemID][l.IngredientID] = true
		assert.Contains(t, pool, l.IngredientID)
		assert.True(t, l.QuantityRequired.GreaterThanOrEqual(decimal.NewFromInt(5)))
		assert.True(t, l.QuantityRequired.LessThanOrEqual(decimal.NewFromInt(300)))
	}
	require.Len(t, perItem, len(menu))
	for _, ings := range perItem {
		assert.GreaterOrEqual(t, len(ings), 2)
		assert.LessOrEqual(t, len(ings), 6)
	}
}

func TestItemIngredientsClampToPool(t *testing.T) {
	g, _ := newTestGenerator(10, nil)

	links := g.ItemIngredients([]int64{1, 2, 3}, []int64{7})
	assert.Len(t, links, 3)

	assert.Empty(t, g.ItemIngredients([]int64{1}, nil))
}

func TestOrders(t *testing.T) {
	g, _ := newTestGenerator(11, nil)
	stores := []int64{1, 2}
	customers := []int64{5, 6, 7}

	orders, err := g.Orders(200, stores, customers, 0)
	require.NoError(t, err)
	require.Len(t, orders, 200)
	for _, o := range orders {
		require.NotNil(t, o.CustomerID)
		assert.Contains(t, customers, *o.CustomerID)
		assert.Contains(t, stores, o.StoreID)
		assert.True(t, o.TotalAmount.IsZero())
		assert.Contains(t, statuses, o.Status)
		assert.False(t, o.OrderedAt.After(fixedNow))
		assert.False(t, o.OrderedAt.Before(fixedNow.Add(-367*24*time.Hour)))
	}
}

func TestOrdersGuests(t *testing.T) {
	g, _ := newTestGenerator(12, nil)

	orders, err := g.Orders(50, []int64{1}, []int64{5}, 1)
	require.NoError(t, err)
	for _, o := range orders {
		assert.Nil(t, o.CustomerID)
	}

	orders, err = g.Orders(50, []int64{1}, nil, 0)
	require.NoError(t, err)
	for _, o := range orders {
		assert.Nil(t, o.CustomerID)
	}
}

func TestOrdersGuestShareFollowsRate(t *testing.T) {
	g, _ := newTestGenerator(14, nil)
	customers := []int64{5, 6, 7, 8}

	for _, rate := range []float64{0.1, 0.3, 0.75} {
		orders, err := g.Orders(20000, []int64{1, 2}, customers, rate)
		require.NoError(t, err)

		guests := 0
		for _, o := range orders {
			if o.CustomerID == nil {
				guests++
			}
		}
		share := float64(guests) / float64(len(orders))
		assert.InDelta(t, rate, share, 0.02, "rate %v", rate)
	}
}

func TestOrdersNeedStores(t *testing.T) {
	g, _ := newTestGenerator(13, nil)

	_, err := g.Orders(3, nil, []int64{1}, 0)
	assert.True(t, errors.Is(err, ErrNoStores))

	orders, err := g.Orders(0, nil, nil, 0)
	assert.NoError(t, err)
	assert.Empty(t, orders)
}

func TestFlattenAddress(t *testing.T) {
	assert.Equal(t, "12 Main Street, Springfield, CA 00001", flattenAddress("12 Main Street\nSpringfield, CA 00001"))
	assert.Equal(t, "a, b", flattenAddress("a\r\nb"))
}
