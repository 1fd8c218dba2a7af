package seeder

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Rana718/pizzaseed/internal/events"
	"github.com/Rana718/pizzaseed/internal/masking"
	"github.com/shopspring/decimal"
)

// ErrNoStores is returned when orders are requested but no store exists to
// place them at.
var ErrNoStores = errors.New("cannot generate orders without stores")

const (
	fallbackWord          = "special"
	ingredientAttemptsPer = 50
	minIngredientAttempts = 100
)

// generator builds row values for every table. It holds no database handle;
// the only side effects are warnings sent to emit.
type generator struct {
	rand  *rand.Rand
	synth Synthesizer
	now   time.Time
	emit  events.Emitter
}

func newGenerator(r *rand.Rand, synth Synthesizer, now time.Time, emit events.Emitter) *generator {
	return &generator{rand: r, synth: synth, now: now.UTC(), emit: emit}
}

func (g *generator) Stores(count int) []Store {
	stores := make([]Store, count)
	for i := range stores {
		stores[i] = Store{
			Address:  flattenAddress(g.synth.Address()),
			City:     g.synth.City() + " RushMore Pizzeria",
			Phone:    g.synth.Phone(),
			OpenedAt: g.between(startOfDecade(g.now), g.now),
		}
	}
	return stores
}

func (g *generator) Customers(count int) []Customer {
	customers := make([]Customer, count)
	emails := make(map[string]int, count)
	phones := make(map[string]int, count)

	for i := range customers {
		email, err := masking.Email(g.synth.Email())
		if err != nil {
			g.emit.Warn(events.CategoryMask, TableCustomers, "customer %d: %v", i, err)
		}
		if emails[email] > 0 {
			email = g.tagEmail(email)
		}
		emails[email]++

		phone, err := masking.Phone(g.synth.Phone())
		if err != nil {
			g.emit.Warn(events.CategoryMask, TableCustomers, "customer %d: %v", i, err)
		}
		if phones[phone] > 0 {
			phone = g.tagPhone(phone)
		}
		phones[phone]++

		customers[i] = Customer{
			FirstName: g.synth.FirstName(),
			LastName:  g.synth.LastName(),
			Email:     email,
			Phone:     phone,
			CreatedAt: g.between(startOfYear(g.now), g.now),
		}
	}

	for _, dup := range duplicates(emails) {
		g.emit.Warn(events.CategoryMask, TableCustomers, "masked email %q still appears %d times after repair", dup, emails[dup])
	}
	for _, dup := range duplicates(phones) {
		g.emit.Warn(events.CategoryMask, TableCustomers, "masked phone %q still appears %d times after repair", dup, phones[dup])
	}
	return customers
}

// tagEmail inserts a random +NNNN tag before the domain separator.
func (g *generator) tagEmail(email string) string {
	tag := fmt.Sprintf("+%04d", g.rand.Intn(10000))
	at := strings.IndexByte(email, '@')
	if at < 0 {
		return email + tag
	}
	return email[:at] + tag + email[at:]
}

func (g *generator) tagPhone(phone string) string {
	return fmt.Sprintf("%s%04d", phone, g.rand.Intn(10000))
}

func (g *generator) Ingredients(count int) []Ingredient {
	names := make([]string, 0, count)
	taken := make(map[string]bool, count)
	budget := count * ingredientAttemptsPer
	if budget < minIngredientAttempts {
		budget = minIngredientAttempts
	}

	warnedEmpty := false
	for attempt := 0; len(names) < count && attempt < budget; attempt++ {
		name := baseIngredients[g.rand.Intn(len(baseIngredients))]
		if taken[name] {
			word := g.synth.Word()
			if strings.TrimSpace(word) == "" {
				if !warnedEmpty {
					g.emit.Warn(events.CategoryPopulate, TableIngredients, "synthesizer returned an empty word, using %q", fallbackWord)
					warnedEmpty = true
				}
				word = fallbackWord
			}
			name += " " + word
		}
		if taken[name] {
			continue
		}
		taken[name] = true
		names = append(names, name)
	}

	if missing := count - len(names); missing > 0 {
		g.emit.Warn(events.CategoryPopulate, TableIngredients,
			"ran out of distinct names after %d attempts, numbering %d more", budget, missing)
		for n := 1; len(names) < count; n++ {
			name := fmt.Sprintf("%s %d", baseIngredients[(n-1)%len(baseIngredients)], n)
			if taken[name] {
				continue
			}
			taken[name] = true
			names = append(names, name)
		}
	}

	ingredients := make([]Ingredient, count)
	for i, name := range names {
		ingredients[i] = Ingredient{
			Name:          name,
			StockQuantity: 10 + g.rand.Intn(491),
			Unit:          units[g.rand.Intn(len(units))],
		}
	}
	return ingredients
}

func (g *generator) MenuItems(count int) []MenuItem {
	items := make([]MenuItem, count)
	for i := range items {
		word := g.synth.Word()
		if strings.TrimSpace(word) == "" {
			word = fallbackWord
		}
		items[i] = MenuItem{
			Name:     capitalize(word) + " " + flavorProfiles[g.rand.Intn(len(flavorProfiles))],
			Category: menuCategories[g.rand.Intn(len(menuCategories))],
			Size:     menuSizes[g.rand.Intn(len(menuSizes))],
			Price:    g.uniformDecimal(5, 25),
		}
	}
	return items
}

// ItemIngredients links every menu item to 2..6 distinct ingredients.
func (g *generator) ItemIngredients(menuIDs, ingredientIDs []int64) []ItemIngredient {
	if len(ingredientIDs) == 0 {
		return nil
	}
	links := make([]ItemIngredient, 0, len(menuIDs)*4)
	for _, itemID := range menuIDs {
		k := 2 + g.rand.Intn(5)
		if k > len(ingredientIDs) {
			k = len(ingredientIDs)
		}
		for _, idx := range g.rand.Perm(len(ingredientIDs))[:k] {
			links = append(links, ItemIngredient{
				ItemID:           itemID,
				IngredientID:     ingredientIDs[idx],
				QuantityRequired: g.uniformDecimal(5, 300),
			})
		}
	}
	return links
}

func (g *generator) Orders(count int, storeIDs, customerIDs []int64, guestRate float64) ([]Order, error) {
	if count == 0 {
		return nil, nil
	}
	if len(storeIDs) == 0 {
		return nil, fmt.Errorf("%w: %d orders requested", ErrNoStores, count)
	}

	orders := make([]Order, count)
	for i := range orders {
		var customer *int64
		if len(customerIDs) > 0 && g.rand.Float64() >= guestRate {
			id := customerIDs[g.rand.Intn(len(customerIDs))]
			customer = &id
		}

		offset := time.Duration(g.rand.Intn(366))*24*time.Hour + time.Duration(g.rand.Intn(86400))*time.Second
		orders[i] = Order{
			CustomerID:  customer,
			StoreID:     storeIDs[g.rand.Intn(len(storeIDs))],
			OrderedAt:   g.now.Add(-offset),
			TotalAmount: decimal.Zero,
			Status:      statuses[g.rand.Intn(len(statuses))],
		}
	}
	return orders, nil
}

func (g *generator) between(from, to time.Time) time.Time {
	span := to.Sub(from)
	if span <= 0 {
		return from
	}
	return from.Add(time.Duration(g.rand.Int63n(int64(span))))
}

func (g *generator) uniformDecimal(min, max float64) decimal.Decimal {
	return decimal.NewFromFloat(min + g.rand.Float64()*(max-min)).Round(2)
}

func startOfDecade(t time.Time) time.Time {
	return time.Date(t.Year()-t.Year()%10, time.January, 1, 0, 0, 0, 0, time.UTC)
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
}

func flattenAddress(address string) string {
	return strings.ReplaceAll(strings.ReplaceAll(address, "\r\n", ", "), "\n", ", ")
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}

func duplicates(counts map[string]int) []string {
	var out []string
	for value, n := range counts {
		if n > 1 {
			out = append(out, value)
		}
	}
	sort.Strings(out)
	return out
}
