package seeder

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TableStores          = "stores"
	TableCustomers       = "customers"
	TableIngredients     = "ingredients"
	TableMenuItems       = "menu_items"
	TableItemIngredients = "item_ingredients"
	TableOrders          = "orders"
	TableOrderItems      = "order_items"
)

// Chunk sizes per write.
const (
	customerChunk       = 1000
	orderChunk          = 1000
	catalogChunk        = 1000
	itemIngredientChunk = 2000
	orderItemChunk      = 2000
	totalsUpdateChunk   = 500
)

// MaxAvgItemsPerOrder bounds the mean line count drawn per order.
const MaxAvgItemsPerOrder = 50

var ErrInvalidOptions = errors.New("invalid seed options")

type Options struct {
	Stores      int
	Customers   int
	Ingredients int
	MenuItems   int
	Orders      int

	// GuestRate is the probability that an order has no customer.
	GuestRate        float64
	AvgItemsPerOrder float64

	// Seed fixes the random source; 0 picks one from the clock.
	Seed int64
	Now  func() time.Time
}

func DefaultOptions() Options {
	return Options{
		Stores:           5,
		Customers:        1000,
		Ingredients:      50,
		MenuItems:        30,
		Orders:           5000,
		GuestRate:        0.10,
		AvgItemsPerOrder: 3,
	}
}

func (o Options) Validate() error {
	counts := map[string]int{
		"stores":      o.Stores,
		"customers":   o.Customers,
		"ingredients": o.Ingredients,
		"menu items":  o.MenuItems,
		"orders":      o.Orders,
	}
	for name, n := range counts {
		if n < 0 {
			return fmt.Errorf("%w: %s count cannot be negative (got %d)", ErrInvalidOptions, name, n)
		}
	}
	if math.IsNaN(o.GuestRate) || o.GuestRate < 0 || o.GuestRate > 1 {
		return fmt.Errorf("%w: guest rate must be within [0, 1] (got %v)", ErrInvalidOptions, o.GuestRate)
	}
	if math.IsNaN(o.AvgItemsPerOrder) || o.AvgItemsPerOrder < 0 || o.AvgItemsPerOrder > MaxAvgItemsPerOrder {
		return fmt.Errorf("%w: average items per order must be within [0, %d] (got %v)",
			ErrInvalidOptions, MaxAvgItemsPerOrder, o.AvgItemsPerOrder)
	}
	return nil
}

type Summary struct {
	RunID     uuid.UUID
	Seed      int64
	Rows      map[string]int
	Reconcile ReconcileSummary
	Elapsed   time.Duration
}

type ReconcileSummary struct {
	Orders     int
	OrderItems int
	Revenue    decimal.Decimal
}

type Unit string

const (
	UnitGrams  Unit = "grams"
	UnitML     Unit = "ml"
	UnitPieces Unit = "pieces"
)

var units = []Unit{UnitGrams, UnitML, UnitPieces}

type OrderStatus string

const (
	StatusPending   OrderStatus = "Pending"
	StatusPreparing OrderStatus = "Preparing"
	StatusCompleted OrderStatus = "Completed"
	StatusCancelled OrderStatus = "Cancelled"
)

var statuses = []OrderStatus{StatusPending, StatusPreparing, StatusCompleted, StatusCancelled}

var (
	menuCategories = []string{"Classic", "Vegetarian/Vegan", "Gourmet/Special", "Meat Lovers", "Seafood", "Deluxe"}
	menuSizes      = []string{"Small", "Medium", "Large", "Family"}
	flavorProfiles = []string{
		"Margherita", "Pepperoni Feast", "Hawaiian", "Four Cheese", "Spinach & Feta",
		"BBQ Chicken", "Veggie Delight", "Meat Supreme", "Seafood Special",
	}
	baseIngredients = []string{
		"Tomato", "Cheese", "Pepperoni", "Mushroom", "Basil",
		"Chicken", "Onion", "Peppers", "Olive Oil", "Garlic",
		"Dough", "Sausage", "Spinach", "Feta", "Pineapple",
		"Ham", "Bacon", "Jalapeno", "Corn", "BBQ Sauce",
	}
)

type Store struct {
	Address  string
	City     string
	Phone    string
	OpenedAt time.Time
}

var storeColumns = []string{"address", "city", "phone_number", "opened_at"}

func (s Store) values() []interface{} {
	return []interface{}{s.Address, s.City, s.Phone, s.OpenedAt}
}

type Customer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	CreatedAt time.Time
}

var customerColumns = []string{"first_name", "last_name", "email", "phone_number", "created_at"}

func (c Customer) values() []interface{} {
	return []interface{}{c.FirstName, c.LastName, c.Email, c.Phone, c.CreatedAt}
}

type Ingredient struct {
	Name          string
	StockQuantity int
	Unit          Unit
}

var ingredientColumns = []string{"name", "stock_quantity", "unit"}

func (i Ingredient) values() []interface{} {
	return []interface{}{i.Name, i.StockQuantity, string(i.Unit)}
}

type MenuItem struct {
	Name     string
	Category string
	Size     string
	Price    decimal.Decimal
}

var menuItemColumns = []string{"name", "category", "size", "price"}

func (m MenuItem) values() []interface{} {
	return []interface{}{m.Name, m.Category, m.Size, m.Price}
}

type ItemIngredient struct {
	ItemID           int64
	IngredientID     int64
	QuantityRequired decimal.Decimal
}

var itemIngredientColumns = []string{"item_id", "ingredient_id", "quantity_required"}

func (ii ItemIngredient) values() []interface{} {
	return []interface{}{ii.ItemID, ii.IngredientID, ii.QuantityRequired}
}

type Order struct {
	CustomerID  *int64
	StoreID     int64
	OrderedAt   time.Time
	TotalAmount decimal.Decimal
	Status      OrderStatus
}

var orderColumns = []string{"customer_id", "store_id", "order_timestamp", "total_amount", "status"}

func (o Order) values() []interface{} {
	var customer interface{}
	if o.CustomerID != nil {
		customer = *o.CustomerID
	}
	return []interface{}{customer, o.StoreID, o.OrderedAt, o.TotalAmount, string(o.Status)}
}

type OrderLine struct {
	OrderID     int64
	ItemID      int64
	Quantity    int
	PriceAtTime decimal.Decimal
}

var orderItemColumns = []string{"order_id", "item_id", "quantity", "price_at_time_of_order"}

func (l OrderLine) values() []interface{} {
	return []interface{}{l.OrderID, l.ItemID, l.Quantity, l.PriceAtTime}
}

// LineTotal is price_at_time_of_order * quantity.
func (l OrderLine) LineTotal() decimal.Decimal {
	return l.PriceAtTime.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type MenuPrice struct {
	ItemID int64
	Price  decimal.Decimal
}

func rowsOf[T interface{ values() []interface{} }](items []T) [][]interface{} {
	rows := make([][]interface{}, len(items))
	for i, item := range items {
		rows[i] = item.values()
	}
	return rows
}
