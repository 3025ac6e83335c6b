// Package ledger holds the entities traded in the simulation (products, suppliers,
// companies) and the Store through which the engine reads and writes them back.
// It has no dependencies on sim/ and holds pure data types.
package ledger

import "fmt"

// Category classifies a product. The set is closed.
type Category int

const (
	CategoryRawMaterial Category = iota
	CategoryConsumable
	CategoryFinishedGood
)

// AllCategories lists every Category in declaration order.
var AllCategories = []Category{CategoryRawMaterial, CategoryConsumable, CategoryFinishedGood}

// String returns the wire name of the category.
func (c Category) String() string {
	switch c {
	case CategoryRawMaterial:
		return "raw-material"
	case CategoryConsumable:
		return "consumable"
	case CategoryFinishedGood:
		return "finished-good"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory maps a wire name back to a Category.
func ParseCategory(s string) (Category, error) {
	for _, c := range AllCategories {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Strategy is the rule a company uses to pick which product to buy. The set is closed;
// callers switch on it exhaustively.
type Strategy int

const (
	StrategyCheapestFirst Strategy = iota
	StrategyCategoryPreferred
)

// AllStrategies lists every Strategy in declaration order.
var AllStrategies = []Strategy{StrategyCheapestFirst, StrategyCategoryPreferred}

func (s Strategy) String() string {
	switch s {
	case StrategyCheapestFirst:
		return "cheapest-first"
	case StrategyCategoryPreferred:
		return "category-preferred"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy maps a wire name back to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range AllStrategies {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", s)
}

func (s Strategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Product is a tradable good. Only Active changes after world generation; realized
// prices live in the price table, never in BasePrice.
type Product struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	BasePrice float64  `json:"base_price"`
	Active    bool     `json:"active"`
	Category  Category `json:"category"`
}

// Supplier holds per-product stock. Stock values are never negative.
type Supplier struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Country string         `json:"country"`
	Stock   map[string]int `json:"stock"` // product ID → units on hand
}

// Carries reports whether the supplier holds at least one unit of the product.
func (s *Supplier) Carries(productID string) bool {
	return s.Stock[productID] > 0
}

// Company is a buyer. Budget is never negative; InitialBudget is a snapshot kept for
// reporting.
type Company struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Country             string     `json:"country"`
	Budget              float64    `json:"budget"`
	InitialBudget       float64    `json:"initial_budget"`
	PreferredCategories []Category `json:"preferred_categories"`
	Strategy            Strategy   `json:"strategy"`
}

// Prefers reports whether c is one of the company's preferred categories.
func (c *Company) Prefers(cat Category) bool {
	for _, p := range c.PreferredCategories {
		if p == cat {
			return true
		}
	}
	return false
}
