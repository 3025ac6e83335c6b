// Package worldgen builds the initial population of products, suppliers and companies
// together with the suppliers' opening price quotes. Generation is fully determined by
// the RNG passed in, including entity IDs.
package worldgen

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/inference-sim/trade-sim/sim/ledger"
	"github.com/inference-sim/trade-sim/sim/pricing"
)

// Config sizes the generated world.
type Config struct {
	Companies int `yaml:"companies"`
	Suppliers int `yaml:"suppliers"`
	Products  int `yaml:"products"`

	MinBudget float64 `yaml:"min_budget"`
	MaxBudget float64 `yaml:"max_budget"`

	MinBasePrice float64 `yaml:"min_base_price"`
	MaxBasePrice float64 `yaml:"max_base_price"`
	PriceSpread  float64 `yaml:"price_spread"` // supplier quote = base * (1 ± spread)

	MinStock int `yaml:"min_stock"`
	MaxStock int `yaml:"max_stock"`

	CarryProbability float64 `yaml:"carry_probability"` // supplier carries a given product
	QuoteProbability float64 `yaml:"quote_probability"` // carried product has a price quote
}

// DefaultConfig returns a small world suitable for interactive runs.
func DefaultConfig() Config {
	return Config{
		Companies:        12,
		Suppliers:        6,
		Products:         20,
		MinBudget:        500,
		MaxBudget:        5000,
		MinBasePrice:     2,
		MaxBasePrice:     200,
		PriceSpread:      0.2,
		MinStock:         10,
		MaxStock:         200,
		CarryProbability: 0.6,
		QuoteProbability: 0.95,
	}
}

// Validate checks sizes and ranges.
func (c Config) Validate() error {
	if c.Companies < 0 || c.Suppliers < 0 || c.Products < 0 {
		return fmt.Errorf("world sizes must be non-negative, got companies=%d suppliers=%d products=%d",
			c.Companies, c.Suppliers, c.Products)
	}
	if c.MinBudget < 0 || c.MaxBudget < c.MinBudget {
		return fmt.Errorf("budget range must satisfy 0 <= min <= max, got [%v, %v]", c.MinBudget, c.MaxBudget)
	}
	if c.MinBasePrice <= 0 || c.MaxBasePrice < c.MinBasePrice {
		return fmt.Errorf("base price range must satisfy 0 < min <= max, got [%v, %v]", c.MinBasePrice, c.MaxBasePrice)
	}
	if c.PriceSpread < 0 || c.PriceSpread >= 1 {
		return fmt.Errorf("price_spread must be in [0, 1), got %v", c.PriceSpread)
	}
	if c.MinStock < 0 || c.MaxStock < c.MinStock {
		return fmt.Errorf("stock range must satisfy 0 <= min <= max, got [%d, %d]", c.MinStock, c.MaxStock)
	}
	for name, p := range map[string]float64{"carry_probability": c.CarryProbability, "quote_probability": c.QuoteProbability} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %v", name, p)
		}
	}
	return nil
}

var regions = []string{"DE", "FR", "US", "JP", "BR", "IN", "ZA", "AU"}

// Generate populates store and prices. The store and table are expected to be empty.
func Generate(cfg Config, store ledger.Store, prices *pricing.Table, rng *rand.Rand) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	products := make([]*ledger.Product, 0, cfg.Products)
	for i := 0; i < cfg.Products; i++ {
		p := &ledger.Product{
			ID:        newID(rng),
			Name:      fmt.Sprintf("Product-%03d", i+1),
			BasePrice: cents(cfg.MinBasePrice + rng.Float64()*(cfg.MaxBasePrice-cfg.MinBasePrice)),
			Active:    true,
			Category:  ledger.AllCategories[rng.Intn(len(ledger.AllCategories))],
		}
		if err := store.AddProduct(p); err != nil {
			return fmt.Errorf("adding product: %w", err)
		}
		products = append(products, p)
	}

	quotes := 0
	for i := 0; i < cfg.Suppliers; i++ {
		s := &ledger.Supplier{
			ID:      newID(rng),
			Name:    fmt.Sprintf("Supplier-%03d", i+1),
			Country: regions[rng.Intn(len(regions))],
			Stock:   make(map[string]int),
		}
		for _, p := range products {
			if rng.Float64() >= cfg.CarryProbability {
				continue
			}
			s.Stock[p.ID] = cfg.MinStock + rng.Intn(cfg.MaxStock-cfg.MinStock+1)
			if rng.Float64() < cfg.QuoteProbability {
				skew := 1 + (rng.Float64()*2-1)*cfg.PriceSpread
				prices.Set(p.ID, s.ID, cents(p.BasePrice*skew))
				quotes++
			}
		}
		if err := store.AddSupplier(s); err != nil {
			return fmt.Errorf("adding supplier: %w", err)
		}
	}

	for i := 0; i < cfg.Companies; i++ {
		budget := cents(cfg.MinBudget + rng.Float64()*(cfg.MaxBudget-cfg.MinBudget))
		c := &ledger.Company{
			ID:                  newID(rng),
			Name:                fmt.Sprintf("Company-%03d", i+1),
			Country:             regions[rng.Intn(len(regions))],
			Budget:              budget,
			InitialBudget:       budget,
			PreferredCategories: preferredCategories(rng),
			Strategy:            ledger.AllStrategies[rng.Intn(len(ledger.AllStrategies))],
		}
		if err := store.AddCompany(c); err != nil {
			return fmt.Errorf("adding company: %w", err)
		}
	}

	logrus.Debugf("Generated world: %d products, %d suppliers, %d companies, %d price quotes",
		cfg.Products, cfg.Suppliers, cfg.Companies, quotes)
	return nil
}

// preferredCategories draws a non-empty subset of categories.
func preferredCategories(rng *rand.Rand) []ledger.Category {
	var out []ledger.Category
	for _, c := range ledger.AllCategories {
		if rng.Float64() < 0.5 {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		out = append(out, ledger.AllCategories[rng.Intn(len(ledger.AllCategories))])
	}
	return out
}

// newID derives a v4 UUID from the simulation RNG so IDs are stable per seed.
func newID(rng *rand.Rand) string {
	id, err := uuid.NewRandomFromReader(rng)
	if err != nil {
		// *rand.Rand.Read never fails
		panic(err)
	}
	return id.String()
}

func cents(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
