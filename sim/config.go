package sim

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/trade-sim/sim/worldgen"
)

// Config holds every tunable the engine consumes. Nothing in the engine is hardcoded;
// tests override individual fields.
type Config struct {
	Seed                 int64   `yaml:"seed"`
	SelectionProbability float64 `yaml:"selection_probability"` // per-company, per-tick
	EventInterval        int64   `yaml:"event_interval"`        // events roll when tick % interval == 0

	Inflation    InflationConfig    `yaml:"inflation"`
	Restock      RestockConfig      `yaml:"restock"`
	Recharge     RechargeConfig     `yaml:"recharge"`
	Availability AvailabilityConfig `yaml:"availability"`

	World worldgen.Config `yaml:"world"`
}

// InflationConfig groups price inflation parameters.
type InflationConfig struct {
	Probability float64 `yaml:"probability"`
	Factor      float64 `yaml:"factor"`       // applied to every matching quote
	BonusFactor float64 `yaml:"bonus_factor"` // compounded on top for previously inflated products
}

// RestockConfig groups supplier restocking parameters.
type RestockConfig struct {
	Probability         float64 `yaml:"probability"`
	SupplierProbability float64 `yaml:"supplier_probability"`
	ProductProbability  float64 `yaml:"product_probability"`
	MinQuantity         int     `yaml:"min_quantity"`
	MaxQuantity         int     `yaml:"max_quantity"`
}

// RechargeConfig groups budget injection parameters.
// CompanyProbability of 1 recharges every company.
type RechargeConfig struct {
	Probability        float64 `yaml:"probability"`
	CompanyProbability float64 `yaml:"company_probability"`
	MinAmount          float64 `yaml:"min_amount"`
	MaxAmount          float64 `yaml:"max_amount"`
}

// AvailabilityConfig groups product activation toggling parameters.
type AvailabilityConfig struct {
	Probability           float64 `yaml:"probability"`
	DeactivateProbability float64 `yaml:"deactivate_probability"`
	ActivateProbability   float64 `yaml:"activate_probability"`
}

// DefaultConfig returns the parameters used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Seed:                 42,
		SelectionProbability: 0.3,
		EventInterval:        10,
		Inflation: InflationConfig{
			Probability: 0.3,
			Factor:      1.4,
			BonusFactor: 1.15,
		},
		Restock: RestockConfig{
			Probability:         0.5,
			SupplierProbability: 0.5,
			ProductProbability:  0.5,
			MinQuantity:         5,
			MaxQuantity:         50,
		},
		Recharge: RechargeConfig{
			Probability:        0.3,
			CompanyProbability: 1.0,
			MinAmount:          100,
			MaxAmount:          1000,
		},
		Availability: AvailabilityConfig{
			Probability:           0.3,
			DeactivateProbability: 0.05,
			ActivateProbability:   0.3,
		},
		World: worldgen.DefaultConfig(),
	}
}

// LoadConfig reads a YAML file over DefaultConfig, so omitted keys keep their
// defaults. Unknown keys are an error so typos do not silently fall back.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// YAML renders the config as YAML text.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks that every probability is in [0, 1] and every range is ordered.
func (c Config) Validate() error {
	probs := []struct {
		name string
		v    float64
	}{
		{"selection_probability", c.SelectionProbability},
		{"inflation.probability", c.Inflation.Probability},
		{"restock.probability", c.Restock.Probability},
		{"restock.supplier_probability", c.Restock.SupplierProbability},
		{"restock.product_probability", c.Restock.ProductProbability},
		{"recharge.probability", c.Recharge.Probability},
		{"recharge.company_probability", c.Recharge.CompanyProbability},
		{"availability.probability", c.Availability.Probability},
		{"availability.deactivate_probability", c.Availability.DeactivateProbability},
		{"availability.activate_probability", c.Availability.ActivateProbability},
	}
	for _, p := range probs {
		if p.v < 0 || p.v > 1 {
			return fmt.Errorf("%s must be in [0, 1], got %v", p.name, p.v)
		}
	}
	if c.EventInterval <= 0 {
		return fmt.Errorf("event_interval must be positive, got %d", c.EventInterval)
	}
	if c.Inflation.Factor <= 0 {
		return fmt.Errorf("inflation.factor must be positive, got %v", c.Inflation.Factor)
	}
	if c.Inflation.BonusFactor <= 0 {
		return fmt.Errorf("inflation.bonus_factor must be positive, got %v", c.Inflation.BonusFactor)
	}
	if c.Restock.MinQuantity < 0 || c.Restock.MaxQuantity < c.Restock.MinQuantity {
		return fmt.Errorf("restock quantity range must satisfy 0 <= min <= max, got [%d, %d]",
			c.Restock.MinQuantity, c.Restock.MaxQuantity)
	}
	if c.Recharge.MinAmount < 0 || c.Recharge.MaxAmount < c.Recharge.MinAmount {
		return fmt.Errorf("recharge amount range must satisfy 0 <= min <= max, got [%v, %v]",
			c.Recharge.MinAmount, c.Recharge.MaxAmount)
	}
	return c.World.Validate()
}
