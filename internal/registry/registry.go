// Package registry loads the market registry, the YAML file declaring
// which crvUSD mint markets the engine evaluates and their contract
// parameters.
package registry

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DiligentDeer/crvhealth/internal/contracts"
)

// marketEntry is the YAML shape of one registry row.
type marketEntry struct {
	Name        string  `yaml:"market"`
	Token       string  `yaml:"token"`
	AMM         string  `yaml:"amm"`
	Controller  string  `yaml:"controller"`
	Policy      string  `yaml:"policy"`
	A           int64   `yaml:"amp"`
	LiqDiscount float64 `yaml:"liq_discount"`
	PriceFeedID string  `yaml:"price_feed_id"`
}

type registryFile struct {
	Markets []marketEntry `yaml:"markets"`
}

// Registry is the loaded, validated set of markets, indexed by name and
// by controller key.
type Registry struct {
	byName map[string]contracts.Market
	byKey  map[string]contracts.Market
	order  []string
}

// Load reads and validates the registry file at path.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a Registry from raw YAML.
func Parse(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	if len(file.Markets) == 0 {
		return nil, fmt.Errorf("registry declares no markets")
	}

	r := &Registry{
		byName: make(map[string]contracts.Market, len(file.Markets)),
		byKey:  make(map[string]contracts.Market, len(file.Markets)),
	}
	for _, e := range file.Markets {
		if err := validateEntry(e); err != nil {
			return nil, fmt.Errorf("registry entry %q: %w", e.Name, err)
		}
		m := contracts.NewMarket(e.Name, e.Token, e.AMM, e.Controller, e.Policy, e.A, e.LiqDiscount, e.PriceFeedID)
		if _, dup := r.byKey[m.Key()]; dup {
			return nil, fmt.Errorf("registry entry %q: duplicate controller %s", e.Name, m.Key())
		}
		if _, dup := r.byName[m.Name]; dup {
			return nil, fmt.Errorf("registry entry %q: duplicate name", e.Name)
		}
		r.byName[m.Name] = m
		r.byKey[m.Key()] = m
		r.order = append(r.order, m.Name)
	}
	return r, nil
}

func validateEntry(e marketEntry) error {
	switch {
	case e.Name == "":
		return fmt.Errorf("missing market name")
	case e.Controller == "":
		return fmt.Errorf("missing controller address")
	case e.Token == "":
		return fmt.Errorf("missing collateral token address")
	case e.A <= 0:
		return fmt.Errorf("amplification must be positive, got %d", e.A)
	case e.LiqDiscount < 0 || e.LiqDiscount >= 1:
		return fmt.Errorf("liq_discount must be in [0, 1), got %g", e.LiqDiscount)
	}
	return nil
}

// ByName looks up a market by registry name.
func (r *Registry) ByName(name string) (contracts.Market, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// ByController looks up a market by controller address,
// case-insensitively.
func (r *Registry) ByController(addr string) (contracts.Market, bool) {
	m, ok := r.byKey[strings.ToLower(addr)]
	return m, ok
}

// All returns every market in registry file order.
func (r *Registry) All() []contracts.Market {
	out := make([]contracts.Market, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns the market names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	sort.Strings(names)
	return names
}

// Len returns the number of registered markets.
func (r *Registry) Len() int {
	return len(r.order)
}
