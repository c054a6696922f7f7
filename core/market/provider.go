// Package market resolves which discount rules apply to a pricing context.
//
// Providers are pure lookups. Dispatch is a closed switch over the known
// markets; Table is built from a frozen rule registry; Static is a fixed list.
package market

import (
	"sort"

	"github.com/shopspring/decimal"

	"discount-engine/core/rules"
	"discount-engine/core/types"
	"discount-engine/internal/errors"
)

// Provider resolves the ordered rules to evaluate for a context
type Provider interface {
	RulesFor(ctx types.PricingContext) []rules.Rule
}

// DefaultMarket is used when the context carries no market or an unknown one
const DefaultMarket = types.MarketGlobal

// Dispatch maps each known market to its fixed rule set. Adding a market is
// adding a case.
type Dispatch struct{}

// RulesFor implements Provider
func (Dispatch) RulesFor(ctx types.PricingContext) []rules.Rule {
	return ForMarket(ctx.Market)
}

// ForMarket builds the rule set of a market. Unknown or empty markets fall
// back to DefaultMarket.
func ForMarket(m types.Market) []rules.Rule {
	switch m {
	case types.MarketKR:
		return []rules.Rule{
			rules.NewMember(decimal.RequireFromString("0.05")),
			rules.Coupon(),
			rules.Bulk(10, 100),
		}
	case types.MarketGlobal:
		return []rules.Rule{
			rules.Tier(nil),
			rules.Coupon(),
			rules.Bulk(10, 150),
		}
	default:
		return ForMarket(DefaultMarket)
	}
}

// Static always returns the same rules
type Static []rules.Rule

// RulesFor implements Provider
func (s Static) RulesFor(types.PricingContext) []rules.Rule {
	out := make([]rules.Rule, len(s))
	copy(out, s)
	return out
}

// FromRegistry resolves keys against reg into a Static provider
func FromRegistry(reg *rules.Registry, keys ...string) (Static, error) {
	rs, err := reg.Resolve(keys...)
	if err != nil {
		return nil, err
	}
	return Static(rs), nil
}

// Table maps markets to rule lists resolved from a registry at build time
type Table struct {
	markets  map[types.Market][]rules.Rule
	keys     map[types.Market][]string
	fallback types.Market
}

// NewTable resolves every market's keys against reg. Any unregistered key
// fails with a RuleNotFound error. fallback must be one of the markets.
func NewTable(reg *rules.Registry, markets map[types.Market][]string, fallback types.Market) (*Table, error) {
	t := &Table{
		markets:  make(map[types.Market][]rules.Rule, len(markets)),
		keys:     make(map[types.Market][]string, len(markets)),
		fallback: fallback,
	}
	for m, keys := range markets {
		rs, err := reg.Resolve(keys...)
		if err != nil {
			return nil, errors.Wrapf(errors.TypeConfig, err, "market %s", m)
		}
		t.markets[m] = rs
		t.keys[m] = append([]string(nil), keys...)
	}
	if _, ok := t.markets[fallback]; !ok {
		return nil, errors.Newf(errors.TypeConfig, "default market %q has no rule set", fallback).
			WithContext("market", string(fallback))
	}
	return t, nil
}

// RulesFor implements Provider
func (t *Table) RulesFor(ctx types.PricingContext) []rules.Rule {
	rs := t.markets[t.Resolve(ctx.Market)]
	out := make([]rules.Rule, len(rs))
	copy(out, rs)
	return out
}

// Resolve returns m when the table configures it and the fallback otherwise
func (t *Table) Resolve(m types.Market) types.Market {
	if _, ok := t.markets[m]; ok {
		return m
	}
	return t.fallback
}

// Markets returns the configured markets, sorted
func (t *Table) Markets() []types.Market {
	out := make([]types.Market, 0, len(t.markets))
	for m := range t.markets {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Keys returns the registry keys configured for a market
func (t *Table) Keys(m types.Market) []string {
	return append([]string(nil), t.keys[m]...)
}

// Fallback returns the market used for unknown classifiers
func (t *Table) Fallback() types.Market {
	return t.fallback
}
