// Package hcl loads discount rule sets from HCL files.
//
// A rule-set file declares named rules, the rule keys each market uses, the
// fallback market and an optional aggregation policy:
//
//	policy {
//	  max_discount_rate = 0.3
//	  exclusive_groups  = ["membership"]
//	}
//
//	rule "kr_new_member" {
//	  kind = "new_member"
//	  rate = 0.05
//	}
//
//	market "KR" {
//	  rules = ["kr_new_member", "coupon"]
//	}
//
//	default_market = "KR"
package hcl

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"

	"discount-engine/core/market"
	"discount-engine/core/rules"
	"discount-engine/core/types"
	"discount-engine/internal/errors"
)

// Rule kinds accepted in a rule block
const (
	KindTier      = "tier"
	KindNewMember = "new_member"
	KindCoupon    = "coupon"
	KindBulk      = "bulk"
	KindBulkRate  = "bulk_rate"
	KindNone      = "none"
)

// RuleSet is a loaded rule-set file
type RuleSet struct {
	// Registry holds every declared rule, frozen
	Registry *rules.Registry

	// Markets is nil when the file declares no market blocks
	Markets *market.Table

	// Provider serves rules to the engine. It is Markets when markets are
	// declared and a Static provider over every rule otherwise.
	Provider market.Provider

	// Policy is the aggregation policy declared by the file
	Policy types.Policy

	// HasPolicy reports whether the file carried a policy block
	HasPolicy bool
}

type fileSpec struct {
	DefaultMarket *string      `hcl:"default_market,optional"`
	Policy        *policySpec  `hcl:"policy,block"`
	Rules         []ruleSpec   `hcl:"rule,block"`
	Markets       []marketSpec `hcl:"market,block"`
}

type policySpec struct {
	MaxDiscountRate *float64 `hcl:"max_discount_rate,optional"`
	OnlyBestOne     *bool    `hcl:"only_best_one,optional"`
	ExclusiveGroups []string `hcl:"exclusive_groups,optional"`
}

type ruleSpec struct {
	Key              string             `hcl:"key,label"`
	Kind             string             `hcl:"kind"`
	Rate             *float64           `hcl:"rate,optional"`
	Rates            map[string]float64 `hcl:"rates,optional"`
	MinQty           *int               `hcl:"min_qty,optional"`
	AmountOffPerItem *int64             `hcl:"amount_off_per_item,optional"`
	Group            *string            `hcl:"group,optional"`
	Range            hcl.Range          `hcl:",def_range"`
}

type marketSpec struct {
	Name  string   `hcl:"name,label"`
	Rules []string `hcl:"rules"`
}

// Load reads and parses a rule-set file
func Load(path string) (*RuleSet, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "failed to read rule set %s", path)
	}
	return Parse(src, path)
}

// Parse parses rule-set source. filename is used in diagnostics only.
func Parse(src []byte, filename string) (*RuleSet, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Parsing(fmt.Sprintf("failed to parse %s", filename), diags)
	}

	var spec fileSpec
	if diags := gohcl.DecodeBody(file.Body, nil, &spec); diags.HasErrors() {
		return nil, errors.Parsing(fmt.Sprintf("failed to decode %s", filename), diags)
	}

	reg := rules.NewRegistry()
	for _, rs := range spec.Rules {
		rule, err := buildRule(rs)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(rs.Key, rule); err != nil {
			return nil, fmt.Errorf("%s: %w", rs.Range.String(), err)
		}
	}
	reg.Freeze()

	set := &RuleSet{Registry: reg}

	if spec.Policy != nil {
		policy, err := buildPolicy(*spec.Policy)
		if err != nil {
			return nil, err
		}
		set.Policy = policy
		set.HasPolicy = true
	}

	if len(spec.Markets) == 0 {
		static, err := market.FromRegistry(reg, reg.Keys()...)
		if err != nil {
			return nil, err
		}
		set.Provider = static
		return set, nil
	}

	markets := make(map[types.Market][]string, len(spec.Markets))
	for _, ms := range spec.Markets {
		m, _ := types.ParseMarket(ms.Name)
		if m == "" {
			return nil, errors.Input("market label must not be empty").WithContext("file", filename)
		}
		if _, dup := markets[m]; dup {
			return nil, errors.Newf(errors.TypeConfig, "market %s declared twice", m).WithContext("file", filename)
		}
		markets[m] = ms.Rules
	}

	fallback := market.DefaultMarket
	if spec.DefaultMarket != nil {
		fallback, _ = types.ParseMarket(*spec.DefaultMarket)
	}

	table, err := market.NewTable(reg, markets, fallback)
	if err != nil {
		return nil, err
	}
	set.Markets = table
	set.Provider = table
	return set, nil
}

func buildPolicy(ps policySpec) (types.Policy, error) {
	policy := types.Policy{ExclusiveGroups: append([]string(nil), ps.ExclusiveGroups...)}
	if ps.OnlyBestOne != nil {
		policy.OnlyBestOne = *ps.OnlyBestOne
	}
	if ps.MaxDiscountRate != nil {
		policy = policy.CapRate(decimal.NewFromFloat(*ps.MaxDiscountRate))
	}
	if err := policy.Validate(); err != nil {
		return types.Policy{}, err
	}
	return policy, nil
}

func buildRule(rs ruleSpec) (rules.Rule, error) {
	var rule rules.Rule

	switch strings.ToLower(strings.TrimSpace(rs.Kind)) {
	case KindTier:
		rates, err := tierRates(rs)
		if err != nil {
			return nil, err
		}
		rule = rules.Tier(rates)
	case KindNewMember:
		rate, err := requireRate(rs)
		if err != nil {
			return nil, err
		}
		rule = rules.NewMember(rate)
	case KindCoupon:
		rule = rules.Coupon()
	case KindBulk:
		if rs.MinQty == nil || rs.AmountOffPerItem == nil {
			return nil, ruleError(rs, "bulk rule requires min_qty and amount_off_per_item")
		}
		rule = rules.Bulk(*rs.MinQty, *rs.AmountOffPerItem)
	case KindBulkRate:
		if rs.MinQty == nil {
			return nil, ruleError(rs, "bulk_rate rule requires min_qty")
		}
		rate, err := requireRate(rs)
		if err != nil {
			return nil, err
		}
		rule = rules.BulkRate(*rs.MinQty, rate)
	case KindNone:
		rule = rules.NoDiscount()
	default:
		return nil, ruleError(rs, fmt.Sprintf("unknown rule kind %q", rs.Kind))
	}

	if rs.Group != nil {
		rule = rules.WithGroup(rule, *rs.Group)
	}
	return rule, nil
}

func requireRate(rs ruleSpec) (decimal.Decimal, error) {
	if rs.Rate == nil {
		return decimal.Zero, ruleError(rs, fmt.Sprintf("%s rule requires rate", rs.Kind))
	}
	rate := decimal.NewFromFloat(*rs.Rate)
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, ruleError(rs, fmt.Sprintf("rate %s outside [0, 1]", rate))
	}
	return rate, nil
}

// tierRates returns nil (the default table) when the block has no rates map
func tierRates(rs ruleSpec) (map[types.MemberTier]decimal.Decimal, error) {
	if rs.Rates == nil {
		return nil, nil
	}
	out := make(map[types.MemberTier]decimal.Decimal, len(rs.Rates))
	for name, r := range rs.Rates {
		tier, ok := types.ParseMemberTier(name)
		if !ok || tier == "" {
			return nil, ruleError(rs, fmt.Sprintf("unknown member tier %q", name))
		}
		out[tier] = decimal.NewFromFloat(r)
	}
	return out, nil
}

func ruleError(rs ruleSpec, msg string) *errors.Error {
	return errors.Input(msg).
		WithContext("rule", rs.Key).
		WithContext("range", rs.Range.String())
}
