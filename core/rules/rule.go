// Package rules provides the discount rule contract, the built-in rules and
// the build-once rule registry.
//
// A rule inspects an immutable pricing context and either proposes one
// discount candidate or reports that it does not apply. Rules are pure:
// they hold no mutable state and never depend on other rules.
package rules

import (
	"discount-engine/core/types"
)

// Rule evaluates a pricing context
type Rule interface {
	// Name returns a stable identifier for logs and trails
	Name() string

	// Apply returns the candidate and true, or false when the rule does not
	// apply. A returned candidate always has Amount > 0.
	Apply(ctx types.PricingContext) (types.Candidate, bool)
}

// RuleFunc adapts a plain function into a Rule
type RuleFunc struct {
	name string
	fn   func(types.PricingContext) (types.Candidate, bool)
}

// Func builds a Rule from a name and an apply function
func Func(name string, fn func(types.PricingContext) (types.Candidate, bool)) RuleFunc {
	return RuleFunc{name: name, fn: fn}
}

// Name returns the rule name
func (f RuleFunc) Name() string {
	return f.name
}

// Apply calls the wrapped function and enforces the positive-amount contract
func (f RuleFunc) Apply(ctx types.PricingContext) (types.Candidate, bool) {
	if f.fn == nil {
		return types.Candidate{}, false
	}
	return positive(f.fn(ctx))
}

// positive turns any non-positive candidate into "not applicable"
func positive(c types.Candidate, ok bool) (types.Candidate, bool) {
	if !ok || c.Amount <= 0 {
		return types.Candidate{}, false
	}
	return c, true
}

// Evaluate applies rules in order and keeps only applicable candidates
func Evaluate(ctx types.PricingContext, rs []Rule) []types.Candidate {
	candidates := make([]types.Candidate, 0, len(rs))
	for _, r := range rs {
		if r == nil {
			continue
		}
		c, ok := positive(r.Apply(ctx))
		if !ok {
			continue
		}
		if c.Rule == "" {
			c.Rule = r.Name()
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// Names returns the names of rs in order
func Names(rs []Rule) []string {
	names := make([]string, 0, len(rs))
	for _, r := range rs {
		if r != nil {
			names = append(names, r.Name())
		}
	}
	return names
}

// grouped overrides the exclusivity group of the candidates a rule produces
type grouped struct {
	Rule
	group string
}

// WithGroup returns rule with its candidates retagged to group. An empty
// group returns rule unchanged.
func WithGroup(rule Rule, group string) Rule {
	if group == "" || rule == nil {
		return rule
	}
	return grouped{Rule: rule, group: group}
}

// Apply implements Rule
func (g grouped) Apply(ctx types.PricingContext) (types.Candidate, bool) {
	c, ok := g.Rule.Apply(ctx)
	if !ok {
		return c, false
	}
	c.Group = g.group
	return c, true
}
