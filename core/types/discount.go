// Package types - Discount and result types
package types

import (
	"github.com/shopspring/decimal"

	"discount-engine/internal/errors"
)

// Candidate is a proposed discount line produced by one rule
type Candidate struct {
	// Label is a human-readable description
	Label string `json:"label"`

	// Amount is the discount in minor units; always > 0 when produced by a rule
	Amount Money `json:"amount"`

	// Group is the exclusivity tag, if any
	Group string `json:"group,omitempty"`

	// Rule is the name of the rule that produced the candidate
	Rule string `json:"rule,omitempty"`

	// Meta carries rule-specific details (rate, coupon code, thresholds)
	Meta map[string]any `json:"meta,omitempty"`
}

// WithAmount returns a copy of the candidate with a rescaled amount
func (c Candidate) WithAmount(amount Money) Candidate {
	c.Amount = amount
	return c
}

// Policy controls how candidates combine. It is supplied once per engine.
type Policy struct {
	// MaxDiscountRate caps the total discount as a fraction of the subtotal.
	// An invalid (unset) value means unbounded.
	MaxDiscountRate decimal.NullDecimal `json:"max_discount_rate"`

	// OnlyBestOne keeps only the single largest candidate
	OnlyBestOne bool `json:"only_best_one"`

	// ExclusiveGroups lists tags of which at most one candidate survives
	ExclusiveGroups []string `json:"exclusive_groups,omitempty"`
}

// CapRate returns a policy copy capped at rate
func (p Policy) CapRate(rate decimal.Decimal) Policy {
	p.MaxDiscountRate = decimal.NewNullDecimal(rate)
	return p
}

// IsExclusive reports whether group is one of the configured exclusive groups
func (p Policy) IsExclusive(group string) bool {
	if group == "" {
		return false
	}
	for _, g := range p.ExclusiveGroups {
		if g == group {
			return true
		}
	}
	return false
}

// Validate rejects a cap rate outside [0, 1]
func (p Policy) Validate() error {
	if !p.MaxDiscountRate.Valid {
		return nil
	}
	rate := p.MaxDiscountRate.Decimal
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return errors.Newf(errors.TypeConfig, "max discount rate must be within [0, 1], got %s", rate.String()).
			WithContext("max_discount_rate", rate.String())
	}
	return nil
}

// Result is the outcome of a pricing computation
type Result struct {
	// Subtotal is unit price × quantity
	Subtotal Money `json:"subtotal"`

	// Discounts are the lines actually applied, after redistribution
	Discounts []Candidate `json:"discounts"`

	// Total is max(0, subtotal - sum(discounts))
	Total Money `json:"total"`
}

// DiscountTotal sums the applied discount amounts
func (r Result) DiscountTotal() Money {
	var sum Money
	for _, d := range r.Discounts {
		sum += d.Amount
	}
	return sum
}

// ZeroResult is the result for an order that cannot be priced
func ZeroResult() Result {
	return Result{Subtotal: 0, Discounts: []Candidate{}, Total: 0}
}

// Quote is a Result together with the trail of steps and rules that produced it
type Quote struct {
	Result

	// Trail lists the pipeline steps and rules evaluated, in order
	Trail []string `json:"trail"`

	// Halted is true when the validation pipeline short-circuited pricing
	Halted bool `json:"halted"`

	// RawDiscount is the summed discount before the cap
	RawDiscount Money `json:"raw_discount"`

	// Capped is true when the cap cut the raw discount and lines were rescaled
	Capped bool `json:"capped"`
}
