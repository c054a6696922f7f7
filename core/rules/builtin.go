package rules

import (
	"fmt"

	"github.com/shopspring/decimal"

	"discount-engine/core/types"
)

// DefaultTierRates is the member-tier rate table used when none is configured
var DefaultTierRates = map[types.MemberTier]decimal.Decimal{
	types.TierNew:      decimal.Zero,
	types.TierIron:     decimal.RequireFromString("0.01"),
	types.TierBronze:   decimal.RequireFromString("0.02"),
	types.TierSilver:   decimal.RequireFromString("0.05"),
	types.TierGold:     decimal.RequireFromString("0.07"),
	types.TierPlatinum: decimal.RequireFromString("0.10"),
	types.TierVIP:      decimal.RequireFromString("0.15"),
}

// TierRule grants a rate discount that depends on the member tier
type TierRule struct {
	rates map[types.MemberTier]decimal.Decimal
}

// Tier returns a tier rule. A nil table selects DefaultTierRates. The table
// is copied.
func Tier(rates map[types.MemberTier]decimal.Decimal) TierRule {
	if rates == nil {
		rates = DefaultTierRates
	}
	cp := make(map[types.MemberTier]decimal.Decimal, len(rates))
	for k, v := range rates {
		cp[k] = v
	}
	return TierRule{rates: cp}
}

// Name returns the rule name
func (r TierRule) Name() string { return "tier" }

// Rate returns the configured rate for a tier
func (r TierRule) Rate(t types.MemberTier) (decimal.Decimal, bool) {
	rate, ok := r.rates[t]
	return rate, ok
}

// Apply implements Rule
func (r TierRule) Apply(ctx types.PricingContext) (types.Candidate, bool) {
	if ctx.MemberTier == "" {
		return types.Candidate{}, false
	}
	rate, ok := r.rates[ctx.MemberTier]
	if !ok || !rate.IsPositive() {
		return types.Candidate{}, false
	}
	return positive(types.Candidate{
		Label:  fmt.Sprintf("Member tier %s %s%% off", ctx.MemberTier, percent(rate)),
		Amount: types.FloorMul(ctx.Subtotal(), rate),
		Group:  types.GroupMembership,
		Meta:   map[string]any{"rate": rate.String(), "tier": ctx.MemberTier.String()},
	}, true)
}

// NewMemberRule grants a rate discount to first-time (NEW tier) members
type NewMemberRule struct {
	rate decimal.Decimal
}

// NewMember returns a new-member rule with the given rate
func NewMember(rate decimal.Decimal) NewMemberRule {
	return NewMemberRule{rate: rate}
}

// Name returns the rule name
func (r NewMemberRule) Name() string { return "new_member" }

// Apply implements Rule
func (r NewMemberRule) Apply(ctx types.PricingContext) (types.Candidate, bool) {
	if ctx.MemberTier != types.TierNew || !r.rate.IsPositive() {
		return types.Candidate{}, false
	}
	return positive(types.Candidate{
		Label:  fmt.Sprintf("New member %s%% off", percent(r.rate)),
		Amount: types.FloorMul(ctx.Subtotal(), r.rate),
		Group:  types.GroupMembership,
		Meta:   map[string]any{"rate": r.rate.String()},
	}, true)
}

// CouponRule applies the coupon carried by the context
type CouponRule struct{}

// Coupon returns the coupon rule
func Coupon() CouponRule {
	return CouponRule{}
}

// Name returns the rule name
func (CouponRule) Name() string { return "coupon" }

// Apply implements Rule
func (CouponRule) Apply(ctx types.PricingContext) (types.Candidate, bool) {
	c := ctx.Coupon
	if c == nil {
		return types.Candidate{}, false
	}

	var (
		amount types.Money
		label  string
	)
	switch c.Kind {
	case types.CouponFixedAmount:
		amount = c.Value.Floor().IntPart()
		if amount < 0 {
			amount = 0
		}
		label = fmt.Sprintf("Coupon %d off", amount)
	case types.CouponPercentage:
		amount = types.FloorMul(ctx.Subtotal(), c.Value.Shift(-2))
		label = fmt.Sprintf("Coupon %s%% off", c.Value.String())
	default:
		return types.Candidate{}, false
	}

	meta := map[string]any{"kind": c.Kind.String(), "value": c.Value.String()}
	if c.Code != "" {
		meta["code"] = c.Code
	}
	return positive(types.Candidate{
		Label:  label,
		Amount: amount,
		Group:  types.GroupCoupon,
		Meta:   meta,
	}, true)
}

// BulkRule takes a fixed amount off every unit once a quantity threshold is met
type BulkRule struct {
	minQty           int
	amountOffPerItem types.Money
}

// Bulk returns a bulk rule: quantity >= minQty earns amountOffPerItem per unit
func Bulk(minQty int, amountOffPerItem types.Money) BulkRule {
	return BulkRule{minQty: minQty, amountOffPerItem: amountOffPerItem}
}

// Name returns the rule name
func (r BulkRule) Name() string { return "bulk" }

// Apply implements Rule
func (r BulkRule) Apply(ctx types.PricingContext) (types.Candidate, bool) {
	if ctx.Quantity < r.minQty {
		return types.Candidate{}, false
	}
	return positive(types.Candidate{
		Label:  fmt.Sprintf("Bulk %d+ units, %d off each", r.minQty, r.amountOffPerItem),
		Amount: types.Money(ctx.Quantity) * r.amountOffPerItem,
		Group:  types.GroupBulk,
		Meta:   map[string]any{"min_qty": r.minQty, "amount_off_per_item": r.amountOffPerItem},
	}, true)
}

// BulkRateRule takes a rate off the subtotal once a quantity threshold is met
type BulkRateRule struct {
	minQty int
	rate   decimal.Decimal
}

// BulkRate returns a bulk rule that discounts floor(subtotal × rate)
func BulkRate(minQty int, rate decimal.Decimal) BulkRateRule {
	return BulkRateRule{minQty: minQty, rate: rate}
}

// Name returns the rule name
func (r BulkRateRule) Name() string { return "bulk_rate" }

// Apply implements Rule
func (r BulkRateRule) Apply(ctx types.PricingContext) (types.Candidate, bool) {
	if ctx.Quantity < r.minQty || !r.rate.IsPositive() {
		return types.Candidate{}, false
	}
	return positive(types.Candidate{
		Label:  fmt.Sprintf("Bulk %d+ units %s%% off", r.minQty, percent(r.rate)),
		Amount: types.FloorMul(ctx.Subtotal(), r.rate),
		Group:  types.GroupBulk,
		Meta:   map[string]any{"min_qty": r.minQty, "rate": r.rate.String()},
	}, true)
}

// NoDiscountRule never applies
type NoDiscountRule struct{}

// NoDiscount returns the no-op rule
func NoDiscount() NoDiscountRule {
	return NoDiscountRule{}
}

// Name returns the rule name
func (NoDiscountRule) Name() string { return "none" }

// Apply implements Rule
func (NoDiscountRule) Apply(types.PricingContext) (types.Candidate, bool) {
	return types.Candidate{}, false
}

// percent renders a fraction as a whole percent, floored
func percent(rate decimal.Decimal) string {
	return rate.Shift(2).Floor().String()
}
