// Package types - Pricing input types
package types

import (
	"math"
	"math/bits"
	"time"

	"github.com/shopspring/decimal"
)

// Coupon describes a coupon presented with the purchase
type Coupon struct {
	// Kind selects fixed-amount or percentage semantics
	Kind CouponKind `json:"kind"`

	// Value is the amount off (FIXED_AMOUNT) or percent off (PERCENTAGE, 10 = 10%)
	Value decimal.Decimal `json:"value"`

	// Code is the coupon code, if any
	Code string `json:"code,omitempty"`
}

// PricingContext is the immutable input to a pricing computation.
// Methods that "change" it return a modified copy.
type PricingContext struct {
	// UnitPrice is the price of one unit in minor units
	UnitPrice Money `json:"unit_price"`

	// Quantity is the number of units purchased
	Quantity int `json:"quantity"`

	// MemberTier is the customer tier; empty means unknown
	MemberTier MemberTier `json:"member_tier,omitempty"`

	// Coupon is the presented coupon, if any
	Coupon *Coupon `json:"coupon,omitempty"`

	// Market selects the rule set; empty means the default market
	Market Market `json:"market,omitempty"`

	// Now is the evaluation timestamp, if the caller pins one
	Now *time.Time `json:"now,omitempty"`

	// Stock is the available stock, if known
	Stock *int `json:"stock,omitempty"`
}

// Subtotal returns unit price × quantity. All percentage discounts and the
// cap are computed against this value. It is 0 when the product does not fit
// in Money.
func (c PricingContext) Subtotal() Money {
	s, _ := c.CheckedSubtotal()
	return s
}

// CheckedSubtotal returns unit price × quantity and false when either factor
// is negative or the product overflows Money.
func (c PricingContext) CheckedSubtotal() (Money, bool) {
	if c.UnitPrice < 0 || c.Quantity < 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(uint64(c.UnitPrice), uint64(c.Quantity))
	if hi != 0 || lo > math.MaxInt64 {
		return 0, false
	}
	return Money(lo), true
}

// IsPriceable reports whether unit price and quantity are both positive and
// their product fits in Money
func (c PricingContext) IsPriceable() bool {
	if c.UnitPrice <= 0 || c.Quantity <= 0 {
		return false
	}
	_, ok := c.CheckedSubtotal()
	return ok
}

// HasCoupon reports whether a coupon is present
func (c PricingContext) HasCoupon() bool {
	return c.Coupon != nil
}

// WithoutCoupon returns a copy of the context with the coupon removed
func (c PricingContext) WithoutCoupon() PricingContext {
	c.Coupon = nil
	return c
}

// WithCoupon returns a copy of the context carrying a copy of coupon
func (c PricingContext) WithCoupon(coupon Coupon) PricingContext {
	c.Coupon = &coupon
	return c
}

// WithMarket returns a copy of the context for the given market
func (c PricingContext) WithMarket(m Market) PricingContext {
	c.Market = m
	return c
}

// WithStock returns a copy of the context with a known stock figure
func (c PricingContext) WithStock(stock int) PricingContext {
	c.Stock = &stock
	return c
}

// FloorMul returns floor(amount × rate) with exact decimal arithmetic.
// Negative results are clamped to zero.
func FloorMul(amount Money, rate decimal.Decimal) Money {
	v := decimal.NewFromInt(amount).Mul(rate).Floor()
	if v.Sign() <= 0 {
		return 0
	}
	return v.IntPart()
}
