// Package pipeline runs the pre-pricing validation steps.
//
// Each step is a pure function from one State to the next. Run threads the
// state through the steps in order and stops at the first step that halts.
// Steps never modify the state they receive.
package pipeline

import (
	"github.com/shopspring/decimal"

	"discount-engine/core/types"
)

var hundred = decimal.NewFromInt(100)

// State is the accumulator threaded through the steps
type State struct {
	// Context is the pricing context as rewritten so far
	Context types.PricingContext

	// Halted means the order must be priced as zero
	Halted bool

	// Trail lists the steps that ran
	Trail []string
}

// Step transforms a state
type Step struct {
	Name string
	Fn   func(types.PricingContext) (types.PricingContext, bool)
}

// apply runs the step and returns a new state
func (s Step) apply(st State) State {
	next := State{
		Context: st.Context,
		Halted:  st.Halted,
		Trail:   append(append([]string(nil), st.Trail...), s.Name),
	}
	if s.Fn != nil {
		ctx, halt := s.Fn(st.Context)
		next.Context = ctx
		next.Halted = halt
	}
	return next
}

// Run applies steps to ctx in order
func Run(ctx types.PricingContext, steps ...Step) State {
	st := State{Context: ctx, Trail: []string{}}
	for _, step := range steps {
		st = step.apply(st)
		if st.Halted {
			break
		}
	}
	return st
}

// Input halts orders with a non-positive unit price or quantity, or whose
// subtotal overflows Money
func Input() Step {
	return Step{Name: "input", Fn: func(ctx types.PricingContext) (types.PricingContext, bool) {
		return ctx, !ctx.IsPriceable()
	}}
}

// Member is the hook for member checks; it currently passes every context
func Member() Step {
	return Step{Name: "member", Fn: func(ctx types.PricingContext) (types.PricingContext, bool) {
		return ctx, false
	}}
}

// CouponFormat strips malformed coupons: a fixed amount <= 0, or a
// percentage outside (0, 100).
func CouponFormat() Step {
	return Step{Name: "coupon", Fn: func(ctx types.PricingContext) (types.PricingContext, bool) {
		if ctx.Coupon == nil {
			return ctx, false
		}
		if !ValidCoupon(*ctx.Coupon) {
			return ctx.WithoutCoupon(), false
		}
		return ctx, false
	}}
}

// ValidCoupon reports whether a coupon survives CouponFormat
func ValidCoupon(c types.Coupon) bool {
	switch c.Kind {
	case types.CouponFixedAmount:
		return c.Value.IsPositive()
	case types.CouponPercentage:
		return c.Value.IsPositive() && c.Value.LessThan(hundred)
	default:
		return false
	}
}

// Stock halts orders whose quantity exceeds the known stock
func Stock() Step {
	return Step{Name: "stock", Fn: func(ctx types.PricingContext) (types.PricingContext, bool) {
		if ctx.Stock != nil && ctx.Quantity > *ctx.Stock {
			return ctx, true
		}
		return ctx, false
	}}
}

// Default returns input, member, coupon and stock checks in that order
func Default() []Step {
	return []Step{Input(), Member(), CouponFormat(), Stock()}
}
