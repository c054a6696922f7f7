package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discount-engine/core/types"
)

func TestRunDefaultPassesValidOrder(t *testing.T) {
	ctx := types.PricingContext{
		UnitPrice:  20000,
		Quantity:   12,
		MemberTier: types.TierGold,
		Coupon:     &types.Coupon{Kind: types.CouponPercentage, Value: decimal.NewFromInt(10), Code: "TENOFF"},
	}.WithStock(50)

	st := Run(ctx, Default()...)
	assert.False(t, st.Halted)
	assert.Equal(t, []string{"input", "member", "coupon", "stock"}, st.Trail)
	require.NotNil(t, st.Context.Coupon)
	assert.Equal(t, "TENOFF", st.Context.Coupon.Code)
}

func TestRunHaltsOnInvalidInput(t *testing.T) {
	st := Run(types.PricingContext{UnitPrice: 0, Quantity: 3}, Default()...)
	assert.True(t, st.Halted)
	assert.Equal(t, []string{"input"}, st.Trail)
}

func TestRunHaltsOnStockShortage(t *testing.T) {
	ctx := types.PricingContext{UnitPrice: 15000, Quantity: 3}.WithStock(2)
	st := Run(ctx, Default()...)
	assert.True(t, st.Halted)
	assert.Equal(t, []string{"input", "member", "coupon", "stock"}, st.Trail)
}

func TestCouponFormatStripsInvalidCoupons(t *testing.T) {
	tests := []struct {
		name   string
		coupon types.Coupon
		keep   bool
	}{
		{"fixed positive", types.Coupon{Kind: types.CouponFixedAmount, Value: decimal.NewFromInt(2000)}, true},
		{"fixed zero", types.Coupon{Kind: types.CouponFixedAmount, Value: decimal.Zero}, false},
		{"percent in range", types.Coupon{Kind: types.CouponPercentage, Value: decimal.RequireFromString("99.5")}, true},
		{"percent zero", types.Coupon{Kind: types.CouponPercentage, Value: decimal.Zero}, false},
		{"percent hundred", types.Coupon{Kind: types.CouponPercentage, Value: decimal.NewFromInt(100)}, false},
		{"unknown kind", types.Coupon{Kind: "BOGO", Value: decimal.NewFromInt(1)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := types.PricingContext{UnitPrice: 1000, Quantity: 1}.WithCoupon(tt.coupon)
			st := Run(ctx, CouponFormat())
			assert.False(t, st.Halted)
			assert.Equal(t, tt.keep, st.Context.HasCoupon())
			assert.True(t, ctx.HasCoupon(), "input context must not be modified")
		})
	}
}

func TestRunWithoutSteps(t *testing.T) {
	ctx := types.PricingContext{UnitPrice: 1, Quantity: 1}
	st := Run(ctx)
	assert.False(t, st.Halted)
	assert.Empty(t, st.Trail)
	assert.Equal(t, ctx, st.Context)
}

func TestStepDoesNotShareTrail(t *testing.T) {
	base := State{Trail: make([]string, 1, 8)}
	base.Trail[0] = "input"

	a := Member().apply(base)
	b := Stock().apply(base)
	assert.Equal(t, []string{"input", "member"}, a.Trail)
	assert.Equal(t, []string{"input", "stock"}, b.Trail)
}
