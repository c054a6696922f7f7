package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discount-engine/core/types"
)

func lines(amounts ...types.Money) []types.Candidate {
	out := make([]types.Candidate, len(amounts))
	for i, a := range amounts {
		out[i] = types.Candidate{Label: "line", Amount: a}
	}
	return out
}

func amounts(cs []types.Candidate) []types.Money {
	out := make([]types.Money, len(cs))
	for i, c := range cs {
		out[i] = c.Amount
	}
	return out
}

func capped(rate string) types.Policy {
	return types.Policy{}.CapRate(decimal.RequireFromString(rate))
}

func TestAggregatePassThroughWithoutCap(t *testing.T) {
	in := lines(10080, 14400, 3)
	res := Aggregate(144000, in, types.Policy{})

	assert.Equal(t, []types.Money{10080, 14400, 3}, amounts(res.Discounts))
	assert.Equal(t, types.Money(144000-24483), res.Total)
}

func TestAggregateProportionalRedistribution(t *testing.T) {
	// raw 1000 split 600/400 under a cap of 300 (30% of 1000)
	res := Aggregate(1000, lines(600, 400), capped("0.3"))

	assert.Equal(t, []types.Money{180, 120}, amounts(res.Discounts))
	assert.Equal(t, types.Money(300), res.DiscountTotal())
	assert.Equal(t, types.Money(700), res.Total)
}

func TestAggregateLossyRedistributionIsPreserved(t *testing.T) {
	// raw 300 split evenly under a cap of 100; each line floors to 33
	res := Aggregate(1000, lines(100, 100, 100), capped("0.1"))

	assert.Equal(t, []types.Money{33, 33, 33}, amounts(res.Discounts))
	assert.Equal(t, types.Money(99), res.DiscountTotal(), "under-shoot must not be corrected")
	assert.Equal(t, types.Money(901), res.Total)
}

func TestAggregateOnlyBestOne(t *testing.T) {
	res := Aggregate(10000, lines(50, 120, 80), types.Policy{OnlyBestOne: true})
	require.Len(t, res.Discounts, 1)
	assert.Equal(t, types.Money(120), res.Discounts[0].Amount)
}

func TestAggregateOnlyBestOneTieKeepsFirst(t *testing.T) {
	in := []types.Candidate{
		{Label: "first", Amount: 90},
		{Label: "second", Amount: 90},
	}
	res := Aggregate(10000, in, types.Policy{OnlyBestOne: true})
	require.Len(t, res.Discounts, 1)
	assert.Equal(t, "first", res.Discounts[0].Label)
}

func TestAggregateExclusiveGroups(t *testing.T) {
	in := []types.Candidate{
		{Label: "new member", Amount: 40, Group: "membership"},
		{Label: "coupon", Amount: 70, Group: "coupon"},
		{Label: "tier", Amount: 90, Group: "membership"},
		{Label: "untagged", Amount: 5},
	}

	t.Run("highest per configured group", func(t *testing.T) {
		res := Aggregate(10000, in, types.Policy{ExclusiveGroups: []string{"membership"}})
		assert.Equal(t, []types.Money{70, 90, 5}, amounts(res.Discounts))
	})

	t.Run("unconfigured groups are unaffected", func(t *testing.T) {
		res := Aggregate(10000, in, types.Policy{ExclusiveGroups: []string{"bulk"}})
		assert.Equal(t, []types.Money{40, 70, 90, 5}, amounts(res.Discounts))
	})

	t.Run("tie keeps first in input order", func(t *testing.T) {
		tie := []types.Candidate{
			{Label: "a", Amount: 50, Group: "membership"},
			{Label: "b", Amount: 50, Group: "membership"},
		}
		res := Aggregate(10000, tie, types.Policy{ExclusiveGroups: []string{"membership"}})
		require.Len(t, res.Discounts, 1)
		assert.Equal(t, "a", res.Discounts[0].Label)
	})

	t.Run("groups filter before best one", func(t *testing.T) {
		res := Aggregate(10000, in, types.Policy{ExclusiveGroups: []string{"membership"}, OnlyBestOne: true})
		require.Len(t, res.Discounts, 1)
		assert.Equal(t, "tier", res.Discounts[0].Label)
	})
}

func TestAggregateCapAboveRawPassesThrough(t *testing.T) {
	res := Aggregate(10000, lines(100, 200), capped("0.5"))
	assert.Equal(t, []types.Money{100, 200}, amounts(res.Discounts))
	assert.Equal(t, types.Money(9700), res.Total)
}

func TestAggregateZeroCapEliminatesDiscounts(t *testing.T) {
	res := Aggregate(10000, lines(100, 200), capped("0"))
	assert.Equal(t, []types.Money{0, 0}, amounts(res.Discounts))
	assert.Equal(t, types.Money(10000), res.Total)
}

func TestAggregateDiscountsExceedingSubtotalClampTotal(t *testing.T) {
	res := Aggregate(1000, lines(5000), types.Policy{})
	assert.Equal(t, types.Money(5000), res.DiscountTotal())
	assert.Equal(t, types.Money(0), res.Total)
}

func TestAggregateNoCandidates(t *testing.T) {
	res := Aggregate(1000, nil, capped("0.3"))
	assert.NotNil(t, res.Discounts)
	assert.Empty(t, res.Discounts)
	assert.Equal(t, types.Money(1000), res.Total)
}

func TestAggregateDoesNotMutateInput(t *testing.T) {
	in := lines(600, 400)
	_ = Aggregate(1000, in, capped("0.3"))
	assert.Equal(t, []types.Money{600, 400}, amounts(in))
}

func TestAggregateTotalInvariant(t *testing.T) {
	policies := []types.Policy{
		{},
		capped("0.1"),
		capped("0.33"),
		{OnlyBestOne: true},
		{ExclusiveGroups: []string{"membership"}, MaxDiscountRate: decimal.NewNullDecimal(decimal.RequireFromString("0.2"))},
	}
	sets := [][]types.Candidate{
		nil,
		lines(1),
		lines(7, 13, 29),
		lines(99999, 1),
		{{Amount: 300, Group: "membership"}, {Amount: 301, Group: "membership"}, {Amount: 17}},
	}
	for _, subtotal := range []types.Money{0, 1, 997, 144000} {
		for _, p := range policies {
			for _, cs := range sets {
				res := Aggregate(subtotal, cs, p)
				want := subtotal - res.DiscountTotal()
				if want < 0 {
					want = 0
				}
				assert.Equal(t, want, res.Total)
				if p.MaxDiscountRate.Valid {
					assert.LessOrEqual(t, res.DiscountTotal(), types.FloorMul(subtotal, p.MaxDiscountRate.Decimal))
				}
			}
		}
	}
}

func TestScaleUsesExactArithmetic(t *testing.T) {
	assert.Equal(t, types.Money(5929), scale(10080, 24480, 14400))
	assert.Equal(t, types.Money(8470), scale(14400, 24480, 14400))
	assert.Equal(t, types.Money(180), scale(600, 1000, 300))
	assert.Equal(t, types.Money(0), scale(600, 1000, 0))
}
