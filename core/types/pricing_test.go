package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckedSubtotal(t *testing.T) {
	tests := []struct {
		name      string
		unitPrice Money
		quantity  int
		want      Money
		ok        bool
	}{
		{"regular order", 12000, 12, 144000, true},
		{"zero quantity", 12000, 0, 0, true},
		{"max fits", math.MaxInt64, 1, math.MaxInt64, true},
		{"wraps negative", 5_000_000_000_000_000_000, 3, 0, false},
		{"wraps to small positive", 4611686018427387905, 4, 0, false},
		{"just past max", math.MaxInt64/2 + 1, 2, 0, false},
		{"negative price", -100, 2, 0, false},
		{"negative quantity", 100, -2, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := PricingContext{UnitPrice: tt.unitPrice, Quantity: tt.quantity}
			got, ok := c.CheckedSubtotal()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, c.Subtotal())
		})
	}
}

func TestIsPriceable(t *testing.T) {
	assert.True(t, PricingContext{UnitPrice: 1, Quantity: 1}.IsPriceable())
	assert.False(t, PricingContext{UnitPrice: 0, Quantity: 1}.IsPriceable())
	assert.False(t, PricingContext{UnitPrice: 1, Quantity: 0}.IsPriceable())
	assert.False(t, PricingContext{UnitPrice: 5_000_000_000_000_000_000, Quantity: 3}.IsPriceable())
}
