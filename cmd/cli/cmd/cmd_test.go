package cmd

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discount-engine/core/output"
	"discount-engine/core/types"
	"discount-engine/internal/config"
)

var shippedRules = filepath.Join("..", "..", "..", "configs", "rules.hcl")

func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	resetFlags(rootCmd)
	config.Set(config.Default())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func runReport(t *testing.T, args ...string) output.Report {
	t.Helper()
	out, err := run(t, append(args, "--format", "json")...)
	require.NoError(t, err, out)

	var r output.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r), out)
	return r
}

func TestPriceCappedBuiltinGlobal(t *testing.T) {
	r := runReport(t, "price", "--price", "12000", "--qty", "12", "--tier", "gold",
		"--coupon-kind", "PERCENTAGE", "--coupon-value", "10", "--max-rate", "0.1")

	assert.Equal(t, types.MarketGlobal, r.Input.Market)
	assert.Equal(t, types.Money(26280), r.Quote.RawDiscount)
	require.Len(t, r.Quote.Discounts, 3)
	assert.Equal(t, types.Money(5523), r.Quote.Discounts[0].Amount)
	assert.Equal(t, types.Money(7890), r.Quote.Discounts[1].Amount)
	assert.Equal(t, types.Money(986), r.Quote.Discounts[2].Amount)
	assert.Equal(t, types.Money(129601), r.Quote.Total)
	assert.Equal(t, "builtin", r.Metadata.RulesSource)
}

func TestPriceWithRuleSetFile(t *testing.T) {
	r := runReport(t, "price", "--rules", shippedRules, "--price", "12000", "--qty", "12",
		"--tier", "NEW", "--market", "kr", "--coupon-kind", "RATE", "--coupon-value", "10")

	assert.Equal(t, types.Money(121200), r.Quote.Total)
	assert.Equal(t, "0.3", r.Policy.MaxDiscountRate.Decimal.String())
}

func TestPriceBestOneOverride(t *testing.T) {
	r := runReport(t, "price", "--price", "12000", "--qty", "12", "--tier", "GOLD",
		"--coupon-kind", "FIXED_AMOUNT", "--coupon-value", "2000", "--best-one")

	require.Len(t, r.Quote.Discounts, 1)
	assert.Equal(t, "tier", r.Quote.Discounts[0].Rule)
}

func TestPriceStockShortageHalts(t *testing.T) {
	r := runReport(t, "price", "--price", "15000", "--qty", "3", "--stock", "2")
	assert.True(t, r.Quote.Halted)
	assert.Equal(t, types.Money(0), r.Quote.Total)
}

func TestPriceCLIFormat(t *testing.T) {
	out, err := run(t, "price", "--price", "1000", "--qty", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "DISCOUNT QUOTE")
	assert.Contains(t, out, "1,000")
}

func TestPriceErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing price", []string{"price", "--qty", "2"}},
		{"bad tier", []string{"price", "--price", "100", "--tier", "DIAMOND"}},
		{"bad coupon kind", []string{"price", "--price", "100", "--coupon-kind", "BOGO", "--coupon-value", "1"}},
		{"bad coupon value", []string{"price", "--price", "100", "--coupon-kind", "FIXED", "--coupon-value", "lots"}},
		{"bad max rate", []string{"price", "--price", "100", "--max-rate", "abc"}},
		{"max rate out of range", []string{"price", "--price", "100", "--max-rate", "1.5"}},
		{"bad format", []string{"price", "--price", "100", "--format", "html"}},
		{"missing rules file", []string{"price", "--price", "100", "--rules", "does-not-exist.hcl"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestRulesCommand(t *testing.T) {
	out, err := run(t, "rules")
	require.NoError(t, err)
	assert.Contains(t, out, "builtin")
	assert.Contains(t, out, "GLOBAL (default)")
	assert.Contains(t, out, "new_member, coupon, bulk")

	out, err = run(t, "rules", "--rules", shippedRules)
	require.NoError(t, err)
	assert.Contains(t, out, "kr_new_member, coupon, bulk_kr")
}

func TestVersionAndConfigCommands(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "discount-engine version "+Version)

	t.Setenv("DISCOUNT_MAX_RATE", "0.2")
	out, err = run(t, "config")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, json.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "0.2", cfg.Pricing.MaxDiscountRate.Decimal.String())
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	out, err := run(t, "config", "init", "--config", path)
	require.NoError(t, err, out)
	assert.Contains(t, out, path)

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, types.MarketGlobal, loaded.Pricing.DefaultMarket)
	assert.False(t, loaded.Pricing.MaxDiscountRate.Valid)
	assert.Equal(t, "1.0", loaded.Version)

	_, err = run(t, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	_, err = run(t, "config", "init", "--config", path, "--force")
	assert.NoError(t, err)
}
