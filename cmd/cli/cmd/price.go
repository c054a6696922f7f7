// Package cmd - price command
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"discount-engine/core/output"
	"discount-engine/core/types"
	"discount-engine/internal/app"
	"discount-engine/internal/config"
	"discount-engine/internal/logging"
)

type priceFlags struct {
	unitPrice   int64
	quantity    int
	tier        string
	couponKind  string
	couponValue string
	couponCode  string
	market      string
	stock       int
	maxRate     string
	bestOne     bool
	exclusive   []string
	rulesFile   string
	format      string
}

var pf priceFlags

// priceCmd represents the price command
var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price one order",
	Long: `Run an order through validation, the market's discount rules and the
aggregation policy, then print the quote.

Policy flags override the config file and the rule-set file.

Examples:
  discount-engine price --price 12000 --qty 12 --tier GOLD
  discount-engine price --price 12000 --qty 12 --coupon-kind PERCENTAGE --coupon-value 10 --max-rate 0.1
  discount-engine price --price 15000 --qty 3 --stock 2`,
	Args: cobra.NoArgs,
	RunE: runPrice,
}

func init() {
	f := priceCmd.Flags()
	f.Int64Var(&pf.unitPrice, "price", 0, "unit price in minor units")
	f.IntVar(&pf.quantity, "qty", 1, "quantity")
	f.StringVar(&pf.tier, "tier", "", "member tier (NEW, IRON, BRONZE, SILVER, GOLD, PLATINUM, VIP)")
	f.StringVar(&pf.couponKind, "coupon-kind", "", "coupon kind (FIXED_AMOUNT, PERCENTAGE)")
	f.StringVar(&pf.couponValue, "coupon-value", "", "coupon amount off, or percent off for PERCENTAGE")
	f.StringVar(&pf.couponCode, "coupon-code", "", "coupon code")
	f.StringVar(&pf.market, "market", "", "market (KR, GLOBAL)")
	f.IntVar(&pf.stock, "stock", -1, "available stock; negative means unknown")
	f.StringVar(&pf.maxRate, "max-rate", "", "cap total discount at this fraction of the subtotal")
	f.BoolVar(&pf.bestOne, "best-one", false, "apply only the largest discount")
	f.StringSliceVar(&pf.exclusive, "exclusive", nil, "groups in which only the largest discount survives")
	f.StringVar(&pf.rulesFile, "rules", "", "HCL rule-set file")
	f.StringVarP(&pf.format, "format", "f", "cli", "output format (cli, json)")
	_ = priceCmd.MarkFlagRequired("price")
}

func runPrice(cmd *cobra.Command, args []string) error {
	formatter, err := output.ForFormat(output.Format(pf.format))
	if err != nil {
		return err
	}

	ov, err := overridesFromFlags(cmd, pf)
	if err != nil {
		return err
	}

	a, err := app.Build(config.Get(), ov, logging.Logger)
	if err != nil {
		return err
	}

	ctx, err := contextFromFlags(pf, a.DefaultMarket)
	if err != nil {
		return err
	}

	q := a.Engine.Quote(ctx)
	logging.Debug("quote computed",
		zap.Int64("total", q.Total),
		zap.Bool("halted", q.Halted),
		zap.Strings("trail", q.Trail),
	)

	return formatter.Render(cmd.OutOrStdout(), &output.Report{
		Input:  ctx,
		Quote:  q,
		Policy: a.Engine.Policy(),
		Metadata: output.Metadata{
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			Version:     Version,
			RulesSource: a.RulesSource,
		},
	})
}

// overridesFromFlags only overrides what the user actually set
func overridesFromFlags(cmd *cobra.Command, f priceFlags) (app.Overrides, error) {
	var ov app.Overrides
	flags := cmd.Flags()

	if flags.Changed("max-rate") {
		rate, err := decimal.NewFromString(strings.TrimSpace(f.maxRate))
		if err != nil {
			return ov, fmt.Errorf("invalid --max-rate %q: %w", f.maxRate, err)
		}
		ov.MaxDiscountRate = &rate
	}
	if flags.Changed("best-one") {
		best := f.bestOne
		ov.OnlyBestOne = &best
	}
	if flags.Changed("exclusive") {
		ov.ExclusiveGroups = append([]string{}, f.exclusive...)
	}
	if flags.Changed("rules") {
		file := f.rulesFile
		ov.RulesFile = &file
	}
	return ov, nil
}

func contextFromFlags(f priceFlags, defaultMarket types.Market) (types.PricingContext, error) {
	tier, ok := types.ParseMemberTier(f.tier)
	if !ok {
		return types.PricingContext{}, fmt.Errorf("unknown member tier %q", f.tier)
	}

	m, known := types.ParseMarket(f.market)
	if m == "" {
		m = defaultMarket
	} else if !known {
		logging.Warn("unknown market, the default rule set applies", zap.String("market", string(m)))
	}

	ctx := types.PricingContext{
		UnitPrice:  f.unitPrice,
		Quantity:   f.quantity,
		MemberTier: tier,
		Market:     m,
	}
	if f.stock >= 0 {
		ctx = ctx.WithStock(f.stock)
	}

	if f.couponKind == "" && f.couponValue == "" {
		return ctx, nil
	}
	kind, ok := types.ParseCouponKind(f.couponKind)
	if !ok {
		return types.PricingContext{}, fmt.Errorf("unknown coupon kind %q", f.couponKind)
	}
	value, err := decimal.NewFromString(strings.TrimSpace(f.couponValue))
	if err != nil {
		return types.PricingContext{}, fmt.Errorf("invalid --coupon-value %q: %w", f.couponValue, err)
	}
	return ctx.WithCoupon(types.Coupon{Kind: kind, Value: value, Code: f.couponCode}), nil
}
