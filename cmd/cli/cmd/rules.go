// Package cmd - rules command
package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"discount-engine/core/market"
	"discount-engine/core/rules"
	"discount-engine/core/types"
	"discount-engine/internal/app"
	"discount-engine/internal/config"
	"discount-engine/internal/logging"
)

var rulesFile string

// rulesCmd lists the loaded rules and market assignments
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List discount rules and the rules each market uses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var ov app.Overrides
		if cmd.Flags().Changed("rules") {
			ov.RulesFile = &rulesFile
		}
		a, err := app.Build(config.Get(), ov, logging.Logger)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Source:\t%s\n", a.RulesSource)
		fmt.Fprintf(w, "Registered:\t%s\n", strings.Join(a.Registry.Keys(), ", "))
		fmt.Fprintln(w)
		fmt.Fprintln(w, "MARKET\tRULES")

		if a.Markets != nil {
			for _, m := range a.Markets.Markets() {
				fmt.Fprintf(w, "%s%s\t%s\n", m, defaultMark(m, a.Markets.Fallback()), strings.Join(a.Markets.Keys(m), ", "))
			}
		} else {
			for _, m := range []types.Market{types.MarketKR, types.MarketGlobal} {
				fmt.Fprintf(w, "%s%s\t%s\n", m, defaultMark(m, market.DefaultMarket), strings.Join(rules.Names(market.ForMarket(m)), ", "))
			}
		}
		return w.Flush()
	},
}

func init() {
	rulesCmd.Flags().StringVar(&rulesFile, "rules", "", "HCL rule-set file")
}

func defaultMark(m, fallback types.Market) string {
	if m == fallback {
		return " (default)"
	}
	return ""
}
