// Package app wires configuration, rule sources and the engine together for
// the binaries.
package app

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"discount-engine/adapters/hcl"
	"discount-engine/core/engine"
	"discount-engine/core/market"
	"discount-engine/core/pipeline"
	"discount-engine/core/rules"
	"discount-engine/core/types"
	"discount-engine/internal/config"
)

// BuiltinSource names the rule source when no rule-set file is configured
const BuiltinSource = "builtin"

// Overrides are command-line adjustments applied on top of the configured
// policy. Nil fields leave the policy unchanged.
type Overrides struct {
	MaxDiscountRate *decimal.Decimal
	OnlyBestOne     *bool
	ExclusiveGroups []string
	RulesFile       *string
}

// App is a ready-to-use engine together with what it was built from
type App struct {
	Engine        *engine.Engine
	Registry      *rules.Registry
	Markets       *market.Table
	Policy        types.Policy
	DefaultMarket types.Market
	RulesSource   string
}

// Build creates the engine. The policy comes from the config file, is
// replaced by the rule-set file's policy block when it has one, and then
// overrides are applied.
func Build(cfg *config.Config, ov Overrides, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	rulesFile := cfg.Pricing.RulesFile
	if ov.RulesFile != nil {
		rulesFile = *ov.RulesFile
	}

	a := &App{
		Policy:        cfg.Policy(),
		DefaultMarket: cfg.Pricing.DefaultMarket,
		RulesSource:   BuiltinSource,
	}

	var provider market.Provider
	if rulesFile == "" {
		a.Registry = rules.Builtins()
		provider = market.Dispatch{}
	} else {
		set, err := hcl.Load(rulesFile)
		if err != nil {
			return nil, err
		}
		a.Registry = set.Registry
		a.Markets = set.Markets
		a.RulesSource = rulesFile
		if set.HasPolicy {
			a.Policy = set.Policy
		}
		if set.Markets != nil {
			a.DefaultMarket = set.Markets.Fallback()
		}
		provider = set.Provider
		logger.Debug("loaded rule set",
			zap.String("file", rulesFile),
			zap.Strings("rules", set.Registry.Keys()),
		)
	}

	if ov.MaxDiscountRate != nil {
		a.Policy = a.Policy.CapRate(*ov.MaxDiscountRate)
	}
	if ov.OnlyBestOne != nil {
		a.Policy.OnlyBestOne = *ov.OnlyBestOne
	}
	if ov.ExclusiveGroups != nil {
		a.Policy.ExclusiveGroups = append([]string(nil), ov.ExclusiveGroups...)
	}

	eng, err := engine.New(provider, a.Policy,
		engine.WithLogger(logger.Named("engine")),
		engine.WithPipeline(pipeline.Default()...),
	)
	if err != nil {
		return nil, err
	}
	a.Engine = eng
	return a, nil
}
