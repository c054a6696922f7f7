// Package engine provides the pricing engine: the discount aggregator and
// the facade that computes a subtotal, resolves rules and aggregates.
// CLI and HTTP are thin wrappers around this engine.
package engine

import (
	"go.uber.org/zap"

	"discount-engine/core/market"
	"discount-engine/core/pipeline"
	"discount-engine/core/rules"
	"discount-engine/core/types"
	"discount-engine/internal/errors"
)

// Engine prices purchases. It is immutable after New and safe for
// concurrent use as long as its provider is.
type Engine struct {
	provider market.Provider
	policy   types.Policy
	steps    []pipeline.Step
	logger   *zap.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger used for debug output
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPipeline sets the validation steps Quote runs before pricing
func WithPipeline(steps ...pipeline.Step) Option {
	return func(e *Engine) {
		e.steps = append([]pipeline.Step(nil), steps...)
	}
}

// New creates an engine. The policy is validated once here.
func New(provider market.Provider, policy types.Policy, opts ...Option) (*Engine, error) {
	if provider == nil {
		return nil, errors.New(errors.TypeConfig, "rule provider is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	policy.ExclusiveGroups = append([]string(nil), policy.ExclusiveGroups...)

	e := &Engine{
		provider: provider,
		policy:   policy,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Policy returns the engine's aggregation policy
func (e *Engine) Policy() types.Policy {
	p := e.policy
	p.ExclusiveGroups = append([]string(nil), p.ExclusiveGroups...)
	return p
}

// Price computes the result for ctx. A non-positive unit price or quantity,
// or a subtotal that overflows Money, yields a zero result with no discounts.
func (e *Engine) Price(ctx types.PricingContext) types.Result {
	if !ctx.IsPriceable() {
		return types.ZeroResult()
	}
	res, _ := e.price(ctx, e.provider.RulesFor(ctx))
	return res
}

// Quote runs the validation pipeline and then prices the rewritten context.
// A halted pipeline yields a zero result.
func (e *Engine) Quote(ctx types.PricingContext) types.Quote {
	state := pipeline.Run(ctx, e.steps...)
	if state.Halted {
		e.logger.Debug("pricing halted by pipeline", zap.Strings("trail", state.Trail))
		return types.Quote{Result: types.ZeroResult(), Trail: state.Trail, Halted: true}
	}

	ctx = state.Context
	if !ctx.IsPriceable() {
		return types.Quote{Result: types.ZeroResult(), Trail: state.Trail}
	}
	rs := e.provider.RulesFor(ctx)
	trail := append(append([]string(nil), state.Trail...), rules.Names(rs)...)
	res, b := e.price(ctx, rs)
	return types.Quote{Result: res, Trail: trail, RawDiscount: b.raw, Capped: b.scaled}
}

func (e *Engine) price(ctx types.PricingContext, rs []rules.Rule) (types.Result, breakdown) {
	subtotal := ctx.Subtotal()
	candidates := rules.Evaluate(ctx, rs)
	res, b := aggregate(subtotal, candidates, e.policy)

	if ce := e.logger.Check(zap.DebugLevel, "priced"); ce != nil {
		ce.Write(
			zap.String("market", ctx.Market.String()),
			zap.Int64("subtotal", subtotal),
			zap.Strings("rules", rules.Names(rs)),
			zap.Int("candidates", b.candidates),
			zap.Int("survivors", b.survivors),
			zap.Int64("raw_discount", b.raw),
			zap.Bool("cap_configured", b.capped),
			zap.Int64("cap", b.cap),
			zap.Int64("effective_discount", b.effective),
			zap.Bool("redistributed", b.scaled),
			zap.Int64("total", res.Total),
		)
	}
	return res, b
}
