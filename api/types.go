package api

import (
	"time"

	"github.com/shopspring/decimal"

	"discount-engine/core/types"
	"discount-engine/internal/errors"
)

// QuoteRequest is the body of POST /quote
type QuoteRequest struct {
	UnitPrice  types.Money    `json:"unit_price" validate:"gte=0,lte=1000000000000"`
	Quantity   int            `json:"quantity" validate:"gte=0,lte=1000000"`
	MemberTier string         `json:"member_tier,omitempty" validate:"omitempty,max=16"`
	Market     string         `json:"market,omitempty" validate:"omitempty,max=16"`
	Coupon     *CouponRequest `json:"coupon,omitempty"`
	Stock      *int           `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Now        *time.Time     `json:"now,omitempty"`
}

// CouponRequest is a coupon presented with a quote request
type CouponRequest struct {
	Kind  string          `json:"kind" validate:"required,max=16"`
	Value decimal.Decimal `json:"value"`
	Code  string          `json:"code,omitempty" validate:"omitempty,max=64"`
}

// QuoteResponse is the body returned by POST /quote
type QuoteResponse struct {
	types.Quote

	// QuoteID identifies this response
	QuoteID string `json:"quote_id"`

	// InputHash is a digest of the normalized input; equal inputs hash equally
	InputHash string `json:"input_hash"`

	// Market is the market whose rules priced the request
	Market types.Market `json:"market"`

	// EngineVersion is the server version
	EngineVersion string `json:"engine_version"`
}

// RulesResponse is the body returned by GET /rules
type RulesResponse struct {
	Registered    []string            `json:"registered"`
	Markets       map[string][]string `json:"markets"`
	DefaultMarket types.Market        `json:"default_market"`
	Policy        types.Policy        `json:"policy"`
}

// ErrorBody is the error envelope payload
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps every error returned by the API
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// HealthResponse is the body returned by GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// VersionResponse is the body returned by GET /version
type VersionResponse struct {
	Version string `json:"version"`
}

// toContext converts the request into a pricing context. Unknown tiers and
// coupon kinds are input errors; unknown markets are kept so the provider
// can fall back.
func (r QuoteRequest) toContext(defaultMarket types.Market) (types.PricingContext, error) {
	tier, ok := types.ParseMemberTier(r.MemberTier)
	if !ok {
		return types.PricingContext{}, errors.Input("unknown member tier").WithContext("member_tier", r.MemberTier)
	}

	m, _ := types.ParseMarket(r.Market)
	if m == "" {
		m = defaultMarket
	}

	ctx := types.PricingContext{
		UnitPrice:  r.UnitPrice,
		Quantity:   r.Quantity,
		MemberTier: tier,
		Market:     m,
		Now:        r.Now,
		Stock:      r.Stock,
	}

	if r.Coupon != nil {
		kind, ok := types.ParseCouponKind(r.Coupon.Kind)
		if !ok {
			return types.PricingContext{}, errors.Input("unknown coupon kind").WithContext("kind", r.Coupon.Kind)
		}
		ctx = ctx.WithCoupon(types.Coupon{Kind: kind, Value: r.Coupon.Value, Code: r.Coupon.Code})
	}
	return ctx, nil
}
