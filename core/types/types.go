// Package types defines core domain types shared across all layers.
// This package contains NO business logic - only type definitions and
// the arithmetic helpers every layer agrees on.
package types

import "strings"

// Money is a currency amount in integer minor units. Fractional currency is
// not modeled.
type Money = int64

// MemberTier classifies a customer for tier-based discounts
type MemberTier string

const (
	TierNew      MemberTier = "NEW"
	TierIron     MemberTier = "IRON"
	TierBronze   MemberTier = "BRONZE"
	TierSilver   MemberTier = "SILVER"
	TierGold     MemberTier = "GOLD"
	TierPlatinum MemberTier = "PLATINUM"
	TierVIP      MemberTier = "VIP"
)

// String returns the string representation of the tier
func (t MemberTier) String() string {
	return string(t)
}

// IsValid checks if the tier is a known tier
func (t MemberTier) IsValid() bool {
	switch t {
	case TierNew, TierIron, TierBronze, TierSilver, TierGold, TierPlatinum, TierVIP:
		return true
	default:
		return false
	}
}

// ParseMemberTier normalizes user input. The empty string is a valid "no tier".
func ParseMemberTier(s string) (MemberTier, bool) {
	t := MemberTier(strings.ToUpper(strings.TrimSpace(s)))
	if t == "" {
		return "", true
	}
	return t, t.IsValid()
}

// Market classifies where a purchase happens; it selects the rule set
type Market string

const (
	MarketKR     Market = "KR"
	MarketGlobal Market = "GLOBAL"
)

// String returns the string representation of the market
func (m Market) String() string {
	return string(m)
}

// IsValid checks if the market is a known market
func (m Market) IsValid() bool {
	switch m {
	case MarketKR, MarketGlobal:
		return true
	default:
		return false
	}
}

// ParseMarket normalizes user input. The empty string is a valid "no market".
func ParseMarket(s string) (Market, bool) {
	m := Market(strings.ToUpper(strings.TrimSpace(s)))
	if m == "" {
		return "", true
	}
	return m, m.IsValid()
}

// CouponKind distinguishes fixed-amount from percentage coupons
type CouponKind string

const (
	CouponFixedAmount CouponKind = "FIXED_AMOUNT"
	CouponPercentage  CouponKind = "PERCENTAGE"
)

// String returns the string representation of the coupon kind
func (k CouponKind) String() string {
	return string(k)
}

// ParseCouponKind accepts the canonical names and the short forms used by
// older clients (AMOUNT, RATE).
func ParseCouponKind(s string) (CouponKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FIXED_AMOUNT", "AMOUNT", "FIXED":
		return CouponFixedAmount, true
	case "PERCENTAGE", "RATE", "PERCENT":
		return CouponPercentage, true
	default:
		return "", false
	}
}

// Well-known exclusivity groups used by the built-in rules
const (
	GroupMembership = "membership"
	GroupCoupon     = "coupon"
	GroupBulk       = "bulk"
)
