package engine

import (
	"github.com/shopspring/decimal"

	"discount-engine/core/types"
)

// breakdown records the intermediate figures of one aggregation
type breakdown struct {
	candidates int
	survivors  int
	raw        types.Money
	cap        types.Money
	capped     bool // a cap is configured
	effective  types.Money
	scaled     bool
}

// Aggregate combines candidate discounts under policy and returns the
// result. Steps run in a fixed order: exclusive-group filtering, best-one
// selection, raw sum, cap, proportional redistribution, total.
//
// Redistribution floors every line independently, so the scaled lines may
// sum to less than the cap, never more. The shortfall is not redistributed.
//
// Aggregate never fails and never mutates candidates.
func Aggregate(subtotal types.Money, candidates []types.Candidate, policy types.Policy) types.Result {
	res, _ := aggregate(subtotal, candidates, policy)
	return res
}

func aggregate(subtotal types.Money, candidates []types.Candidate, policy types.Policy) (types.Result, breakdown) {
	b := breakdown{candidates: len(candidates)}

	selected := filterExclusive(candidates, policy)
	if policy.OnlyBestOne && len(selected) > 0 {
		selected = []types.Candidate{selected[best(selected)]}
	}
	b.survivors = len(selected)

	b.raw = sum(selected)
	b.effective = b.raw
	if policy.MaxDiscountRate.Valid {
		b.capped = true
		b.cap = types.FloorMul(subtotal, policy.MaxDiscountRate.Decimal)
		if b.cap < b.effective {
			b.effective = b.cap
		}
	}

	discounts := make([]types.Candidate, len(selected))
	if b.raw > 0 && b.effective < b.raw {
		b.scaled = true
		for i, c := range selected {
			discounts[i] = c.WithAmount(scale(c.Amount, b.raw, b.effective))
		}
	} else {
		copy(discounts, selected)
	}

	total := subtotal - sum(discounts)
	if total < 0 {
		total = 0
	}
	return types.Result{Subtotal: subtotal, Discounts: discounts, Total: total}, b
}

// filterExclusive keeps, for each configured exclusive group, only the
// highest-amount candidate; the first one wins ties. Other candidates pass
// through. Input order is preserved.
func filterExclusive(candidates []types.Candidate, policy types.Policy) []types.Candidate {
	if len(policy.ExclusiveGroups) == 0 {
		out := make([]types.Candidate, len(candidates))
		copy(out, candidates)
		return out
	}

	winner := make(map[string]int)
	for i, c := range candidates {
		if !policy.IsExclusive(c.Group) {
			continue
		}
		w, ok := winner[c.Group]
		if !ok || c.Amount > candidates[w].Amount {
			winner[c.Group] = i
		}
	}

	out := make([]types.Candidate, 0, len(candidates))
	for i, c := range candidates {
		if policy.IsExclusive(c.Group) && winner[c.Group] != i {
			continue
		}
		out = append(out, c)
	}
	return out
}

// best returns the index of the first candidate with the maximum amount
func best(candidates []types.Candidate) int {
	idx := 0
	for i, c := range candidates {
		if c.Amount > candidates[idx].Amount {
			idx = i
		}
	}
	return idx
}

func sum(candidates []types.Candidate) types.Money {
	var total types.Money
	for _, c := range candidates {
		total += c.Amount
	}
	return total
}

// scale returns floor(amount / raw × effective) computed exactly as
// floor(amount × effective / raw).
func scale(amount, raw, effective types.Money) types.Money {
	if amount <= 0 || effective <= 0 {
		return 0
	}
	q, _ := decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(effective)).
		QuoRem(decimal.NewFromInt(raw), 0)
	return q.IntPart()
}
