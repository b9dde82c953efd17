package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// OpenEndedDays is the sentinel upper bound marking a rebate policy's top tier
// as unbounded. It must never surface in a displayed label.
const OpenEndedDays = 9999

// RebatePolicy is a day-range-keyed discount on accrued interest for early
// settlement. Policies are supplied once per loan context and immutable
// afterwards.
type RebatePolicy struct {
	DaysFrom         int32           `json:"daysFrom"`
	DaysTo           int32           `json:"daysTo"`
	RebatePercentage decimal.Decimal `json:"rebatePercentage"`
}

// IsOpenEnded returns true if the policy has no upper day bound.
func (p *RebatePolicy) IsOpenEnded() bool {
	return p.DaysTo == OpenEndedDays
}

func (p *RebatePolicy) Validate() error {
	if p.DaysFrom < 0 {
		return ErrPolicyRangeInvalid
	}
	if !p.IsOpenEnded() && p.DaysTo < p.DaysFrom {
		return ErrPolicyRangeInvalid
	}
	if p.RebatePercentage.IsNegative() || p.RebatePercentage.GreaterThan(decimal.NewFromInt(100)) {
		return ErrPolicyPercentInvalid
	}
	return nil
}

// ValidateRebatePolicies checks each policy and that the day ranges are
// disjoint when read as a set.
func ValidateRebatePolicies(policies []RebatePolicy) error {
	for i := range policies {
		if err := policies[i].Validate(); err != nil {
			return err
		}
	}
	for i := range policies {
		for j := i + 1; j < len(policies); j++ {
			if rangesOverlap(&policies[i], &policies[j]) {
				return ErrPolicyRangesOverlap
			}
		}
	}
	return nil
}

func rangesOverlap(a, b *RebatePolicy) bool {
	aTo := a.DaysTo
	if a.IsOpenEnded() {
		aTo = math.MaxInt32
	}
	bTo := b.DaysTo
	if b.IsOpenEnded() {
		bTo = math.MaxInt32
	}
	return a.DaysFrom <= bTo && b.DaysFrom <= aTo
}

// RebateOption is the display-ready projection of a RebatePolicy. Value is the
// percentage scaled to a fraction (6% -> 0.06).
type RebateOption struct {
	Value decimal.Decimal `json:"value"`
	Label string          `json:"label"`
}
