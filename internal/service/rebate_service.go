package service

import (
	"fmt"

	"github.com/finara/prepay-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// RebateOptions projects rebate policies into display-ready, selectable
// options. Order-preserving and pure; an empty or nil policy list yields an
// empty option list, never an error.
func RebateOptions(policies []domain.RebatePolicy) []domain.RebateOption {
	options := make([]domain.RebateOption, len(policies))
	for i, policy := range policies {
		label := fmt.Sprintf("%d-%d days (%s%%)", policy.DaysFrom, policy.DaysTo, policy.RebatePercentage.String())
		if policy.IsOpenEnded() {
			// The 9999 sentinel must never leak into the label
			label = fmt.Sprintf("Above %d days (%s%%)", policy.DaysFrom, policy.RebatePercentage.String())
		}
		options[i] = domain.RebateOption{
			// Shift keeps the percentage-to-fraction scaling exact
			Value: policy.RebatePercentage.Shift(-2),
			Label: label,
		}
	}
	return options
}

// SelectableRebate reports whether pct matches the value of one of the
// catalog's options.
func SelectableRebate(options []domain.RebateOption, pct decimal.Decimal) bool {
	for _, opt := range options {
		if opt.Value.Equal(pct) {
			return true
		}
	}
	return false
}
