package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func pct(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRebatePolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  RebatePolicy
		wantErr error
	}{
		{name: "valid bounded", policy: RebatePolicy{DaysFrom: 0, DaysTo: 180, RebatePercentage: pct("6")}},
		{name: "valid open ended", policy: RebatePolicy{DaysFrom: 181, DaysTo: OpenEndedDays, RebatePercentage: pct("12")}},
		{name: "negative days from", policy: RebatePolicy{DaysFrom: -1, DaysTo: 10, RebatePercentage: pct("5")}, wantErr: ErrPolicyRangeInvalid},
		{name: "inverted range", policy: RebatePolicy{DaysFrom: 100, DaysTo: 50, RebatePercentage: pct("5")}, wantErr: ErrPolicyRangeInvalid},
		{name: "negative percent", policy: RebatePolicy{DaysFrom: 0, DaysTo: 10, RebatePercentage: pct("-1")}, wantErr: ErrPolicyPercentInvalid},
		{name: "percent above hundred", policy: RebatePolicy{DaysFrom: 0, DaysTo: 10, RebatePercentage: pct("100.5")}, wantErr: ErrPolicyPercentInvalid},
		{name: "hundred percent allowed", policy: RebatePolicy{DaysFrom: 0, DaysTo: 10, RebatePercentage: pct("100")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateRebatePolicies(t *testing.T) {
	tests := []struct {
		name     string
		policies []RebatePolicy
		wantErr  error
	}{
		{
			name: "disjoint tiers",
			policies: []RebatePolicy{
				{DaysFrom: 0, DaysTo: 180, RebatePercentage: pct("6")},
				{DaysFrom: 181, DaysTo: 365, RebatePercentage: pct("9")},
				{DaysFrom: 366, DaysTo: OpenEndedDays, RebatePercentage: pct("12")},
			},
		},
		{
			name: "overlapping bounded tiers",
			policies: []RebatePolicy{
				{DaysFrom: 0, DaysTo: 180, RebatePercentage: pct("6")},
				{DaysFrom: 180, DaysTo: 365, RebatePercentage: pct("9")},
			},
			wantErr: ErrPolicyRangesOverlap,
		},
		{
			name: "open ended tier swallows later range",
			policies: []RebatePolicy{
				{DaysFrom: 0, DaysTo: OpenEndedDays, RebatePercentage: pct("6")},
				{DaysFrom: 10000, DaysTo: 20000, RebatePercentage: pct("9")},
			},
			wantErr: ErrPolicyRangesOverlap,
		},
		{
			name:     "empty set",
			policies: nil,
		},
		{
			name: "invalid member surfaces first",
			policies: []RebatePolicy{
				{DaysFrom: 10, DaysTo: 5, RebatePercentage: pct("6")},
			},
			wantErr: ErrPolicyRangeInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRebatePolicies(tt.policies)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateRebatePolicies() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsOpenEnded(t *testing.T) {
	open := RebatePolicy{DaysFrom: 181, DaysTo: OpenEndedDays}
	if !open.IsOpenEnded() {
		t.Error("expected 9999 upper bound to be open ended")
	}

	bounded := RebatePolicy{DaysFrom: 0, DaysTo: 180}
	if bounded.IsOpenEnded() {
		t.Error("expected bounded policy not to be open ended")
	}
}
