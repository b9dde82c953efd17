package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTogglePaymentDetails(t *testing.T) {
	draft := DraftTransaction{}

	if !draft.TogglePaymentDetails() {
		t.Fatal("first toggle should attach the group")
	}
	if draft.PaymentDetails == nil {
		t.Fatal("payment details missing after toggle on")
	}
	if *draft.PaymentDetails != (OptionalPaymentDetails{}) {
		t.Error("group should be initialized empty")
	}

	draft.PaymentDetails.AccountNumber = "ACC-1"
	if draft.TogglePaymentDetails() {
		t.Fatal("second toggle should remove the group")
	}
	if draft.PaymentDetails != nil {
		t.Error("payment details present after toggle off")
	}

	// Toggling back on starts from a clean group, not the old values
	draft.TogglePaymentDetails()
	if draft.PaymentDetails.AccountNumber != "" {
		t.Error("re-attached group should not carry prior values")
	}
}

func TestDateValueUnmarshal(t *testing.T) {
	var v DateValue
	if err := json.Unmarshal([]byte(`"2024-06-10"`), &v); err != nil {
		t.Fatalf("unmarshal ISO date: %v", err)
	}
	got, ok := v.Time()
	if !ok {
		t.Fatal("ISO date should parse as structured")
	}
	want := time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Time() = %v, want %v", got, want)
	}

	// A non-ISO string is kept verbatim as a pre-formatted date
	var raw DateValue
	if err := json.Unmarshal([]byte(`"10 June 2024"`), &raw); err != nil {
		t.Fatalf("unmarshal formatted date: %v", err)
	}
	if _, ok := raw.Time(); ok {
		t.Error("formatted string should not be structured")
	}
	s, ok := raw.Raw()
	if !ok || s != "10 June 2024" {
		t.Errorf("Raw() = %q, %v", s, ok)
	}

	var empty DateValue
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil {
		t.Fatalf("unmarshal empty string: %v", err)
	}
	if empty.IsSet() {
		t.Error("empty string should leave the value unset")
	}
}

func TestDateValueMarshal(t *testing.T) {
	tests := []struct {
		name  string
		value DateValue
		want  string
	}{
		{name: "structured", value: NewDate(time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)), want: `"2024-06-10"`},
		{name: "pre-formatted", value: NewDateString("10 June 2024"), want: `"10 June 2024"`},
		{name: "unset", value: DateValue{}, want: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(b) != tt.want {
				t.Errorf("marshal = %s, want %s", b, tt.want)
			}
		})
	}
}

func TestAmountValueUnmarshal(t *testing.T) {
	var fromNumber AmountValue
	if err := json.Unmarshal([]byte(`500.5`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if !fromNumber.IsSet() || !fromNumber.Decimal().Equal(decimal.RequireFromString("500.5")) {
		t.Errorf("number parse = %s", fromNumber)
	}

	// Form inputs deliver amounts as strings; both forms must be accepted
	var fromString AmountValue
	if err := json.Unmarshal([]byte(`"500.5"`), &fromString); err != nil {
		t.Fatalf("unmarshal string: %v", err)
	}
	if !fromString.Decimal().Equal(fromNumber.Decimal()) {
		t.Errorf("string parse = %s, want %s", fromString, fromNumber)
	}

	var bad AmountValue
	err := json.Unmarshal([]byte(`"12abc"`), &bad)
	if !errors.Is(err, ErrAmountNotNumeric) {
		t.Errorf("non-numeric string error = %v, want %v", err, ErrAmountNotNumeric)
	}

	var unset AmountValue
	if err := json.Unmarshal([]byte(`null`), &unset); err != nil {
		t.Fatalf("unmarshal null: %v", err)
	}
	if unset.IsSet() {
		t.Error("null should leave the value unset")
	}
}

func TestAmountValueMarshal(t *testing.T) {
	b, err := json.Marshal(NewAmount(decimal.RequireFromString("940.00")))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Always a bare JSON number, never a quoted string
	if string(b) != "940.00" {
		t.Errorf("marshal = %s, want 940.00", b)
	}

	b, err = json.Marshal(AmountValue{})
	if err != nil {
		t.Fatalf("marshal unset: %v", err)
	}
	if string(b) != "null" {
		t.Errorf("marshal unset = %s, want null", b)
	}
}

func TestParseAmount(t *testing.T) {
	got, err := ParseAmount("  1250.75 ")
	if err != nil {
		t.Fatalf("ParseAmount: %v", err)
	}
	if !got.Decimal().Equal(decimal.RequireFromString("1250.75")) {
		t.Errorf("ParseAmount = %s", got)
	}

	empty, err := ParseAmount("")
	if err != nil {
		t.Fatalf("ParseAmount empty: %v", err)
	}
	if empty.IsSet() {
		t.Error("empty input should be unset, not zero")
	}

	if _, err := ParseAmount("not-a-number"); !errors.Is(err, ErrAmountNotNumeric) {
		t.Errorf("error = %v, want %v", err, ErrAmountNotNumeric)
	}
}

func TestCurrencyMinorUnitPlaces(t *testing.T) {
	if got := (Currency{}).MinorUnitPlaces(); got != 2 {
		t.Errorf("unpopulated currency places = %d, want 2", got)
	}
	if got := (Currency{Code: "JPY", DecimalPlaces: 0}).MinorUnitPlaces(); got != 0 {
		t.Errorf("JPY places = %d, want 0", got)
	}
	if got := (Currency{Code: "KWD", DecimalPlaces: 3}).MinorUnitPlaces(); got != 3 {
		t.Errorf("KWD places = %d, want 3", got)
	}
}
