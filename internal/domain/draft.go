package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateValue holds a transaction date that may be either a structured date or
// a pre-formatted string left over from an earlier string-valued population.
// Downstream formatting must tolerate both.
type DateValue struct {
	t   time.Time
	raw string
	set bool
}

// NewDate creates a DateValue from a structured date.
func NewDate(t time.Time) DateValue {
	return DateValue{t: t, set: true}
}

// NewDateString creates a DateValue from an already-formatted date string.
func NewDateString(s string) DateValue {
	return DateValue{raw: s, set: true}
}

func (v DateValue) IsSet() bool {
	return v.set
}

// Time returns the structured date, if this value holds one.
func (v DateValue) Time() (time.Time, bool) {
	if v.set && !v.t.IsZero() {
		return v.t, true
	}
	return time.Time{}, false
}

// Raw returns the pre-formatted string, if this value holds one.
func (v DateValue) Raw() (string, bool) {
	if v.set && v.t.IsZero() {
		return v.raw, true
	}
	return "", false
}

var dateLayouts = []string{"2006-01-02", time.RFC3339}

// UnmarshalJSON accepts an ISO date, an RFC 3339 timestamp, or any other
// string, which is kept verbatim as a pre-formatted date.
func (v *DateValue) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*v = DateValue{}
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*v = NewDate(t)
			return nil
		}
	}
	*v = NewDateString(s)
	return nil
}

func (v DateValue) MarshalJSON() ([]byte, error) {
	if !v.set {
		return []byte("null"), nil
	}
	if t, ok := v.Time(); ok {
		return json.Marshal(t.Format("2006-01-02"))
	}
	return json.Marshal(v.raw)
}

// AmountValue holds a monetary amount that may arrive from form input as
// either a JSON number or a numeric-looking string. Unset is distinct from
// zero.
type AmountValue struct {
	d   decimal.Decimal
	set bool
}

// NewAmount creates a set AmountValue.
func NewAmount(d decimal.Decimal) AmountValue {
	return AmountValue{d: d, set: true}
}

// ParseAmount coerces a numeric-looking string into an AmountValue.
func ParseAmount(s string) (AmountValue, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return AmountValue{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return AmountValue{}, ErrAmountNotNumeric
	}
	return NewAmount(d), nil
}

func (a AmountValue) IsSet() bool {
	return a.set
}

func (a AmountValue) Decimal() decimal.Decimal {
	return a.d
}

func (a AmountValue) String() string {
	if !a.set {
		return ""
	}
	return a.d.String()
}

// UnmarshalJSON accepts a number or a quoted numeric string.
func (a *AmountValue) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		*a = AmountValue{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var raw string
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		parsed, err := ParseAmount(raw)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return ErrAmountNotNumeric
	}
	*a = NewAmount(d)
	return nil
}

func (a AmountValue) MarshalJSON() ([]byte, error) {
	if !a.set {
		return []byte("null"), nil
	}
	return []byte(a.d.String()), nil
}

// OptionalPaymentDetails is a bounded group of payment-detail fields that is
// present as a unit or absent as a unit. TogglePaymentDetails is its only
// mutator.
type OptionalPaymentDetails struct {
	AccountNumber string `json:"accountNumber"`
	CheckNumber   string `json:"checkNumber"`
	RoutingCode   string `json:"routingCode"`
	ReceiptNumber string `json:"receiptNumber"`
	BankNumber    string `json:"bankNumber"`
}

// DraftTransaction is the mutable working state of one prepayment session.
// It is owned by the session's reconciler and discarded on submission or
// cancellation.
type DraftTransaction struct {
	TransactionDate   DateValue               `json:"transactionDate"`
	TransactionAmount AmountValue             `json:"transactionAmount"`
	PrincipalPortion  decimal.Decimal         `json:"principalPortion"`
	InterestPortion   decimal.Decimal         `json:"interestPortion"`
	Currency          Currency                `json:"currency"`
	ExternalID        *string                 `json:"externalId,omitempty"`
	PaymentTypeID     *int64                  `json:"paymentTypeId,omitempty"`
	Note              *string                 `json:"note,omitempty"`
	RebatePercentage  *decimal.Decimal        `json:"rebatePercentage,omitempty"`
	PaymentDetails    *OptionalPaymentDetails `json:"paymentDetails,omitempty"`
}

// TogglePaymentDetails attaches the whole payment-detail group initialized
// empty, or removes it entirely. Returns true when the group is present after
// the toggle.
func (d *DraftTransaction) TogglePaymentDetails() bool {
	if d.PaymentDetails == nil {
		d.PaymentDetails = &OptionalPaymentDetails{}
		return true
	}
	d.PaymentDetails = nil
	return false
}
