package domain

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrSessionNotFound      = errors.New("prepayment session not found")
	ErrLoanIDRequired       = errors.New("loan id is required")
	ErrRebateNotSelectable  = errors.New("rebate percentage does not match any rebate option")
	ErrRebateOutOfRange     = errors.New("rebate percentage must be between 0 and 1")
	ErrPaymentDetailsAbsent = errors.New("payment details are not enabled for this draft")
	ErrPaymentTypeUnknown   = errors.New("payment type is not in the payment-type catalog")
	ErrPolicyRangeInvalid   = errors.New("rebate policy day range is invalid")
	ErrPolicyPercentInvalid = errors.New("rebate percentage must be between 0 and 100")
	ErrPolicyRangesOverlap  = errors.New("rebate policy day ranges overlap")
	ErrAmountNotNumeric     = errors.New("transaction amount is not a valid number")
	ErrQuoteAmountMissing   = errors.New("quote has no amount")
)

// ValidationError reports a required draft field that is missing at build time.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

// FormatError reports a transaction date that cannot be rendered in the
// configured date format.
type FormatError struct {
	Pattern string
	Err     error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cannot render date in format %q: %v", e.Pattern, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// QuoteFetchError reports a transient failure while refreshing the payoff
// quote. The draft keeps its last good amount when this is returned.
type QuoteFetchError struct {
	LoanID string
	Err    error
}

func (e *QuoteFetchError) Error() string {
	return fmt.Sprintf("fetching prepayment quote for loan %s: %v", e.LoanID, e.Err)
}

func (e *QuoteFetchError) Unwrap() error {
	return e.Err
}

// SubmissionError reports a rejection from the loan-servicing backend. The
// session survives it so the user can correct the draft and resubmit.
type SubmissionError struct {
	Status int
	Detail string
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("transaction submission rejected (status %d): %s", e.Status, e.Detail)
}
