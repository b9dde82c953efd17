package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is carried opaquely from the loan-servicing backend; only the
// minor-unit precision is interpreted, for rounding.
type Currency struct {
	Code          string `json:"code"`
	Name          string `json:"name,omitempty"`
	DecimalPlaces int32  `json:"decimalPlaces"`
	DisplaySymbol string `json:"displaySymbol,omitempty"`
}

// MinorUnitPlaces returns the rounding precision for amounts in this
// currency, defaulting to 2 when the currency was never populated.
func (c Currency) MinorUnitPlaces() int32 {
	if c.Code == "" {
		return 2
	}
	return c.DecimalPlaces
}

// PrepaymentQuote is the authoritative, server-computed payoff figure for a
// specific date. A later quote supersedes it wholesale, never field-by-field.
type PrepaymentQuote struct {
	Amount           decimal.Decimal `json:"amount"`
	PrincipalPortion decimal.Decimal `json:"principalPortion"`
	InterestPortion  decimal.Decimal `json:"interestPortion"`
	Currency         Currency        `json:"currency"`
	AsOfDate         time.Time       `json:"asOfDate"`
}

// PaymentTypeOption is reference data from the payment-type catalog.
type PaymentTypeOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PrepayTemplate is the full payload the loan-servicing backend returns for a
// prepayment attempt: the quote plus the catalogs the form needs.
type PrepayTemplate struct {
	Quote              PrepaymentQuote     `json:"quote"`
	RebatePolicies     []RebatePolicy      `json:"rebatePolicies"`
	PaymentTypeOptions []PaymentTypeOption `json:"paymentTypeOptions"`
}

// SubmissionResult is the backend's acknowledgement of a submitted
// transaction.
type SubmissionResult struct {
	TransactionID string    `json:"transactionId"`
	LoanID        string    `json:"loanId"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// Action kinds accepted by the transaction endpoint.
const ActionKindRepayment = "repayment"

// QuoteService fetches the payoff quote for a loan as of a formatted date.
type QuoteService interface {
	FetchQuote(ctx context.Context, loanID string, asOfDate string) (*PrepaymentQuote, error)
}

// PrepayTemplateProvider fetches the prepayment template for a loan.
type PrepayTemplateProvider interface {
	FetchPrepayTemplate(ctx context.Context, loanID string, asOfDate string) (*PrepayTemplate, error)
}

// TransactionSubmitter sends the outbound transaction request to the
// loan-servicing backend.
type TransactionSubmitter interface {
	SubmitTransaction(ctx context.Context, loanID string, req *OutboundTransactionRequest, actionKind string) (*SubmissionResult, error)
}

// QuoteCache caches serialized quotes keyed by loan id and as-of date.
type QuoteCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string) error
}

// SubmissionLogEntry records one submission attempt for auditing.
type SubmissionLogEntry struct {
	ID        string          `json:"id"`
	LoanID    string          `json:"loanId"`
	Amount    decimal.Decimal `json:"amount"`
	ValueDate string          `json:"valueDate"`
	Status    string          `json:"status"`
	Detail    *string         `json:"detail,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Submission log statuses
const (
	SubmissionStatusAccepted = "accepted"
	SubmissionStatusRejected = "rejected"
)

// SubmissionLogRepository persists submission attempts.
type SubmissionLogRepository interface {
	Record(ctx context.Context, entry *SubmissionLogEntry) error
	GetByLoanID(ctx context.Context, loanID string) ([]*SubmissionLogEntry, error)
}
