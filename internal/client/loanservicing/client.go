package loanservicing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/finara/prepay-backend/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Client talks to the loan-servicing backend's loan transaction endpoints.
// It implements domain.QuoteService, domain.PrepayTemplateProvider and
// domain.TransactionSubmitter.
type Client struct {
	baseURL    string
	tenant     string
	dateFormat string
	locale     string
	httpClient *http.Client
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	BaseURL    string
	Tenant     string
	DateFormat string
	Locale     string
	Timeout    time.Duration
}

// NewClient creates a new loan-servicing client.
func NewClient(cfg Config, logger zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		tenant:     cfg.Tenant,
		dateFormat: cfg.DateFormat,
		locale:     cfg.Locale,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With().Str("component", "loanservicing_client").Logger(),
	}
}

// templatePayload is the wire shape of the prepay template response.
type templatePayload struct {
	Amount           decimal.Decimal       `json:"amount"`
	PrincipalPortion decimal.Decimal       `json:"principalPortion"`
	InterestPortion  decimal.Decimal       `json:"interestPortion"`
	Currency         domain.Currency       `json:"currency"`
	RebatePolicies   []domain.RebatePolicy `json:"rebatePolicies"`
	PaymentTypes     []paymentTypePayload  `json:"paymentTypeOptions"`
	Date             []int                 `json:"date"`
}

type paymentTypePayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// submitResponse is the wire shape of a transaction acknowledgement.
type submitResponse struct {
	LoanID     json.Number `json:"loanId"`
	ResourceID json.Number `json:"resourceId"`
}

// FetchPrepayTemplate retrieves the prepayment template for a loan as of the
// given formatted date.
func (c *Client) FetchPrepayTemplate(ctx context.Context, loanID string, asOfDate string) (*domain.PrepayTemplate, error) {
	payload, err := c.fetchTemplate(ctx, loanID, asOfDate)
	if err != nil {
		return nil, err
	}

	template := &domain.PrepayTemplate{
		Quote: quoteFromPayload(payload),
	}
	template.RebatePolicies = payload.RebatePolicies
	for _, pt := range payload.PaymentTypes {
		template.PaymentTypeOptions = append(template.PaymentTypeOptions, domain.PaymentTypeOption{ID: pt.ID, Name: pt.Name})
	}
	return template, nil
}

// FetchQuote retrieves only the payoff quote for a loan as of the given
// formatted date.
func (c *Client) FetchQuote(ctx context.Context, loanID string, asOfDate string) (*domain.PrepaymentQuote, error) {
	payload, err := c.fetchTemplate(ctx, loanID, asOfDate)
	if err != nil {
		return nil, err
	}
	quote := quoteFromPayload(payload)
	return &quote, nil
}

func (c *Client) fetchTemplate(ctx context.Context, loanID string, asOfDate string) (*templatePayload, error) {
	query := url.Values{}
	query.Set("command", "prepayLoan")
	query.Set("transactionDate", asOfDate)
	query.Set("dateFormat", c.dateFormat)
	query.Set("locale", c.locale)

	endpoint := fmt.Sprintf("%s/loans/%s/transactions/template?%s", c.baseURL, url.PathEscape(loanID), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("prepay template request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var payload templatePayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding prepay template: %w", err)
	}
	return &payload, nil
}

// SubmitTransaction posts the outbound request to the loan transaction
// endpoint with the given action kind. Non-2xx responses become
// SubmissionError with the backend's detail preserved verbatim.
func (c *Client) SubmitTransaction(ctx context.Context, loanID string, outbound *domain.OutboundTransactionRequest, actionKind string) (*domain.SubmissionResult, error) {
	body, err := json.Marshal(outbound)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/loans/%s/transactions?command=%s", c.baseURL, url.PathEscape(loanID), url.QueryEscape(actionKind))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	if outbound.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", outbound.IdempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.SubmissionError{Status: resp.StatusCode, Detail: string(detail)}
	}

	var ack submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return nil, fmt.Errorf("decoding submission response: %w", err)
	}

	result := &domain.SubmissionResult{
		TransactionID: ack.ResourceID.String(),
		LoanID:        loanID,
		SubmittedAt:   time.Now().UTC(),
	}
	if result.TransactionID == "" {
		result.TransactionID = outbound.IdempotencyKey
	}

	c.logger.Debug().Str("loan_id", loanID).Str("transaction_id", result.TransactionID).Msg("Transaction accepted by loan servicing")
	return result, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	if c.tenant != "" {
		req.Header.Set("X-Tenant-Identifier", c.tenant)
	}
}

func quoteFromPayload(payload *templatePayload) domain.PrepaymentQuote {
	quote := domain.PrepaymentQuote{
		Amount:           payload.Amount,
		PrincipalPortion: payload.PrincipalPortion,
		InterestPortion:  payload.InterestPortion,
		Currency:         payload.Currency,
	}
	if t, ok := dateFromTriple(payload.Date); ok {
		quote.AsOfDate = t
	}
	return quote
}

// dateFromTriple converts the backend's [year, month, day] date arrays.
func dateFromTriple(parts []int) (time.Time, bool) {
	if len(parts) != 3 {
		return time.Time{}, false
	}
	return time.Date(parts[0], time.Month(parts[1]), parts[2], 0, 0, 0, 0, time.UTC), true
}
