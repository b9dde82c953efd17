package service

import (
	"context"
	"time"

	"github.com/finara/prepay-backend/internal/domain"
	"github.com/finara/prepay-backend/internal/util"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// BuildTransactionRequest normalizes a draft into the outbound transaction
// request. It is pure construction: no transport, no mutation of the draft.
// The transaction date may be structured or a pre-formatted string; a
// structured date is rendered in dateFormat, a string passes through
// unchanged.
func BuildTransactionRequest(draft domain.DraftTransaction, dateFormat, locale string) (*domain.OutboundTransactionRequest, error) {
	if !draft.TransactionDate.IsSet() {
		return nil, &domain.ValidationError{Field: "transactionDate"}
	}
	if !draft.TransactionAmount.IsSet() {
		return nil, &domain.ValidationError{Field: "transactionAmount"}
	}
	if draft.RebatePercentage == nil {
		return nil, &domain.ValidationError{Field: "rebatePercentage"}
	}

	var transactionDate string
	if t, ok := draft.TransactionDate.Time(); ok {
		rendered, err := util.FormatDate(t, dateFormat)
		if err != nil {
			return nil, &domain.FormatError{Pattern: dateFormat, Err: err}
		}
		transactionDate = rendered
	} else {
		transactionDate, _ = draft.TransactionDate.Raw()
	}

	// The outbound schema demands a genuine number, never a numeric string
	req := &domain.OutboundTransactionRequest{
		TransactionDate:   transactionDate,
		TransactionAmount: draft.TransactionAmount.Decimal().InexactFloat64(),
		RebatePercentage:  draft.RebatePercentage.InexactFloat64(),
		DateFormat:        dateFormat,
		Locale:            locale,
		ExternalID:        draft.ExternalID,
		PaymentTypeID:     draft.PaymentTypeID,
		Note:              draft.Note,
	}

	if pd := draft.PaymentDetails; pd != nil {
		req.AccountNumber = &pd.AccountNumber
		req.CheckNumber = &pd.CheckNumber
		req.RoutingCode = &pd.RoutingCode
		req.ReceiptNumber = &pd.ReceiptNumber
		req.BankNumber = &pd.BankNumber
	}

	return req, nil
}

// SubmissionService sends built requests to the loan-servicing backend and
// records each attempt in the submission log.
type SubmissionService struct {
	submitter domain.TransactionSubmitter
	logRepo   domain.SubmissionLogRepository
	logger    zerolog.Logger
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(submitter domain.TransactionSubmitter, logRepo domain.SubmissionLogRepository, logger zerolog.Logger) *SubmissionService {
	return &SubmissionService{
		submitter: submitter,
		logRepo:   logRepo,
		logger:    logger.With().Str("component", "submission_service").Logger(),
	}
}

// Submit sends the request once, stamped with a client-generated idempotency
// key. The input request is not mutated; submission works on a copy. A
// backend rejection is returned as SubmissionError so the caller can keep the
// session alive for correction and resubmission.
func (s *SubmissionService) Submit(ctx context.Context, loanID string, req *domain.OutboundTransactionRequest) (*domain.SubmissionResult, error) {
	if loanID == "" {
		return nil, domain.ErrLoanIDRequired
	}

	submission := *req
	submission.IdempotencyKey = uuid.New().String()

	result, err := s.submitter.SubmitTransaction(ctx, loanID, &submission, domain.ActionKindRepayment)
	if err != nil {
		s.record(ctx, loanID, &submission, domain.SubmissionStatusRejected, err)
		return nil, err
	}

	s.record(ctx, loanID, &submission, domain.SubmissionStatusAccepted, nil)
	s.logger.Info().
		Str("loan_id", loanID).
		Str("transaction_id", result.TransactionID).
		Float64("amount", submission.TransactionAmount).
		Msg("Prepayment transaction submitted")
	return result, nil
}

// record is best-effort: a log write failure must not mask the submission
// outcome.
func (s *SubmissionService) record(ctx context.Context, loanID string, req *domain.OutboundTransactionRequest, status string, cause error) {
	if s.logRepo == nil {
		return
	}

	entry := &domain.SubmissionLogEntry{
		ID:        req.IdempotencyKey,
		LoanID:    loanID,
		Amount:    decimal.NewFromFloat(req.TransactionAmount),
		ValueDate: req.TransactionDate,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}
	if cause != nil {
		detail := cause.Error()
		entry.Detail = &detail
	}

	if err := s.logRepo.Record(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("loan_id", loanID).Msg("Failed to record submission attempt")
	}
}
