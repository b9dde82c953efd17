package handler

import (
	"errors"
	"net/http"

	"github.com/finara/prepay-backend/internal/domain"
	"github.com/finara/prepay-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// PrepayHandler handles prepayment-session HTTP requests
type PrepayHandler struct {
	sessions *service.PrepaymentSessionService
}

// NewPrepayHandler creates a new PrepayHandler
func NewPrepayHandler(sessions *service.PrepaymentSessionService) *PrepayHandler {
	return &PrepayHandler{sessions: sessions}
}

// RebateOptionResponse represents a selectable rebate option in API responses
type RebateOptionResponse struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// PaymentTypeResponse represents a payment type option in API responses
type PaymentTypeResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DraftResponse represents the draft transaction in API responses
type DraftResponse struct {
	TransactionDate   *string                        `json:"transactionDate,omitempty"`
	TransactionAmount string                         `json:"transactionAmount"`
	PrincipalPortion  string                         `json:"principalPortion"`
	InterestPortion   string                         `json:"interestPortion"`
	CurrencyCode      string                         `json:"currencyCode,omitempty"`
	ExternalID        *string                        `json:"externalId,omitempty"`
	PaymentTypeID     *int64                         `json:"paymentTypeId,omitempty"`
	Note              *string                        `json:"note,omitempty"`
	RebatePercentage  *string                        `json:"rebatePercentage,omitempty"`
	PaymentDetails    *domain.OptionalPaymentDetails `json:"paymentDetails,omitempty"`
}

// SessionResponse represents a prepayment session in API responses
type SessionResponse struct {
	ID                 string                 `json:"id"`
	LoanID             string                 `json:"loanId"`
	RebateOptions      []RebateOptionResponse `json:"rebateOptions"`
	PaymentTypeOptions []PaymentTypeResponse  `json:"paymentTypeOptions"`
	Draft              DraftResponse          `json:"draft"`
	CreatedAt          string                 `json:"createdAt"`
}

// ChangeDateRequest represents the change transaction date request body
type ChangeDateRequest struct {
	TransactionDate domain.DateValue `json:"transactionDate"`
}

// ApplyRebateRequest represents the apply rebate request body
type ApplyRebateRequest struct {
	RebatePercentage decimal.Decimal `json:"rebatePercentage"`
}

// UpdateDraftRequest represents the draft field update request body
type UpdateDraftRequest struct {
	ExternalID       *string                        `json:"externalId"`
	PaymentTypeID    *int64                         `json:"paymentTypeId"`
	Note             *string                        `json:"note"`
	RebatePercentage *decimal.Decimal               `json:"rebatePercentage"`
	PaymentDetails   *domain.OptionalPaymentDetails `json:"paymentDetails"`
}

// SubmissionResponse represents the backend acknowledgement in API responses
type SubmissionResponse struct {
	TransactionID string `json:"transactionId"`
	LoanID        string `json:"loanId"`
	SubmittedAt   string `json:"submittedAt"`
}

// StartSession handles POST /api/v1/loans/:loanId/prepayment-sessions
func (h *PrepayHandler) StartSession(c echo.Context) error {
	loanID := c.Param("loanId")

	view, err := h.sessions.Start(c.Request().Context(), loanID)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toSessionResponse(view))
}

// GetSession handles GET /api/v1/prepayment-sessions/:sessionId
func (h *PrepayHandler) GetSession(c echo.Context) error {
	view, err := h.sessions.Get(c.Param("sessionId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(view))
}

// ChangeTransactionDate handles PUT /api/v1/prepayment-sessions/:sessionId/transaction-date
func (h *PrepayHandler) ChangeTransactionDate(c echo.Context) error {
	var req ChangeDateRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	newDate, ok := req.TransactionDate.Time()
	if !ok {
		return NewValidationError(c, "transactionDate must be a date", []ValidationError{
			{Field: "transactionDate", Message: "must be an ISO date"},
		})
	}

	view, err := h.sessions.ChangeTransactionDate(c.Request().Context(), c.Param("sessionId"), newDate)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(view))
}

// ApplyRebate handles POST /api/v1/prepayment-sessions/:sessionId/rebate
func (h *PrepayHandler) ApplyRebate(c echo.Context) error {
	var req ApplyRebateRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	view, err := h.sessions.ApplyRebate(c.Param("sessionId"), req.RebatePercentage)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(view))
}

// TogglePaymentDetails handles POST /api/v1/prepayment-sessions/:sessionId/payment-details/toggle
func (h *PrepayHandler) TogglePaymentDetails(c echo.Context) error {
	view, err := h.sessions.TogglePaymentDetails(c.Param("sessionId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(view))
}

// UpdateDraft handles PATCH /api/v1/prepayment-sessions/:sessionId
func (h *PrepayHandler) UpdateDraft(c echo.Context) error {
	var req UpdateDraftRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	view, err := h.sessions.UpdateDraft(c.Param("sessionId"), service.UpdateDraftInput{
		ExternalID:       req.ExternalID,
		PaymentTypeID:    req.PaymentTypeID,
		Note:             req.Note,
		RebatePercentage: req.RebatePercentage,
		PaymentDetails:   req.PaymentDetails,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, toSessionResponse(view))
}

// Submit handles POST /api/v1/prepayment-sessions/:sessionId/submit
func (h *PrepayHandler) Submit(c echo.Context) error {
	result, err := h.sessions.Submit(c.Request().Context(), c.Param("sessionId"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, SubmissionResponse{
		TransactionID: result.TransactionID,
		LoanID:        result.LoanID,
		SubmittedAt:   result.SubmittedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// CancelSession handles DELETE /api/v1/prepayment-sessions/:sessionId
func (h *PrepayHandler) CancelSession(c echo.Context) error {
	if err := h.sessions.Cancel(c.Param("sessionId")); err != nil {
		return h.respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// respondError maps domain errors to problem responses
func (h *PrepayHandler) respondError(c echo.Context, err error) error {
	var vErr *domain.ValidationError
	if errors.As(err, &vErr) {
		return NewValidationError(c, vErr.Error(), []ValidationError{
			{Field: vErr.Field, Message: "required"},
		})
	}

	var fErr *domain.FormatError
	if errors.As(err, &fErr) {
		return NewValidationError(c, fErr.Error(), nil)
	}

	var qErr *domain.QuoteFetchError
	if errors.As(err, &qErr) {
		// Draft keeps its last good amount; the client may retry the date change
		return NewUpstreamError(c, "Could not refresh the payoff quote; the previous amount was kept")
	}

	var sErr *domain.SubmissionError
	if errors.As(err, &sErr) {
		// Backend rejection is surfaced verbatim; the session stays open
		return NewUpstreamError(c, sErr.Detail)
	}

	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return NewNotFoundError(c, "Prepayment session not found")
	case errors.Is(err, domain.ErrLoanIDRequired),
		errors.Is(err, domain.ErrRebateNotSelectable),
		errors.Is(err, domain.ErrRebateOutOfRange),
		errors.Is(err, domain.ErrPaymentTypeUnknown),
		errors.Is(err, domain.ErrPaymentDetailsAbsent),
		errors.Is(err, domain.ErrPolicyRangeInvalid),
		errors.Is(err, domain.ErrPolicyPercentInvalid),
		errors.Is(err, domain.ErrPolicyRangesOverlap):
		return NewValidationError(c, err.Error(), nil)
	}

	log.Error().Err(err).Str("path", c.Request().URL.Path).Msg("Unhandled prepayment error")
	return NewInternalError(c, "Unexpected error")
}

func toSessionResponse(view *service.SessionView) SessionResponse {
	resp := SessionResponse{
		ID:                 view.ID,
		LoanID:             view.LoanID,
		RebateOptions:      make([]RebateOptionResponse, len(view.RebateOptions)),
		PaymentTypeOptions: make([]PaymentTypeResponse, len(view.PaymentTypeOptions)),
		Draft:              toDraftResponse(view.Draft),
		CreatedAt:          view.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	for i, opt := range view.RebateOptions {
		resp.RebateOptions[i] = RebateOptionResponse{Value: opt.Value.String(), Label: opt.Label}
	}
	for i, pt := range view.PaymentTypeOptions {
		resp.PaymentTypeOptions[i] = PaymentTypeResponse{ID: pt.ID, Name: pt.Name}
	}
	return resp
}

func toDraftResponse(draft domain.DraftTransaction) DraftResponse {
	resp := DraftResponse{
		TransactionAmount: draft.TransactionAmount.String(),
		PrincipalPortion:  draft.PrincipalPortion.String(),
		InterestPortion:   draft.InterestPortion.String(),
		CurrencyCode:      draft.Currency.Code,
		ExternalID:        draft.ExternalID,
		PaymentTypeID:     draft.PaymentTypeID,
		Note:              draft.Note,
		PaymentDetails:    draft.PaymentDetails,
	}
	if t, ok := draft.TransactionDate.Time(); ok {
		rendered := t.Format("2006-01-02")
		resp.TransactionDate = &rendered
	} else if raw, ok := draft.TransactionDate.Raw(); ok {
		resp.TransactionDate = &raw
	}
	if draft.RebatePercentage != nil {
		pct := draft.RebatePercentage.String()
		resp.RebatePercentage = &pct
	}
	return resp
}
