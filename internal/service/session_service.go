package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/finara/prepay-backend/internal/domain"
	"github.com/finara/prepay-backend/internal/util"
	"github.com/finara/prepay-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SessionConfig holds the ambient configuration a prepayment session reads
// but does not own.
type SessionConfig struct {
	DateFormat   string
	Locale       string
	QuoteTimeout time.Duration
	SessionTTL   time.Duration
	BusinessDate func() time.Time
}

// DefaultSessionTTL expires abandoned sessions.
const DefaultSessionTTL = 30 * time.Minute

// prepaymentSession is one in-progress prepayment attempt. Reference data is
// immutable after Start; the draft lives inside the reconciler.
type prepaymentSession struct {
	id            uuid.UUID
	loanID        string
	rebateOptions []domain.RebateOption
	paymentTypes  []domain.PaymentTypeOption
	reconciler    *QuoteReconciler
	createdAt     time.Time

	mu         sync.Mutex
	lastActive time.Time
}

func (s *prepaymentSession) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *prepaymentSession) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// SessionView is the read model returned to callers.
type SessionView struct {
	ID                 string                     `json:"id"`
	LoanID             string                     `json:"loanId"`
	RebateOptions      []domain.RebateOption      `json:"rebateOptions"`
	PaymentTypeOptions []domain.PaymentTypeOption `json:"paymentTypeOptions"`
	Draft              domain.DraftTransaction    `json:"draft"`
	CreatedAt          time.Time                  `json:"createdAt"`
}

// UpdateDraftInput carries optional draft field updates. Nil fields are left
// untouched.
type UpdateDraftInput struct {
	ExternalID       *string
	PaymentTypeID    *int64
	Note             *string
	RebatePercentage *decimal.Decimal
	PaymentDetails   *domain.OptionalPaymentDetails
}

// PrepaymentSessionService owns the in-memory prepayment sessions: one
// logical session per loan-prepayment attempt, no shared mutable state across
// sessions. Drafts are never persisted; they die with the session.
type PrepaymentSessionService struct {
	templates      domain.PrepayTemplateProvider
	quotes         domain.QuoteService
	submission     *SubmissionService
	cfg            SessionConfig
	logger         zerolog.Logger
	eventPublisher websocket.EventPublisher

	mu       sync.RWMutex
	sessions map[uuid.UUID]*prepaymentSession
}

// NewPrepaymentSessionService creates a new PrepaymentSessionService.
func NewPrepaymentSessionService(templates domain.PrepayTemplateProvider, quotes domain.QuoteService, submission *SubmissionService, cfg SessionConfig, logger zerolog.Logger) *PrepaymentSessionService {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.BusinessDate == nil {
		cfg.BusinessDate = func() time.Time { return time.Now().UTC() }
	}
	return &PrepaymentSessionService{
		templates:  templates,
		quotes:     quotes,
		submission: submission,
		cfg:        cfg,
		logger:     logger.With().Str("component", "session_service").Logger(),
		sessions:   make(map[uuid.UUID]*prepaymentSession),
	}
}

// SetEventPublisher sets the event publisher for real-time updates
func (s *PrepaymentSessionService) SetEventPublisher(publisher websocket.EventPublisher) {
	s.eventPublisher = publisher
}

func (s *PrepaymentSessionService) publish(sessionID string, event websocket.Event) {
	if s.eventPublisher != nil {
		s.eventPublisher.Publish(sessionID, event)
	}
}

// sessionNotifier routes reconciler outcomes to the session's websocket
// watchers.
type sessionNotifier struct {
	svc       *PrepaymentSessionService
	sessionID string
}

func (n *sessionNotifier) QuoteUpdated(draft domain.DraftTransaction) {
	n.svc.publish(n.sessionID, websocket.QuoteUpdated(draft))
}

func (n *sessionNotifier) QuoteFailed(err error) {
	n.svc.publish(n.sessionID, websocket.QuoteFailed(map[string]string{"error": err.Error()}))
}

// Start opens a prepayment session for a loan: fetches the prepay template
// as of the business date, validates the rebate policy set, and seeds the
// draft from the initial quote.
func (s *PrepaymentSessionService) Start(ctx context.Context, loanID string) (*SessionView, error) {
	loanID = strings.TrimSpace(loanID)
	if loanID == "" {
		return nil, domain.ErrLoanIDRequired
	}

	businessDate := s.cfg.BusinessDate()
	asOf, err := formatAsOf(businessDate, s.cfg.DateFormat)
	if err != nil {
		return nil, err
	}

	template, err := s.templates.FetchPrepayTemplate(ctx, loanID, asOf)
	if err != nil {
		return nil, &domain.QuoteFetchError{LoanID: loanID, Err: err}
	}
	if err := domain.ValidateRebatePolicies(template.RebatePolicies); err != nil {
		return nil, err
	}

	quote := template.Quote
	if quote.AsOfDate.IsZero() {
		quote.AsOfDate = businessDate
	}

	session := &prepaymentSession{
		id:            uuid.New(),
		loanID:        loanID,
		rebateOptions: RebateOptions(template.RebatePolicies),
		paymentTypes:  template.PaymentTypeOptions,
		createdAt:     time.Now().UTC(),
		lastActive:    time.Now().UTC(),
	}
	session.reconciler = NewQuoteReconciler(
		loanID,
		s.quotes,
		&sessionNotifier{svc: s, sessionID: session.id.String()},
		ReconcilerConfig{DateFormat: s.cfg.DateFormat, FetchTimeout: s.cfg.QuoteTimeout},
		s.logger,
	)
	session.reconciler.Initialize(&quote)

	s.mu.Lock()
	s.sessions[session.id] = session
	s.mu.Unlock()

	s.logger.Info().Str("session_id", session.id.String()).Str("loan_id", loanID).Msg("Prepayment session started")
	return s.view(session), nil
}

// Get returns the current state of a session.
func (s *PrepaymentSessionService) Get(sessionID string) (*SessionView, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// Exists reports whether a session is live. Used by the websocket handler to
// vet subscriptions.
func (s *PrepaymentSessionService) Exists(sessionID string) bool {
	_, err := s.lookup(sessionID)
	return err == nil
}

// ChangeTransactionDate refreshes the quote for the new date. On fetch
// failure the draft keeps its prior amount and the error is surfaced; the
// session is never corrupted.
func (s *PrepaymentSessionService) ChangeTransactionDate(ctx context.Context, sessionID string, newDate time.Time) (*SessionView, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	session.touch(time.Now().UTC())

	_, err = session.reconciler.RefreshForDate(ctx, newDate)
	view := s.view(session)
	if err != nil {
		return view, err
	}
	return view, nil
}

// ApplyRebate deducts the selected rebate locally. The percentage must match
// one of the session's rebate options.
func (s *PrepaymentSessionService) ApplyRebate(sessionID string, pct decimal.Decimal) (*SessionView, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	session.touch(time.Now().UTC())

	if !SelectableRebate(session.rebateOptions, pct) {
		return nil, domain.ErrRebateNotSelectable
	}
	if _, err := session.reconciler.ApplyRebate(pct); err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// TogglePaymentDetails attaches or removes the payment-detail group as one
// unit.
func (s *PrepaymentSessionService) TogglePaymentDetails(sessionID string) (*SessionView, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	session.touch(time.Now().UTC())

	_, err = session.reconciler.UpdateDraft(func(draft *domain.DraftTransaction) error {
		draft.TogglePaymentDetails()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// UpdateDraft applies optional field updates. Empty strings clear a field
// rather than storing an empty-string placeholder.
func (s *PrepaymentSessionService) UpdateDraft(sessionID string, input UpdateDraftInput) (*SessionView, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	session.touch(time.Now().UTC())

	if input.PaymentTypeID != nil && !s.knownPaymentType(session, *input.PaymentTypeID) {
		return nil, domain.ErrPaymentTypeUnknown
	}
	if input.RebatePercentage != nil && !SelectableRebate(session.rebateOptions, *input.RebatePercentage) {
		return nil, domain.ErrRebateNotSelectable
	}

	_, err = session.reconciler.UpdateDraft(func(draft *domain.DraftTransaction) error {
		if input.ExternalID != nil {
			draft.ExternalID = normalizeOptional(*input.ExternalID)
		}
		if input.Note != nil {
			draft.Note = normalizeOptional(*input.Note)
		}
		if input.PaymentTypeID != nil {
			id := *input.PaymentTypeID
			draft.PaymentTypeID = &id
		}
		if input.RebatePercentage != nil {
			pct := input.RebatePercentage.Copy()
			draft.RebatePercentage = &pct
		}
		if input.PaymentDetails != nil {
			if draft.PaymentDetails == nil {
				return domain.ErrPaymentDetailsAbsent
			}
			*draft.PaymentDetails = *input.PaymentDetails
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(session), nil
}

// Submit builds the outbound request from the draft and sends it. The session
// is discarded on success and preserved on failure so the user can correct
// and resubmit.
func (s *PrepaymentSessionService) Submit(ctx context.Context, sessionID string) (*domain.SubmissionResult, error) {
	session, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	session.touch(time.Now().UTC())

	draft := session.reconciler.Draft()
	req, err := BuildTransactionRequest(draft, s.cfg.DateFormat, s.cfg.Locale)
	if err != nil {
		return nil, err
	}

	result, err := s.submission.Submit(ctx, session.loanID, req)
	if err != nil {
		return nil, err
	}

	s.publish(session.id.String(), websocket.SubmissionCreated(result))
	s.remove(session.id)
	s.logger.Info().Str("session_id", session.id.String()).Str("loan_id", session.loanID).Msg("Prepayment session completed")
	return result, nil
}

// Cancel discards a session and its draft.
func (s *PrepaymentSessionService) Cancel(sessionID string) error {
	session, err := s.lookup(sessionID)
	if err != nil {
		return err
	}
	s.remove(session.id)
	s.logger.Info().Str("session_id", session.id.String()).Msg("Prepayment session cancelled")
	return nil
}

// SweepExpired removes sessions idle past the TTL and returns how many were
// dropped.
func (s *PrepaymentSessionService) SweepExpired(now time.Time) int {
	s.mu.Lock()
	var expired []*prepaymentSession
	for id, session := range s.sessions {
		if now.Sub(session.idleSince()) > s.cfg.SessionTTL {
			delete(s.sessions, id)
			expired = append(expired, session)
		}
	}
	s.mu.Unlock()

	for _, session := range expired {
		s.publish(session.id.String(), websocket.SessionExpired(map[string]string{"sessionId": session.id.String()}))
		s.logger.Info().Str("session_id", session.id.String()).Msg("Prepayment session expired")
	}
	return len(expired)
}

// SessionCount returns the number of live sessions.
func (s *PrepaymentSessionService) SessionCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *PrepaymentSessionService) lookup(sessionID string) (*prepaymentSession, error) {
	id, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, domain.ErrSessionNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *PrepaymentSessionService) remove(id uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

func (s *PrepaymentSessionService) view(session *prepaymentSession) *SessionView {
	return &SessionView{
		ID:                 session.id.String(),
		LoanID:             session.loanID,
		RebateOptions:      session.rebateOptions,
		PaymentTypeOptions: session.paymentTypes,
		Draft:              session.reconciler.Draft(),
		CreatedAt:          session.createdAt,
	}
}

func (s *PrepaymentSessionService) knownPaymentType(session *prepaymentSession, id int64) bool {
	for _, pt := range session.paymentTypes {
		if pt.ID == id {
			return true
		}
	}
	return false
}

func normalizeOptional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func formatAsOf(t time.Time, pattern string) (string, error) {
	formatted, err := util.FormatDate(t, pattern)
	if err != nil {
		return "", &domain.FormatError{Pattern: pattern, Err: err}
	}
	return formatted, nil
}
