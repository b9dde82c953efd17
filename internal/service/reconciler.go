package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/finara/prepay-backend/internal/domain"
	"github.com/finara/prepay-backend/internal/util"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// QuoteNotifier receives the outcomes of asynchronous quote refreshes so the
// user always gets a visible signal, success or failure.
type QuoteNotifier interface {
	QuoteUpdated(draft domain.DraftTransaction)
	QuoteFailed(err error)
}

// NoOpNotifier discards notifications.
type NoOpNotifier struct{}

func (NoOpNotifier) QuoteUpdated(domain.DraftTransaction) {}
func (NoOpNotifier) QuoteFailed(error)                    {}

// ReconcilerConfig holds the ambient formatting and timeout configuration a
// reconciler needs.
type ReconcilerConfig struct {
	DateFormat   string
	FetchTimeout time.Duration
}

// DefaultFetchTimeout bounds a quote fetch so a hung upstream call is treated
// as failed instead of left pending indefinitely.
const DefaultFetchTimeout = 10 * time.Second

// QuoteReconciler keeps the draft's transaction amount consistent with a
// quote for the currently-selected transaction date. Date changes may fire in
// rapid succession while earlier fetches are still outstanding; ordering is
// enforced by issuance sequence number, so a late-arriving response for an
// older date can never overwrite a newer one.
type QuoteReconciler struct {
	loanID   string
	quotes   domain.QuoteService
	notifier QuoteNotifier
	cfg      ReconcilerConfig
	logger   zerolog.Logger

	issued atomic.Uint64

	mu    sync.Mutex
	draft domain.DraftTransaction
}

// NewQuoteReconciler creates a reconciler for one prepayment session.
func NewQuoteReconciler(loanID string, quotes domain.QuoteService, notifier QuoteNotifier, cfg ReconcilerConfig, logger zerolog.Logger) *QuoteReconciler {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = DefaultFetchTimeout
	}
	if notifier == nil {
		notifier = NoOpNotifier{}
	}
	return &QuoteReconciler{
		loanID:   loanID,
		quotes:   quotes,
		notifier: notifier,
		cfg:      cfg,
		logger:   logger.With().Str("component", "quote_reconciler").Str("loan_id", loanID).Logger(),
	}
}

// Initialize seeds the draft with the quote supplied at session start.
func (r *QuoteReconciler) Initialize(quote *domain.PrepaymentQuote) domain.DraftTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.draft = domain.DraftTransaction{
		TransactionDate:   domain.NewDate(quote.AsOfDate),
		TransactionAmount: domain.NewAmount(quote.Amount),
		PrincipalPortion:  quote.PrincipalPortion,
		InterestPortion:   quote.InterestPortion,
		Currency:          quote.Currency,
	}
	return r.draft
}

// Draft returns a snapshot of the current draft.
func (r *QuoteReconciler) Draft() domain.DraftTransaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draft
}

// UpdateDraft applies fn to the draft under the reconciler's lock. It is the
// entry point for all non-quote mutations (optional fields, toggles).
func (r *QuoteReconciler) UpdateDraft(fn func(*domain.DraftTransaction) error) (domain.DraftTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := fn(&r.draft); err != nil {
		return r.draft, err
	}
	return r.draft, nil
}

// RefreshForDate records the new transaction date and fetches the quote for
// it. The response is committed only when no newer refresh has been issued in
// the meantime; superseded responses are discarded silently. On failure the
// previous amount stays in place and the notifier is told.
func (r *QuoteReconciler) RefreshForDate(ctx context.Context, newDate time.Time) (domain.DraftTransaction, error) {
	seq := r.issued.Add(1)

	r.mu.Lock()
	r.draft.TransactionDate = domain.NewDate(newDate)
	r.mu.Unlock()

	formatted, err := util.FormatDate(newDate, r.cfg.DateFormat)
	if err != nil {
		return r.Draft(), &domain.FormatError{Pattern: r.cfg.DateFormat, Err: err}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.cfg.FetchTimeout)
	defer cancel()

	quote, err := r.quotes.FetchQuote(fetchCtx, r.loanID, formatted)
	if err != nil {
		qerr := &domain.QuoteFetchError{LoanID: r.loanID, Err: err}
		r.logger.Warn().Err(err).Uint64("seq", seq).Str("as_of", formatted).Msg("Quote fetch failed, keeping prior amount")
		r.notifier.QuoteFailed(qerr)
		return r.Draft(), qerr
	}

	r.mu.Lock()
	if seq != r.issued.Load() {
		// A newer refresh was issued while this one was in flight
		r.mu.Unlock()
		r.logger.Debug().Uint64("seq", seq).Uint64("latest", r.issued.Load()).Msg("Discarding stale quote response")
		return r.Draft(), nil
	}
	r.draft.TransactionAmount = domain.NewAmount(quote.Amount)
	r.draft.PrincipalPortion = quote.PrincipalPortion
	r.draft.InterestPortion = quote.InterestPortion
	if quote.Currency.Code != "" {
		r.draft.Currency = quote.Currency
	}
	snapshot := r.draft
	r.mu.Unlock()

	r.notifier.QuoteUpdated(snapshot)
	return snapshot, nil
}

// ApplyRebate locally deducts the selected rebate from the current amount,
// rounding half-even to the currency's minor-unit precision. It never
// re-fetches a quote.
func (r *QuoteReconciler) ApplyRebate(pct decimal.Decimal) (domain.DraftTransaction, error) {
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(1)) {
		return r.Draft(), domain.ErrRebateOutOfRange
	}

	r.mu.Lock()
	if !r.draft.TransactionAmount.IsSet() {
		r.mu.Unlock()
		return r.Draft(), &domain.ValidationError{Field: "transactionAmount"}
	}

	amount := r.draft.TransactionAmount.Decimal()
	rebate := amount.Mul(pct)
	adjusted := amount.Sub(rebate).RoundBank(r.draft.Currency.MinorUnitPlaces())

	r.draft.TransactionAmount = domain.NewAmount(adjusted)
	rebateCopy := pct.Copy()
	r.draft.RebatePercentage = &rebateCopy
	snapshot := r.draft
	r.mu.Unlock()

	r.notifier.QuoteUpdated(snapshot)
	return snapshot, nil
}
