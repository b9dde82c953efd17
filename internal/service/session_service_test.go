package service

import (
	"context"
	"testing"
	"time"

	"github.com/finara/prepay-backend/internal/domain"
	"github.com/finara/prepay-backend/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func testTemplate() *domain.PrepayTemplate {
	return &domain.PrepayTemplate{
		Quote: domain.PrepaymentQuote{
			Amount:           dec("1000.00"),
			PrincipalPortion: dec("900.00"),
			InterestPortion:  dec("100.00"),
			Currency:         domain.Currency{Code: "USD", DecimalPlaces: 2},
		},
		RebatePolicies: []domain.RebatePolicy{
			{DaysFrom: 0, DaysTo: 180, RebatePercentage: dec("6")},
			{DaysFrom: 181, DaysTo: domain.OpenEndedDays, RebatePercentage: dec("12")},
		},
		PaymentTypeOptions: []domain.PaymentTypeOption{
			{ID: 1, Name: "Cash"},
			{ID: 2, Name: "Bank transfer"},
		},
	}
}

type sessionFixture struct {
	svc       *PrepaymentSessionService
	templates *testutil.MockTemplateProvider
	quotes    *testutil.MockQuoteService
	submitter *testutil.MockSubmitter
	logRepo   *testutil.MockSubmissionLogRepository
	publisher *testutil.MockEventPublisher
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		templates: &testutil.MockTemplateProvider{Template: testTemplate()},
		quotes:    testutil.NewMockQuoteService(),
		submitter: &testutil.MockSubmitter{Result: &domain.SubmissionResult{TransactionID: "tx-1", LoanID: "42"}},
		logRepo:   &testutil.MockSubmissionLogRepository{},
		publisher: &testutil.MockEventPublisher{},
	}

	submission := NewSubmissionService(f.submitter, f.logRepo, zerolog.Nop())
	f.svc = NewPrepaymentSessionService(f.templates, f.quotes, submission, SessionConfig{
		DateFormat: "dd MMMM yyyy",
		Locale:     "en",
		SessionTTL: 30 * time.Minute,
		BusinessDate: func() time.Time {
			return time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
		},
	}, zerolog.Nop())
	f.svc.SetEventPublisher(f.publisher)
	return f
}

func (f *sessionFixture) start(t *testing.T) *SessionView {
	t.Helper()
	view, err := f.svc.Start(context.Background(), "42")
	assert.NoError(t, err)
	return view
}

func TestStartSession(t *testing.T) {
	f := newSessionFixture()

	view := f.start(t)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "42", view.LoanID)
	assert.Len(t, view.RebateOptions, 2)
	assert.Len(t, view.PaymentTypeOptions, 2)
	assert.True(t, view.Draft.TransactionAmount.Decimal().Equal(dec("1000.00")))

	// The template was requested as of the business date
	assert.Equal(t, []string{"42"}, f.templates.Calls)

	when, ok := view.Draft.TransactionDate.Time()
	assert.True(t, ok)
	assert.Equal(t, "2024-06-10", when.Format("2006-01-02"))
	assert.Equal(t, 1, f.svc.SessionCount())
}

func TestStartSessionRequiresLoanID(t *testing.T) {
	f := newSessionFixture()

	_, err := f.svc.Start(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrLoanIDRequired)
}

func TestStartSessionRejectsOverlappingPolicies(t *testing.T) {
	f := newSessionFixture()
	f.templates.Template.RebatePolicies = []domain.RebatePolicy{
		{DaysFrom: 0, DaysTo: 180, RebatePercentage: dec("6")},
		{DaysFrom: 90, DaysTo: 365, RebatePercentage: dec("9")},
	}

	_, err := f.svc.Start(context.Background(), "42")
	assert.ErrorIs(t, err, domain.ErrPolicyRangesOverlap)
	assert.Equal(t, 0, f.svc.SessionCount())
}

func TestStartSessionTemplateFailure(t *testing.T) {
	f := newSessionFixture()
	f.templates.Err = context.DeadlineExceeded

	_, err := f.svc.Start(context.Background(), "42")

	var qErr *domain.QuoteFetchError
	assert.ErrorAs(t, err, &qErr)
}

func TestGetSession(t *testing.T) {
	f := newSessionFixture()
	view := f.start(t)

	got, err := f.svc.Get(view.ID)
	assert.NoError(t, err)
	assert.Equal(t, view.ID, got.ID)

	_, err = f.svc.Get("b2f7c0de-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = f.svc.Get("not-a-uuid")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestChangeTransactionDate(t *testing.T) {
	f := newSessionFixture()
	quote := testTemplate().Quote
	quote.Amount = dec("987.65")
	f.quotes.Quotes["11 June 2024"] = &quote

	view := f.start(t)

	updated, err := f.svc.ChangeTransactionDate(context.Background(), view.ID, time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC))

	assert.NoError(t, err)
	assert.True(t, updated.Draft.TransactionAmount.Decimal().Equal(dec("987.65")))
	assert.Contains(t, f.publisher.EventTypes(), "quote.updated")
}

func TestChangeTransactionDateFetchFailureKeepsAmount(t *testing.T) {
	f := newSessionFixture()
	view := f.start(t)
	f.quotes.Err = context.DeadlineExceeded

	updated, err := f.svc.ChangeTransactionDate(context.Background(), view.ID, time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC))

	var qErr *domain.QuoteFetchError
	assert.ErrorAs(t, err, &qErr)
	assert.NotNil(t, updated)
	assert.True(t, updated.Draft.TransactionAmount.Decimal().Equal(dec("1000.00")))
	assert.Contains(t, f.publisher.EventTypes(), "quote.failed")
}

func TestSessionApplyRebate(t *testing.T) {
	f := newSessionFixture()
	view := f.start(t)

	updated, err := f.svc.ApplyRebate(view.ID, dec("0.06"))

	assert.NoError(t, err)
	assert.True(t, updated.Draft.TransactionAmount.Decimal().Equal(dec("940.00")))
}

func TestSessionApplyRebateNotSelectable(t *testing.T) {
	f := newSessionFixture()
	view := f.start(t)

	_, err := f.svc.ApplyRebate(view.ID, dec("0.07"))
	assert.ErrorIs(t, err, domain.ErrRebateNotSelectable)
}

func TestTogglePaymentDetails(t *testing.T) {
	f := newSessionFixture()
	view := f.start(t)

	on, err := f.svc.TogglePaymentDetails(view.ID)
	assert.NoError(t, err)
	assert.NotNil(t, on.Draft.PaymentDetails)

	off, err := f.svc.TogglePaymentDetails(view.ID)
	assert.NoError(t, err)
	assert.Nil(t, off.Draft.PaymentDetails)
}

func TestUpdateDraft(t *testing.T) {
	f := newSessionFixture()
	view := f.start(t)

	externalID := "EXT-7"
	note := "early settlement"
	paymentType := int64(2)
	rebate := dec("0.12")

	updated, err := f.svc.UpdateDraft(view.ID, UpdateDraftInput{
		ExternalID:       &externalID,
		Note:             &note,
		PaymentTypeID:    &paymentType,
		RebatePercentage: &rebate,
	})

	assert.NoError(t, err)
	assert.Equal(t, "EXT-7", *updated.Draft.ExternalID)
	assert.Equal(t, "early settlement", *updated.Draft.Note)
	assert.Equal(t, int64(2), *updated.Draft.PaymentTypeID)
	assert.True(t, updated.Draft.RebatePercentage.Equal(dec("0.12")))
}

func TestUpdateDraftClearsEmptyStrings(t *testing.T) {
	f := newSessionFixture()
	view := f.start(t)

	externalID := "EXT-7"
	_, err := f.svc.UpdateDraft(view.ID, UpdateDraftInput{ExternalID: &externalID})
	assert.NoError(t, err)

	blank := "   "
	updated, err := f.svc.UpdateDraft(view.ID, UpdateDraftInput{ExternalID: &blank})
	assert.NoError(t, err)
	assert.Nil(t, updated.Draft.ExternalID)
}

func TestUpdateDraftUnknownPaymentType(t *testing.T) {
	f := newSessionFixture()
	view := f.start(t)

	unknown := int64(99)
	_, err := f.svc.UpdateDraft(view.ID, UpdateDraftInput{PaymentTypeID: &unknown})
	assert.ErrorIs(t, err, domain.ErrPaymentTypeUnknown)
}

func TestUpdateDraftPaymentDetailsRequireToggle(t *testing.T) {
	f := newSessionFixture()
	view := f.start(t)

	details := domain.OptionalPaymentDetails{AccountNumber: "ACC-1"}
	_, err := f.svc.UpdateDraft(view.ID, UpdateDraftInput{PaymentDetails: &details})
	assert.ErrorIs(t, err, domain.ErrPaymentDetailsAbsent)

	_, err = f.svc.TogglePaymentDetails(view.ID)
	assert.NoError(t, err)

	updated, err := f.svc.UpdateDraft(view.ID, UpdateDraftInput{PaymentDetails: &details})
	assert.NoError(t, err)
	assert.Equal(t, "ACC-1", updated.Draft.PaymentDetails.AccountNumber)
}

func TestSubmitSession(t *testing.T) {
	f := newSessionFixture()
	view := f.start(t)

	_, err := f.svc.ApplyRebate(view.ID, dec("0.06"))
	assert.NoError(t, err)

	result, err := f.svc.Submit(context.Background(), view.ID)

	assert.NoError(t, err)
	assert.Equal(t, "tx-1", result.TransactionID)
	assert.Equal(t, "42", f.submitter.LastLoanID)
	assert.Equal(t, "10 June 2024", f.submitter.LastRequest.TransactionDate)
	assert.Equal(t, 940.0, f.submitter.LastRequest.TransactionAmount)

	// Completed sessions are discarded
	assert.False(t, f.svc.Exists(view.ID))
	assert.Contains(t, f.publisher.EventTypes(), "submission.created")
}

func TestSubmitIncompleteDraft(t *testing.T) {
	f := newSessionFixture()
	view := f.start(t)

	// No rebate applied yet
	_, err := f.svc.Submit(context.Background(), view.ID)

	var vErr *domain.ValidationError
	assert.ErrorAs(t, err, &vErr)
	assert.Equal(t, "rebatePercentage", vErr.Field)
	assert.True(t, f.svc.Exists(view.ID))
}

func TestSubmitRejectionKeepsSession(t *testing.T) {
	f := newSessionFixture()
	view := f.start(t)
	_, err := f.svc.ApplyRebate(view.ID, dec("0.06"))
	assert.NoError(t, err)

	f.submitter.Err = &domain.SubmissionError{Status: 403, Detail: "loan is not active"}

	_, err = f.svc.Submit(context.Background(), view.ID)

	var sErr *domain.SubmissionError
	assert.ErrorAs(t, err, &sErr)

	// The session survives so the user can correct and resubmit
	assert.True(t, f.svc.Exists(view.ID))
}

func TestCancelSession(t *testing.T) {
	f := newSessionFixture()
	view := f.start(t)

	assert.NoError(t, f.svc.Cancel(view.ID))
	assert.False(t, f.svc.Exists(view.ID))
	assert.ErrorIs(t, f.svc.Cancel(view.ID), domain.ErrSessionNotFound)
}

func TestSweepExpired(t *testing.T) {
	f := newSessionFixture()
	view := f.start(t)

	// Nothing expires inside the TTL
	assert.Equal(t, 0, f.svc.SweepExpired(time.Now().UTC().Add(10*time.Minute)))
	assert.True(t, f.svc.Exists(view.ID))

	swept := f.svc.SweepExpired(time.Now().UTC().Add(31 * time.Minute))
	assert.Equal(t, 1, swept)
	assert.False(t, f.svc.Exists(view.ID))
	assert.Contains(t, f.publisher.EventTypes(), "session.expired")
}
