package testutil

import (
	"context"
	"sync"

	"github.com/finara/prepay-backend/internal/domain"
	"github.com/finara/prepay-backend/internal/websocket"
)

// MockQuoteService is a mock implementation of domain.QuoteService
type MockQuoteService struct {
	mu      sync.Mutex
	FetchFn func(ctx context.Context, loanID, asOfDate string) (*domain.PrepaymentQuote, error)
	Quotes  map[string]*domain.PrepaymentQuote // keyed by asOfDate
	Err     error
	Calls   []string
}

// NewMockQuoteService creates a new MockQuoteService
func NewMockQuoteService() *MockQuoteService {
	return &MockQuoteService{
		Quotes: make(map[string]*domain.PrepaymentQuote),
	}
}

// FetchQuote returns the scripted quote for the as-of date
func (m *MockQuoteService) FetchQuote(ctx context.Context, loanID, asOfDate string) (*domain.PrepaymentQuote, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, asOfDate)
	m.mu.Unlock()

	if m.FetchFn != nil {
		return m.FetchFn(ctx, loanID, asOfDate)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if quote, ok := m.Quotes[asOfDate]; ok {
		return quote, nil
	}
	return nil, domain.ErrQuoteAmountMissing
}

// CallCount returns how many fetches were issued
func (m *MockQuoteService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// MockTemplateProvider is a mock implementation of domain.PrepayTemplateProvider
type MockTemplateProvider struct {
	Template *domain.PrepayTemplate
	Err      error
	Calls    []string
}

// FetchPrepayTemplate returns the scripted template
func (m *MockTemplateProvider) FetchPrepayTemplate(ctx context.Context, loanID, asOfDate string) (*domain.PrepayTemplate, error) {
	m.Calls = append(m.Calls, loanID)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Template, nil
}

// MockSubmitter is a mock implementation of domain.TransactionSubmitter
type MockSubmitter struct {
	SubmitFn    func(ctx context.Context, loanID string, req *domain.OutboundTransactionRequest, actionKind string) (*domain.SubmissionResult, error)
	Err         error
	Result      *domain.SubmissionResult
	LastLoanID  string
	LastRequest *domain.OutboundTransactionRequest
	LastAction  string
}

// SubmitTransaction records the request and returns the scripted result
func (m *MockSubmitter) SubmitTransaction(ctx context.Context, loanID string, req *domain.OutboundTransactionRequest, actionKind string) (*domain.SubmissionResult, error) {
	m.LastLoanID = loanID
	m.LastRequest = req
	m.LastAction = actionKind

	if m.SubmitFn != nil {
		return m.SubmitFn(ctx, loanID, req, actionKind)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		return m.Result, nil
	}
	return &domain.SubmissionResult{TransactionID: "tx-1", LoanID: loanID}, nil
}

// MockSubmissionLogRepository is a mock implementation of domain.SubmissionLogRepository
type MockSubmissionLogRepository struct {
	mu      sync.Mutex
	Entries []*domain.SubmissionLogEntry
	Err     error
}

// Record stores the entry in memory
func (m *MockSubmissionLogRepository) Record(ctx context.Context, entry *domain.SubmissionLogEntry) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	m.Entries = append(m.Entries, entry)
	m.mu.Unlock()
	return nil
}

// GetByLoanID returns recorded entries for a loan
func (m *MockSubmissionLogRepository) GetByLoanID(ctx context.Context, loanID string) ([]*domain.SubmissionLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entries []*domain.SubmissionLogEntry
	for _, entry := range m.Entries {
		if entry.LoanID == loanID {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// MockQuoteCache is an in-memory implementation of domain.QuoteCache
type MockQuoteCache struct {
	mu     sync.Mutex
	Values map[string]string
	SetErr error
}

// NewMockQuoteCache creates a new MockQuoteCache
func NewMockQuoteCache() *MockQuoteCache {
	return &MockQuoteCache{Values: make(map[string]string)}
}

func (m *MockQuoteCache) Get(ctx context.Context, key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Values[key]
	return val, ok
}

func (m *MockQuoteCache) Set(ctx context.Context, key string, value string) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	m.mu.Lock()
	m.Values[key] = value
	m.mu.Unlock()
	return nil
}

// PublishedEvent records one published websocket event
type PublishedEvent struct {
	SessionID string
	Event     websocket.Event
}

// MockEventPublisher is a mock implementation of websocket.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

// Publish records the event
func (m *MockEventPublisher) Publish(sessionID string, event websocket.Event) {
	m.mu.Lock()
	m.Events = append(m.Events, PublishedEvent{SessionID: sessionID, Event: event})
	m.mu.Unlock()
}

// EventTypes returns the types of all published events in order
func (m *MockEventPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	types := make([]string, len(m.Events))
	for i, evt := range m.Events {
		types[i] = evt.Event.Type
	}
	return types
}
