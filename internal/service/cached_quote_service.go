package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/finara/prepay-backend/internal/domain"
	"github.com/rs/zerolog"
)

// CachedQuoteService decorates a QuoteService with a cache keyed by loan id
// and as-of date. Cache problems fall through to the live service; a cache
// must never turn a good quote into an error.
type CachedQuoteService struct {
	next   domain.QuoteService
	cache  domain.QuoteCache
	logger zerolog.Logger
}

// NewCachedQuoteService creates a new CachedQuoteService.
func NewCachedQuoteService(next domain.QuoteService, cache domain.QuoteCache, logger zerolog.Logger) *CachedQuoteService {
	return &CachedQuoteService{
		next:   next,
		cache:  cache,
		logger: logger.With().Str("component", "quote_cache").Logger(),
	}
}

// FetchQuote implements domain.QuoteService.
func (s *CachedQuoteService) FetchQuote(ctx context.Context, loanID string, asOfDate string) (*domain.PrepaymentQuote, error) {
	key := quoteCacheKey(loanID, asOfDate)

	if cached, ok := s.cache.Get(ctx, key); ok {
		var quote domain.PrepaymentQuote
		if err := json.Unmarshal([]byte(cached), &quote); err == nil {
			s.logger.Debug().Str("key", key).Msg("Quote cache hit")
			return &quote, nil
		}
		s.logger.Warn().Str("key", key).Msg("Discarding unreadable cached quote")
	}

	quote, err := s.next.FetchQuote(ctx, loanID, asOfDate)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(quote); err == nil {
		if err := s.cache.Set(ctx, key, string(data)); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Failed to cache quote")
		}
	}
	return quote, nil
}

func quoteCacheKey(loanID, asOfDate string) string {
	return fmt.Sprintf("prepay:quote:%s:%s", loanID, asOfDate)
}
