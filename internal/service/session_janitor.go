package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SessionJanitor is a background worker that periodically sweeps expired
// prepayment sessions.
type SessionJanitor struct {
	sessions *PrepaymentSessionService
	logger   zerolog.Logger
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	mu       sync.Mutex
	running  bool
}

// SessionJanitorConfig holds configuration for the session janitor
type SessionJanitorConfig struct {
	Interval time.Duration // How often to sweep expired sessions
}

// DefaultSessionJanitorConfig returns sensible defaults
func DefaultSessionJanitorConfig() SessionJanitorConfig {
	return SessionJanitorConfig{
		Interval: 1 * time.Minute,
	}
}

// NewSessionJanitor creates a new session janitor
func NewSessionJanitor(sessions *PrepaymentSessionService, logger zerolog.Logger, config SessionJanitorConfig) *SessionJanitor {
	if config.Interval <= 0 {
		config.Interval = 1 * time.Minute
	}

	return &SessionJanitor{
		sessions: sessions,
		logger:   logger.With().Str("component", "session_janitor").Logger(),
		interval: config.Interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop
func (j *SessionJanitor) Start(ctx context.Context) {
	j.mu.Lock()
	if j.running {
		j.mu.Unlock()
		return
	}
	j.running = true
	j.mu.Unlock()

	j.logger.Info().Dur("interval", j.interval).Msg("Starting session janitor")

	go j.run(ctx)
}

// Stop gracefully stops the janitor
func (j *SessionJanitor) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.mu.Unlock()

	j.logger.Info().Msg("Stopping session janitor")
	close(j.stopCh)
	<-j.doneCh
	j.logger.Info().Msg("Session janitor stopped")
}

// run is the main loop for the janitor
func (j *SessionJanitor) run(ctx context.Context) {
	defer close(j.doneCh)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.mu.Lock()
			j.running = false
			j.mu.Unlock()
			return
		case <-j.stopCh:
			j.mu.Lock()
			j.running = false
			j.mu.Unlock()
			return
		case <-ticker.C:
			if dropped := j.sessions.SweepExpired(time.Now().UTC()); dropped > 0 {
				j.logger.Info().Int("expired", dropped).Msg("Swept expired sessions")
			}
		}
	}
}
