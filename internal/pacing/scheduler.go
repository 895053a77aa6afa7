// Package pacing implements the adaptive request scheduler that sits in
// front of the page fetcher. It combines three tiers of backoff: a
// per-request delay that grows with the number of searches performed, a long
// cooldown after every batch of successful searches, and an emergency
// cooldown whenever the target's anti-bot defense fires.
package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Sleeper suspends the calling goroutine for a duration.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration)
}

// Config holds the scheduler's pacing knobs.
type Config struct {
	BatchSize            int
	BatchCooldownMin     time.Duration
	BatchCooldownMax     time.Duration
	EmergencyCooldownMin time.Duration
	EmergencyCooldownMax time.Duration

	// Inter-request delay bands. The warmup band applies below
	// WarmupSearches total searches, the ramp band below RampSearches, and
	// the cruise band from there on.
	WarmupSearches int
	RampSearches   int
	WarmupDelayMin time.Duration
	WarmupDelayMax time.Duration
	RampDelayMin   time.Duration
	RampDelayMax   time.Duration
	CruiseDelayMin time.Duration
	CruiseDelayMax time.Duration
}

// DefaultConfig returns the production pacing profile.
func DefaultConfig() Config {
	return Config{
		BatchSize:            20,
		BatchCooldownMin:     120 * time.Second,
		BatchCooldownMax:     180 * time.Second,
		EmergencyCooldownMin: 300 * time.Second,
		EmergencyCooldownMax: 600 * time.Second,
		WarmupSearches:       10,
		RampSearches:         15,
		WarmupDelayMin:       8 * time.Second,
		WarmupDelayMax:       12 * time.Second,
		RampDelayMin:         12 * time.Second,
		RampDelayMax:         18 * time.Second,
		CruiseDelayMin:       15 * time.Second,
		CruiseDelayMax:       25 * time.Second,
	}
}

// Scheduler serializes outbound requests and enforces the three backoff
// tiers. All state lives behind one mutex; concurrent callers queue on it,
// so at most one request is ever being granted at a time. Waits always run
// to completion once begun.
type Scheduler struct {
	cfg     Config
	clock   Clock
	sleeper Sleeper
	logger  *zap.Logger

	mu           sync.Mutex
	rng          *rand.Rand
	searchCount  int
	captchaCount int
	lastRequest  time.Time
	cooledAt     int
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithRand injects a deterministic random source for tests.
func WithRand(rng *rand.Rand) Option {
	return func(s *Scheduler) {
		s.rng = rng
	}
}

// New constructs a Scheduler. A nil logger is replaced with a no-op one.
func New(cfg Config, clock Clock, sleeper Sleeper, logger *zap.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		cfg:     cfg,
		clock:   clock,
		sleeper: sleeper,
		logger:  logger,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire blocks until the caller may send one request. It first takes the
// batch cooldown when the search count sits on a fresh multiple of the batch
// size, then enforces the count-dependent minimum spacing since the last
// grant. The error is non-nil only when ctx is done.
func (s *Scheduler) Acquire(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.batchCooldownDue() {
		cooldown := s.uniform(s.cfg.BatchCooldownMin, s.cfg.BatchCooldownMax)
		s.logger.Info("batch cooldown",
			zap.Int("searches", s.searchCount),
			zap.Duration("cooldown", cooldown),
		)
		batchCooldownsTotal.Inc()
		s.cooledAt = s.searchCount
		s.sleeper.Sleep(ctx, cooldown)
	}

	minDelay := s.uniform(s.delayBand())
	if !s.lastRequest.IsZero() {
		if elapsed := s.clock.Now().Sub(s.lastRequest); elapsed < minDelay {
			wait := minDelay - elapsed
			s.logger.Debug("throttling request",
				zap.Duration("wait", wait),
				zap.Int("search", s.searchCount+1),
			)
			throttleDelaySeconds.Observe(wait.Seconds())
			s.sleeper.Sleep(ctx, wait)
		}
	}
	s.lastRequest = s.clock.Now()
	return ctx.Err()
}

// ReportOutcome records the result of the granted request. A successful
// fetch advances the search count; a blocked fetch leaves the count alone,
// bumps the captcha count, takes the emergency cooldown, and advises the
// caller to retry with a fresh session.
func (s *Scheduler) ReportOutcome(ctx context.Context, blocked bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !blocked {
		s.searchCount++
		searchesTotal.Inc()
		return false, ctx.Err()
	}

	s.captchaCount++
	blocksTotal.Inc()
	cooldown := s.uniform(s.cfg.EmergencyCooldownMin, s.cfg.EmergencyCooldownMax)
	s.logger.Warn("anti-bot challenge detected, emergency cooldown",
		zap.Int("captcha_count", s.captchaCount),
		zap.Duration("cooldown", cooldown),
	)
	emergencyCooldownsTotal.Inc()
	s.sleeper.Sleep(ctx, cooldown)
	return true, ctx.Err()
}

// SearchCount returns the number of successful searches so far. It is
// monotonically non-decreasing for the life of the scheduler.
func (s *Scheduler) SearchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.searchCount
}

// CaptchaCount returns the number of blocked fetches reported so far.
func (s *Scheduler) CaptchaCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captchaCount
}

// batchCooldownDue is true on a fresh positive multiple of the batch size.
// cooledAt pins the multiple already served so a retry at the same count
// does not cool down twice.
func (s *Scheduler) batchCooldownDue() bool {
	if s.cfg.BatchSize <= 0 || s.searchCount == 0 {
		return false
	}
	return s.searchCount%s.cfg.BatchSize == 0 && s.cooledAt != s.searchCount
}

func (s *Scheduler) delayBand() (time.Duration, time.Duration) {
	switch {
	case s.searchCount < s.cfg.WarmupSearches:
		return s.cfg.WarmupDelayMin, s.cfg.WarmupDelayMax
	case s.searchCount < s.cfg.RampSearches:
		return s.cfg.RampDelayMin, s.cfg.RampDelayMax
	default:
		return s.cfg.CruiseDelayMin, s.cfg.CruiseDelayMax
	}
}

func (s *Scheduler) uniform(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(s.rng.Int63n(int64(hi-lo)))
}
