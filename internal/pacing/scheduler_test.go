package pacing

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeClock advances only when told to, letting tests pin elapsed time.
type fakeClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.at = c.at.Add(d)
}

type sleepRecorder struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps = append(s.sleeps, d)
}

func (s *sleepRecorder) all() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.sleeps...)
}

func testScheduler(cfg Config) (*Scheduler, *fakeClock, *sleepRecorder) {
	clk := &fakeClock{at: time.Unix(1700000000, 0)}
	rec := &sleepRecorder{}
	s := New(cfg, clk, rec, nil, WithRand(rand.New(rand.NewSource(1))))
	return s, clk, rec
}

func shortConfig() Config {
	return Config{
		BatchSize:            3,
		BatchCooldownMin:     100 * time.Second,
		BatchCooldownMax:     100 * time.Second,
		EmergencyCooldownMin: 500 * time.Second,
		EmergencyCooldownMax: 500 * time.Second,
		WarmupSearches:       2,
		RampSearches:         4,
		WarmupDelayMin:       8 * time.Second,
		WarmupDelayMax:       8 * time.Second,
		RampDelayMin:         12 * time.Second,
		RampDelayMax:         12 * time.Second,
		CruiseDelayMin:       20 * time.Second,
		CruiseDelayMax:       20 * time.Second,
	}
}

func succeed(t *testing.T, s *Scheduler) {
	t.Helper()
	require.NoError(t, s.Acquire(context.Background()))
	_, err := s.ReportOutcome(context.Background(), false)
	require.NoError(t, err)
}

func TestScheduler_FirstAcquireDoesNotWait(t *testing.T) {
	t.Parallel()

	s, _, rec := testScheduler(shortConfig())
	require.NoError(t, s.Acquire(context.Background()))
	require.Empty(t, rec.all())
}

func TestScheduler_EnforcesMinimumSpacing(t *testing.T) {
	t.Parallel()

	s, clk, rec := testScheduler(shortConfig())
	succeed(t, s)

	// Only 3s of the 8s warmup delay elapsed; the scheduler must wait the
	// remaining 5s.
	clk.advance(3 * time.Second)
	require.NoError(t, s.Acquire(context.Background()))
	require.Equal(t, []time.Duration{5 * time.Second}, rec.all())
}

func TestScheduler_NoWaitWhenEnoughTimeElapsed(t *testing.T) {
	t.Parallel()

	s, clk, rec := testScheduler(shortConfig())
	succeed(t, s)

	clk.advance(time.Minute)
	require.NoError(t, s.Acquire(context.Background()))
	require.Empty(t, rec.all())
}

func TestScheduler_DelayBandsEscalateWithSearchCount(t *testing.T) {
	t.Parallel()

	cfg := shortConfig()
	cfg.BatchSize = 100 // keep batch cooldowns out of this test
	s, clk, rec := testScheduler(cfg)

	// Warm the count past both thresholds.
	for i := 0; i < 5; i++ {
		clk.advance(time.Hour)
		succeed(t, s)
	}
	require.Equal(t, 5, s.SearchCount())

	// At 5 searches the cruise band (20s) applies.
	clk.advance(11 * time.Second)
	require.NoError(t, s.Acquire(context.Background()))
	require.Equal(t, []time.Duration{9 * time.Second}, rec.all())
}

func TestScheduler_BatchCooldownOnBatchBoundary(t *testing.T) {
	t.Parallel()

	s, clk, rec := testScheduler(shortConfig())
	for i := 0; i < 3; i++ {
		clk.advance(time.Hour)
		succeed(t, s)
	}
	require.Equal(t, 3, s.SearchCount())

	clk.advance(time.Hour)
	require.NoError(t, s.Acquire(context.Background()))
	require.Equal(t, []time.Duration{100 * time.Second}, rec.all())
}

func TestScheduler_BatchCooldownNotRepeatedAtSameCount(t *testing.T) {
	t.Parallel()

	s, clk, rec := testScheduler(shortConfig())
	for i := 0; i < 3; i++ {
		clk.advance(time.Hour)
		succeed(t, s)
	}

	clk.advance(time.Hour)
	require.NoError(t, s.Acquire(context.Background()))
	require.Len(t, rec.all(), 1)

	// The fetch at count 3 was blocked, so the count stays at 3. The next
	// acquire must not take the batch cooldown again.
	_, err := s.ReportOutcome(context.Background(), true)
	require.NoError(t, err)

	clk.advance(time.Hour)
	require.NoError(t, s.Acquire(context.Background()))
	// One batch cooldown plus one emergency cooldown, nothing more.
	require.Len(t, rec.all(), 2)
}

func TestScheduler_BlockedOutcomeTakesEmergencyCooldown(t *testing.T) {
	t.Parallel()

	s, _, rec := testScheduler(shortConfig())
	require.NoError(t, s.Acquire(context.Background()))

	fresh, err := s.ReportOutcome(context.Background(), true)
	require.NoError(t, err)
	require.True(t, fresh)

	require.Equal(t, []time.Duration{500 * time.Second}, rec.all())
	require.Equal(t, 0, s.SearchCount())
	require.Equal(t, 1, s.CaptchaCount())
}

func TestScheduler_BlockedDoesNotAdvanceSearchCount(t *testing.T) {
	t.Parallel()

	s, clk, _ := testScheduler(shortConfig())
	clk.advance(time.Hour)
	succeed(t, s)

	require.NoError(t, s.Acquire(context.Background()))
	_, err := s.ReportOutcome(context.Background(), true)
	require.NoError(t, err)

	require.Equal(t, 1, s.SearchCount())
	require.Equal(t, 1, s.CaptchaCount())
}

func TestScheduler_AcquireReturnsContextError(t *testing.T) {
	t.Parallel()

	s, _, _ := testScheduler(shortConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, s.Acquire(ctx))
}

func TestScheduler_UniformDegenerateRange(t *testing.T) {
	t.Parallel()

	s, _, _ := testScheduler(shortConfig())
	require.Equal(t, 7*time.Second, s.uniform(7*time.Second, 7*time.Second))
	require.Equal(t, 7*time.Second, s.uniform(7*time.Second, 3*time.Second))
}
