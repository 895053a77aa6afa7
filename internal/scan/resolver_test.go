package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/competiscan/competiscan/internal/progress"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

type recordingSleeper struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (s *recordingSleeper) Sleep(_ context.Context, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sleeps = append(s.sleeps, d)
}

func (s *recordingSleeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sleeps)
}

type fakePacer struct {
	mu       sync.Mutex
	acquires int
	outcomes []bool
}

func (p *fakePacer) Acquire(ctx context.Context) error {
	p.mu.Lock()
	p.acquires++
	p.mu.Unlock()
	return ctx.Err()
}

func (p *fakePacer) ReportOutcome(ctx context.Context, blocked bool) (bool, error) {
	p.mu.Lock()
	p.outcomes = append(p.outcomes, blocked)
	p.mu.Unlock()
	return blocked, ctx.Err()
}

type scriptedFetcher struct {
	mu    sync.Mutex
	pages []Page
	errs  []error
	calls int
}

func (f *scriptedFetcher) Fetch(_ context.Context, _ string) (Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return Page{}, f.errs[i]
	}
	if i < len(f.pages) {
		return f.pages[i], nil
	}
	return Page{Body: []byte("<html></html>")}, nil
}

type collectEmitter struct {
	mu     sync.Mutex
	events []progress.Event
}

func (e *collectEmitter) Emit(evt progress.Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, evt)
}

func (e *collectEmitter) stages() []progress.Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]progress.Stage, 0, len(e.events))
	for _, evt := range e.events {
		out = append(out, evt.Stage)
	}
	return out
}

func matchPage() Page {
	return Page{Body: []byte(`<html><body>
<a class="plantl" href="https://coastalbeauty.ca/p/1"
   aria-label="OPI Big Apple Red Nail Lacquer for $12.99">OPI Big Apple Red</a>
</body></html>`)}
}

func newTestResolver(f Fetcher, p Pacer, s Sleeper, e progress.Emitter) *Resolver {
	return NewResolver(
		ResolverConfig{
			MaxRetries:      3,
			RetryBackoffMin: time.Millisecond,
			RetryBackoffMax: 2 * time.Millisecond,
			VariantPause:    time.Millisecond,
		},
		DefaultRegistry(),
		f, p, NewBlockDetector(nil), s, fixedClock{at: time.Now()}, nil, e, nil,
	)
}

func TestResolver_FirstVariantMatches(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{pages: []Page{matchPage()}}
	pacer := &fakePacer{}
	emitter := &collectEmitter{}
	r := newTestResolver(fetcher, pacer, &recordingSleeper{}, emitter)

	result, err := r.Resolve(context.Background(), testProduct())
	require.NoError(t, err)

	require.Equal(t, 1, fetcher.calls)
	require.Equal(t, 1, pacer.acquires)
	require.Equal(t, []bool{false}, pacer.outcomes)

	match := result.Competitors["coastalbeauty"]
	require.NotNil(t, match.Price)
	require.Equal(t, 12.99, *match.Price)

	require.Contains(t, emitter.stages(), progress.StageSearchDone)
	require.Contains(t, emitter.stages(), progress.StageMatch)
}

func TestResolver_FallsThroughVariantsWhenNoMatch(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{} // every page parses to zero candidates
	pacer := &fakePacer{}
	sleeper := &recordingSleeper{}
	r := newTestResolver(fetcher, pacer, sleeper, &collectEmitter{})

	p := Product{Name: "Big Apple Red", Brand: "OPI", Barcode: "123"}
	result, err := r.Resolve(context.Background(), p)
	require.NoError(t, err)

	// Four variants, one fetch each, and a pause between variants.
	require.Equal(t, 4, fetcher.calls)
	require.Equal(t, 3, sleeper.count())
	for _, match := range result.Competitors {
		require.Nil(t, match.Price)
	}
}

func TestResolver_BlockedPageRetriesAndReports(t *testing.T) {
	t.Parallel()

	blocked := Page{Body: []byte("detected unusual traffic from your computer network")}
	fetcher := &scriptedFetcher{pages: []Page{blocked, matchPage()}}
	pacer := &fakePacer{}
	emitter := &collectEmitter{}
	r := newTestResolver(fetcher, pacer, &recordingSleeper{}, emitter)

	result, err := r.Resolve(context.Background(), testProduct())
	require.NoError(t, err)

	require.Equal(t, 2, fetcher.calls)
	require.Equal(t, []bool{true, false}, pacer.outcomes)
	require.Contains(t, emitter.stages(), progress.StageBlocked)
	require.NotNil(t, result.Competitors["coastalbeauty"].Price)
}

func TestResolver_FetchErrorsExhaustRetries(t *testing.T) {
	t.Parallel()

	boom := errors.New("connection reset")
	fetcher := &scriptedFetcher{errs: []error{boom, boom, boom}}
	pacer := &fakePacer{}
	r := newTestResolver(fetcher, pacer, &recordingSleeper{}, &collectEmitter{})

	p := Product{Name: "Big Apple Red", Brand: "OPI"}
	result, err := r.Resolve(context.Background(), p)
	require.NoError(t, err)

	// All three attempts of the first variant failed; later variants still
	// run and succeed against the default empty page.
	require.Equal(t, 5, fetcher.calls)
	for _, match := range result.Competitors {
		require.Nil(t, match.Price)
	}
}

func TestResolver_NoUsableVariants(t *testing.T) {
	t.Parallel()

	fetcher := &scriptedFetcher{}
	r := newTestResolver(fetcher, &fakePacer{}, &recordingSleeper{}, &collectEmitter{})

	result, err := r.Resolve(context.Background(), Product{Name: "nameless"})
	require.NoError(t, err)
	require.Zero(t, fetcher.calls)
	require.Len(t, result.Competitors, DefaultRegistry().Len())
}

func TestResolver_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newTestResolver(&scriptedFetcher{}, &fakePacer{}, &recordingSleeper{}, &collectEmitter{})
	_, err := r.Resolve(ctx, testProduct())
	require.Error(t, err)
}

func TestSnapshotName(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	name := SnapshotName("OPI Big Apple Red", at)
	require.Contains(t, name, "opi_big_apple_red")
	require.Contains(t, name, "20260314T092653")
	require.Contains(t, name, ".html")

	require.Contains(t, SnapshotName("???", at), "page_")
}
