package scan

import (
	"context"
	"time"
)

// Fetcher retrieves a search-result page. Transport errors and blocked pages
// are ordinary outcomes for callers, never fatal.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Pacer gates outbound requests. Acquire blocks until the scheduler grants
// one request; ReportOutcome feeds back whether the fetch was blocked by the
// target's anti-bot defense. The returned bool advises retrying with a fresh
// browser session.
type Pacer interface {
	Acquire(ctx context.Context) error
	ReportOutcome(ctx context.Context, blocked bool) (bool, error)
}

// Sleeper suspends the calling goroutine. Implementations honor ctx
// cancellation; the production one is a plain timer wait.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// ArtifactStore persists raw page snapshots for offline debugging and
// returns a URI for the stored object.
type ArtifactStore interface {
	Save(ctx context.Context, name string, contentType string, data []byte) (string, error)
}

// ResultStore persists finished product results.
type ResultStore interface {
	StoreResult(ctx context.Context, runID string, result ProductResult) error
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	NewID() (string, error)
}
