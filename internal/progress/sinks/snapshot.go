package sinks

import (
	"context"
	"sync"
	"time"

	"github.com/competiscan/competiscan/internal/progress"
)

// Snapshot is a point-in-time view of the current run, served by the status
// API while a scan is in flight.
type Snapshot struct {
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at,omitempty"`
	FinishedAt    time.Time `json:"finished_at,omitempty"`
	ProductsTotal int       `json:"products_total"`
	ProductsDone  int       `json:"products_done"`
	Searches      int       `json:"searches"`
	Blocks        int       `json:"blocks"`
	PricesFound   int       `json:"prices_found"`
	LastProduct   string    `json:"last_product,omitempty"`
	LastError     string    `json:"last_error,omitempty"`
}

// SnapshotSink folds the event stream into an in-memory Snapshot.
type SnapshotSink struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewSnapshotSink constructs an empty SnapshotSink.
func NewSnapshotSink() *SnapshotSink {
	return &SnapshotSink{}
}

// Consume applies each event's delta to the snapshot.
func (s *SnapshotSink) Consume(_ context.Context, batch []progress.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, evt := range batch {
		switch evt.Stage {
		case progress.StageRunStart:
			s.snap = Snapshot{
				RunID:         evt.RunID.String(),
				StartedAt:     evt.TS,
				ProductsTotal: evt.Total,
			}
		case progress.StageRunDone:
			s.snap.FinishedAt = evt.TS
		case progress.StageRunError:
			s.snap.FinishedAt = evt.TS
			s.snap.LastError = evt.Note
		case progress.StageSearchDone:
			s.snap.Searches++
		case progress.StageBlocked:
			s.snap.Blocks++
		case progress.StageMatch:
			s.snap.PricesFound++
		case progress.StageProductDone:
			s.snap.ProductsDone++
			s.snap.LastProduct = evt.Product
		}
	}
	return nil
}

// Current returns a copy of the snapshot.
func (s *SnapshotSink) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Close implements the Sink interface; it performs no action.
func (s *SnapshotSink) Close(context.Context) error {
	return nil
}
