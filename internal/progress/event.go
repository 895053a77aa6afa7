// Package progress defines the run-progress events emitted by the scan
// pipeline and the hub that fans them out to sinks.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart    Stage = "RUN_START"
	StageRunDone     Stage = "RUN_DONE"
	StageRunError    Stage = "RUN_ERROR"
	StageSearchDone  Stage = "SEARCH_DONE"
	StageBlocked     Stage = "BLOCKED"
	StageMatch       Stage = "MATCH"
	StageProductDone Stage = "PRODUCT_DONE"
)

// Event captures a single milestone of a scan run.
type Event struct {
	// RunID identifies the run the event belongs to.
	RunID uuid.UUID
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// Product names the catalog product for product-scoped stages.
	Product string
	// Competitor carries the competitor key for MATCH events.
	Competitor string
	// Query is the search query for SEARCH_DONE and BLOCKED events.
	Query string
	// Total carries the catalog size on RUN_START.
	Total int
	// PricesFound counts resolved competitor prices on PRODUCT_DONE.
	PricesFound int
	// Dur captures execution latency where meaningful.
	Dur time.Duration
	// Note lets emitters attach low-volume debug context (e.g. error text).
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == uuid.Nil {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone, StageRunError, StageSearchDone, StageBlocked:
	case StageMatch:
		if e.Competitor == "" {
			return errors.New("match requires competitor")
		}
	case StageProductDone:
		if e.Product == "" {
			return errors.New("product done requires product")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
