// Package publisher emits product-resolved events to downstream consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/competiscan/competiscan/internal/scan"
)

// Event is the payload published when a product finishes resolving.
type Event struct {
	RunID       string    `json:"run_id"`
	ProductName string    `json:"product_name"`
	Brand       string    `json:"brand,omitempty"`
	Barcode     string    `json:"barcode,omitempty"`
	PricesFound int       `json:"prices_found"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// Publisher delivers resolved-product events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// EventFromResult builds the published payload for a resolved product.
func EventFromResult(runID string, result scan.ProductResult, at time.Time) Event {
	found := 0
	for _, match := range result.Competitors {
		if match.Price != nil {
			found++
		}
	}
	return Event{
		RunID:       runID,
		ProductName: result.ProductName,
		Brand:       result.Brand,
		Barcode:     result.Barcode,
		PricesFound: found,
		ResolvedAt:  at,
	}
}

func marshalEvent(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}
