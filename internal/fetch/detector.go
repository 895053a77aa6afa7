package fetch

import (
	"bytes"

	"github.com/competiscan/competiscan/internal/scan"
)

// Heuristic decides when a probe fetch is not good enough and the page
// should be re-fetched with the headless renderer.
type Heuristic struct {
	BodyLengthThreshold int
}

// NewHeuristic creates a promotion heuristic.
func NewHeuristic(threshold int) *Heuristic {
	if threshold == 0 {
		threshold = 4096
	}
	return &Heuristic{BodyLengthThreshold: threshold}
}

// Shopping result pages carry at least one of these markers. A search page
// without them usually means the listing grid was left to JavaScript.
var shoppingMarkers = [][]byte{
	[]byte("data-merchant-id"),
	[]byte("plantl"),
	[]byte("pla-unit"),
}

// ShouldPromote reports whether a headless fetch is required.
func (h *Heuristic) ShouldPromote(page scan.Page) bool {
	if page.StatusCode != 200 {
		return true
	}
	if len(page.Body) < h.BodyLengthThreshold {
		return true
	}
	for _, marker := range shoppingMarkers {
		if bytes.Contains(page.Body, marker) {
			return false
		}
	}
	return true
}
