package scan

import (
	"bytes"
	"strings"
)

// Phrases that mark an anti-bot challenge page rather than real results.
var defaultBlockMarkers = []string{
	"unusual traffic",
	"captcha",
	"verify you are human",
	"prove you're not a robot",
	"suspicious activity",
	"automated queries",
	"please verify",
	"security check",
}

// BlockDetector spots challenge/CAPTCHA pages by marker phrases.
type BlockDetector struct {
	markers [][]byte
}

// NewBlockDetector builds a detector for the given marker phrases, falling
// back to the built-in set when none are supplied.
func NewBlockDetector(markers []string) *BlockDetector {
	if len(markers) == 0 {
		markers = defaultBlockMarkers
	}
	lowered := make([][]byte, 0, len(markers))
	for _, m := range markers {
		m = strings.TrimSpace(m)
		if m == "" {
			continue
		}
		lowered = append(lowered, bytes.ToLower([]byte(m)))
	}
	return &BlockDetector{markers: lowered}
}

// Blocked reports whether the page body is a challenge page.
func (d *BlockDetector) Blocked(body []byte) bool {
	if d == nil || len(body) == 0 {
		return false
	}
	lower := bytes.ToLower(body)
	for _, marker := range d.markers {
		if bytes.Contains(lower, marker) {
			return true
		}
	}
	return false
}
