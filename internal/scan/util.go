package scan

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// SnapshotName builds a stable, filesystem-safe object name for a page
// snapshot: a sanitized query slug, the fetch timestamp, and a short hash to
// keep repeated queries distinct.
func SnapshotName(query string, at time.Time) string {
	slug := unsafeNameChars.ReplaceAllString(strings.ToLower(query), "_")
	slug = strings.Trim(slug, "_")
	if len(slug) > 60 {
		slug = slug[:60]
	}
	if slug == "" {
		slug = "page"
	}
	sum := sha1.Sum([]byte(query))
	return fmt.Sprintf("%s_%s_%s.html",
		slug,
		at.UTC().Format("20060102T150405"),
		hex.EncodeToString(sum[:])[:8],
	)
}
