package scan

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxCandidatesPerPage caps how many results are lifted from one page; the
// position score already zeroes out past rank 20.
const maxCandidatesPerPage = 20

// Shopping-result anchor selectors, most specific first. The aggregator's
// markup shifts frequently, so direct href selectors per registered domain
// are appended as a fallback.
var candidateSelectors = []string{
	"a.plantl.clickable-card.pla-unit-single-clickable-target",
	"a.plantl",
	"a[data-merchant-id]",
	"a[data-offer-id]",
}

// ExtractCandidates parses a result page and returns the shopping-result
// entries in page order, de-duplicated by href. Position is the 1-based rank
// after de-duplication.
func ExtractCandidates(body []byte, reg Registry) ([]Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse result page: %w", err)
	}

	selectors := append([]string(nil), candidateSelectors...)
	for _, domain := range reg.Domains() {
		selectors = append(selectors, fmt.Sprintf(`a[href*=%q]`, domain))
	}

	seen := make(map[string]struct{})
	var candidates []Candidate
	for _, sel := range selectors {
		doc.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if len(candidates) >= maxCandidatesPerPage {
				return
			}
			href, ok := s.Attr("href")
			if !ok || href == "" {
				return
			}
			if _, dup := seen[href]; dup {
				return
			}
			seen[href] = struct{}{}
			candidates = append(candidates, Candidate{
				RawLink:  href,
				Label:    strings.TrimSpace(s.AttrOr("aria-label", "")),
				BodyText: strings.TrimSpace(s.Text()),
				Position: len(candidates) + 1,
			})
		})
	}
	return candidates, nil
}
