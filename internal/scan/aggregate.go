package scan

import (
	"net/url"
	"strings"
)

// Validation ladder bounds for candidate acceptance.
const (
	trustedPositionMax  = 10
	extendedPositionMax = 20

	// Accepted multiplier band around the product's own reference price.
	reasonableLowMultiplier  = 0.3
	reasonableHighMultiplier = 3.0

	// Generic band used when no reference price is known.
	genericPriceLow  = 5.00
	genericPriceHigh = 500.00
)

// Aggregator reduces an unordered candidate stream to the best MatchRecord
// per competitor for a single product. It persists across all query variants
// of that product; an accepted record is only ever replaced by a strictly
// better one.
type Aggregator struct {
	registry Registry
	product  Product
	best     map[string]MatchRecord
}

// NewAggregator returns an empty accumulator for one product.
func NewAggregator(reg Registry, p Product) *Aggregator {
	return &Aggregator{
		registry: reg,
		product:  p,
		best:     make(map[string]MatchRecord),
	}
}

// Consider resolves, validates and scores one candidate, updating the
// competitor's best record when warranted. It returns the competitor key and
// true when the candidate replaced (or created) a record; candidates that
// resolve to no registered competitor, carry no price, or fail validation
// are no-ops.
func (a *Aggregator) Consider(c Candidate) (string, bool) {
	link, host := resolveLink(c.RawLink)
	if host == "" {
		return "", false
	}
	c.Domain = host
	key, ok := a.registry.Resolve(host)
	if !ok {
		return "", false
	}

	price, ok := ParseLabelPrice(c.Label)
	if !ok {
		price, ok = ParseBodyPrice(c.BodyText)
	}
	if !ok {
		return "", false
	}

	if !a.validate(c, price) {
		return "", false
	}

	incoming := MatchRecord{
		Price:    price,
		URL:      link,
		Position: c.Position,
		Score:    Score(c, a.product),
	}
	existing, exists := a.best[key]
	if exists && !shouldReplace(existing, incoming) {
		return key, false
	}
	a.best[key] = incoming
	return key, true
}

// Best returns a copy of the current per-competitor records.
func (a *Aggregator) Best() map[string]MatchRecord {
	out := make(map[string]MatchRecord, len(a.best))
	for key, rec := range a.best {
		out[key] = rec
	}
	return out
}

// HasAnyMatch reports whether at least one competitor has a resolved price.
func (a *Aggregator) HasAnyMatch() bool {
	return len(a.best) > 0
}

// Result externalizes the accumulated records, stripping position and score.
func (a *Aggregator) Result() ProductResult {
	result := EmptyResult(a.product, a.registry)
	for key, rec := range a.best {
		price := rec.Price
		u := rec.URL
		result.Competitors[key] = CompetitorMatch{Price: &price, URL: &u}
	}
	return result
}

// validate accepts the candidate under the first rung that passes: trusted
// top rank, price plausibility, minimal keyword overlap, then the permissive
// extended-rank rung. The last rung deliberately trusts the search engine's
// ranking for registered domains even with no other evidence.
func (a *Aggregator) validate(c Candidate, price float64) bool {
	switch {
	case c.Position <= trustedPositionMax:
		return true
	case a.priceReasonable(price):
		return true
	case a.hasKeywordOverlap(c):
		return true
	case c.Position <= extendedPositionMax:
		return true
	default:
		return false
	}
}

func (a *Aggregator) priceReasonable(price float64) bool {
	if ref, ok := a.product.ReferencePrice(); ok {
		return price >= ref*reasonableLowMultiplier && price <= ref*reasonableHighMultiplier
	}
	return price >= genericPriceLow && price <= genericPriceHigh
}

func (a *Aggregator) hasKeywordOverlap(c Candidate) bool {
	searchText := strings.ToLower(c.Label + " " + c.BodyText)
	for _, token := range splitTokens(strings.ToLower(a.product.Brand), minBrandTokenLen) {
		if strings.Contains(searchText, token) {
			return true
		}
	}
	for _, token := range splitTokens(strings.ToLower(a.product.Name), minProductTokenLen) {
		if strings.Contains(searchText, token) {
			return true
		}
	}
	return false
}

// shouldReplace implements the tie-break precedence: higher score, then
// lower position at equal score, then lower price at equal score and
// position. The first three rules make the reduction order-independent; the
// price rule resolves the residual tie deterministically toward the cheaper
// listing.
func shouldReplace(existing, incoming MatchRecord) bool {
	switch {
	case incoming.Score > existing.Score:
		return true
	case incoming.Score == existing.Score && incoming.Position < existing.Position:
		return true
	case incoming.Score == existing.Score && incoming.Position == existing.Position && incoming.Price < existing.Price:
		return true
	default:
		return false
	}
}

// resolveLink unwraps aggregator redirect links of the /url?q=<target> form
// and returns the cleaned link plus its bare hostname (leading www.
// stripped). An unparseable link yields an empty host.
func resolveLink(raw string) (string, string) {
	if raw == "" {
		return "", ""
	}
	if idx := strings.Index(raw, "/url?"); idx >= 0 {
		if u, err := url.Parse(raw[idx:]); err == nil {
			if target := u.Query().Get("q"); target != "" {
				raw = target
			}
		}
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", ""
	}
	host := strings.ToLower(parsed.Hostname())
	host = strings.TrimPrefix(host, "www.")
	return raw, host
}
