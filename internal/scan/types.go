package scan

// Product describes one catalog entry to resolve competitor prices for.
// Instances are immutable once built from catalog input.
type Product struct {
	Name         string
	Brand        string
	Barcode      string
	SalePrice    *float64
	RegularPrice *float64
}

// ReferencePrice returns the product's own price, preferring the sale price
// over the regular price. The second return is false when neither is known.
func (p Product) ReferencePrice() (float64, bool) {
	if p.SalePrice != nil {
		return *p.SalePrice, true
	}
	if p.RegularPrice != nil {
		return *p.RegularPrice, true
	}
	return 0, false
}

// Candidate is one search-result entry lifted from a result page. Candidates
// are ephemeral: created during page parsing and discarded after aggregation.
type Candidate struct {
	RawLink  string
	Domain   string
	Label    string
	BodyText string
	Position int
}

// MatchRecord is the per-competitor accumulator kept while resolving one
// product. The best record per competitor survives across query attempts and
// is never downgraded.
type MatchRecord struct {
	Price    float64
	URL      string
	Position int
	Score    float64
}

// CompetitorMatch is the externalized per-competitor outcome. Price and URL
// are either both set or both nil; position and score never leave the
// aggregator.
type CompetitorMatch struct {
	Price *float64
	URL   *string
}

// ProductResult is the final per-product output: the identifying catalog
// fields plus one CompetitorMatch per registered competitor key.
type ProductResult struct {
	ProductName  string
	Brand        string
	Barcode      string
	SalePrice    *float64
	RegularPrice *float64
	Competitors  map[string]CompetitorMatch
}

// EmptyResult builds a structurally valid result with every competitor field
// null, used both as the starting state and as the degraded outcome when a
// product fails entirely.
func EmptyResult(p Product, reg Registry) ProductResult {
	competitors := make(map[string]CompetitorMatch, reg.Len())
	for _, key := range reg.Keys() {
		competitors[key] = CompetitorMatch{}
	}
	return ProductResult{
		ProductName:  p.Name,
		Brand:        p.Brand,
		Barcode:      p.Barcode,
		SalePrice:    p.SalePrice,
		RegularPrice: p.RegularPrice,
		Competitors:  competitors,
	}
}

// Page is the raw outcome of fetching one search URL.
type Page struct {
	URL          string
	FinalURL     string
	StatusCode   int
	Body         []byte
	UsedHeadless bool
}
