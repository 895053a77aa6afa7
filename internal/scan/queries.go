package scan

import (
	"fmt"
	"net/url"
	"strings"
)

const searchBaseURL = "https://www.google.com/search"

// QueryVariants returns the ordered search queries to try for a product:
// brand-first, quoted-exact, name-first, and a barcode query when the
// catalog carries one. Later variants only run when earlier ones produced no
// competitor match.
func QueryVariants(p Product) []string {
	brand := strings.TrimSpace(p.Brand)
	name := strings.TrimSpace(p.Name)
	if brand == "" || name == "" {
		return nil
	}
	variants := []string{
		fmt.Sprintf("%s %s", brand, name),
		fmt.Sprintf("%q %q", brand, name),
		fmt.Sprintf("%s %s", name, brand),
	}
	if barcode := strings.TrimSpace(p.Barcode); barcode != "" {
		variants = append(variants, fmt.Sprintf("%s %s", brand, barcode))
	}
	return variants
}

// SearchURL builds the aggregator search URL for a query, pinned to the
// Canadian storefront and English results.
func SearchURL(query string) string {
	params := url.Values{
		"q":  {query},
		"gl": {"ca"},
		"hl": {"en"},
	}
	return searchBaseURL + "?" + params.Encode()
}
