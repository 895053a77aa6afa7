package scan

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Accepted price bounds. Anything outside is treated as a non-price (a
// review count, a product size, a SKU fragment).
const (
	MinPrice = 1.00
	MaxPrice = 2000.00
)

// Label patterns are ordered: accessibility labels usually embed the price
// in a sentence ("... for $24.99"), so the anchored form wins over the bare
// dollar form, which wins over the CAD-suffixed form.
var labelPricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)for\s+\$(\d+(?:,\d{3})*(?:\.\d{2})?)`),
	regexp.MustCompile(`\$(\d+(?:,\d{3})*(?:\.\d{2})?)`),
	regexp.MustCompile(`(?i)(\d+(?:,\d{3})*(?:\.\d{2})?)\s*CAD`),
}

var bodyPricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`C?\$\s*(\d{1,4}(?:,\d{3})*(?:\.\d{2})?)`),
	regexp.MustCompile(`(\d{1,4}(?:,\d{3})*(?:\.\d{2})?)\s*CAD`),
	regexp.MustCompile(`(\d{1,4}(?:,\d{3})*(?:\.\d{2}))`),
}

// ParseLabelPrice extracts a price from an accessibility label. The first
// pattern whose match lands inside the accepted bounds wins. The bool is
// false when no pattern yields an in-bounds value; that is a normal outcome,
// not an error.
func ParseLabelPrice(label string) (float64, bool) {
	if label == "" {
		return 0, false
	}
	for _, pattern := range labelPricePatterns {
		m := pattern.FindStringSubmatch(label)
		if m == nil {
			continue
		}
		if price, ok := parseBoundedPrice(m[1]); ok {
			return price, true
		}
	}
	return 0, false
}

// ParseBodyPrice extracts a price from free body text. Unlike labels, body
// text often carries several numbers, so every match of each pattern is
// tried until one is in bounds.
func ParseBodyPrice(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	for _, pattern := range bodyPricePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			if price, ok := parseBoundedPrice(m[1]); ok {
				return price, true
			}
		}
	}
	return 0, false
}

func parseBoundedPrice(raw string) (float64, bool) {
	raw = strings.ReplaceAll(raw, ",", "")
	price, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	if price < MinPrice || price > MaxPrice {
		return 0, false
	}
	return math.Round(price*100) / 100, true
}
