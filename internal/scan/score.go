package scan

import (
	"regexp"
	"strings"
)

// Match score weights. These constants define the selection policy; changing
// any of them changes which candidate wins for every product, so treat them
// as part of the output contract.
const (
	positionWeight  = 0.3
	brandWeight     = 0.4
	productWeight   = 0.3
	exactBrandBonus = 0.2
	sizeMatchBonus  = 0.1

	// Tokens at or below these lengths carry no signal ("of", "the", "2x").
	minBrandTokenLen   = 2
	minProductTokenLen = 3

	// Results ranked at or past this position contribute no position score.
	positionScoreFloor = 21
)

var (
	tokenBoundary = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	sizePattern   = regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:oz|ml|g|kg|lb)`)
)

// Score rates how well a candidate matches the product, in [0, 1]. It is an
// additive heuristic: a rank prior, brand and product token coverage, an
// exact-brand bonus, and a bonus per size/quantity mention shared between the
// product name and the result text.
func Score(c Candidate, p Product) float64 {
	searchText := strings.ToLower(c.Label + " " + c.BodyText)
	brand := strings.ToLower(p.Brand)
	name := strings.ToLower(p.Name)

	score := positionScore(c.Position) * positionWeight
	score += tokenCoverage(brand, minBrandTokenLen, searchText) * brandWeight
	score += tokenCoverage(name, minProductTokenLen, searchText) * productWeight

	if brand != "" && strings.Contains(searchText, brand) {
		score += exactBrandBonus
	}
	for _, size := range sizePattern.FindAllString(name, -1) {
		if strings.Contains(searchText, size) {
			score += sizeMatchBonus
		}
	}

	if score > 1.0 {
		return 1.0
	}
	return score
}

func positionScore(position int) float64 {
	s := float64(positionScoreFloor-position) / float64(positionScoreFloor-1)
	if s < 0 {
		return 0
	}
	return s
}

// tokenCoverage returns the fraction of qualifying tokens from text that
// appear as substrings of searchText.
func tokenCoverage(text string, minLen int, searchText string) float64 {
	tokens := splitTokens(text, minLen)
	if len(tokens) == 0 {
		return 0
	}
	found := 0
	for _, token := range tokens {
		if strings.Contains(searchText, token) {
			found++
		}
	}
	return float64(found) / float64(len(tokens))
}

func splitTokens(text string, minLen int) []string {
	if text == "" {
		return nil
	}
	var tokens []string
	for _, part := range tokenBoundary.Split(text, -1) {
		if len(part) > minLen {
			tokens = append(tokens, part)
		}
	}
	return tokens
}
