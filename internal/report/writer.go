package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/competiscan/competiscan/internal/scan"
)

// Row is a flattened scan result: one object per product, with a
// "<competitor>_price" and "<competitor>_url" pair for every storefront.
type Row map[string]any

// Summary aggregates hit counts across a run.
type Summary struct {
	Products       int            `json:"products"`
	ProductsHit    int            `json:"products_with_matches"`
	PricesFound    int            `json:"prices_found"`
	CompetitorHits map[string]int `json:"competitor_hits"`
}

// Collector accumulates flattened rows as results arrive. It implements the
// result store interface used by the run orchestrator.
type Collector struct {
	keys []string

	mu   sync.Mutex
	rows []Row
	sum  Summary
}

// NewCollector creates a collector producing a column pair for each
// registered competitor key.
func NewCollector(reg scan.Registry) *Collector {
	return &Collector{
		keys: reg.Keys(),
		sum:  Summary{CompetitorHits: make(map[string]int)},
	}
}

// StoreResult flattens the result into a row and updates the summary.
func (c *Collector) StoreResult(_ context.Context, _ string, result scan.ProductResult) error {
	row := Row{
		"product_name": result.ProductName,
		"brand":        result.Brand,
		"barcode":      result.Barcode,
	}
	if result.SalePrice != nil {
		row["sale_price"] = *result.SalePrice
	}
	if result.RegularPrice != nil {
		row["regular_price"] = *result.RegularPrice
	}

	hit := false
	for _, key := range c.keys {
		match := result.Competitors[key]
		if match.Price != nil {
			row[key+"_price"] = *match.Price
		} else {
			row[key+"_price"] = nil
		}
		if match.URL != nil {
			row[key+"_url"] = *match.URL
		} else {
			row[key+"_url"] = nil
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, row)
	c.sum.Products++
	for _, key := range c.keys {
		if result.Competitors[key].Price != nil {
			c.sum.CompetitorHits[key]++
			c.sum.PricesFound++
			hit = true
		}
	}
	if hit {
		c.sum.ProductsHit++
	}
	return nil
}

// Rows returns a copy of the collected rows.
func (c *Collector) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Row, len(c.rows))
	copy(out, c.rows)
	return out
}

// Summary returns the current run summary.
func (c *Collector) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	sum := c.sum
	sum.CompetitorHits = make(map[string]int, len(c.sum.CompetitorHits))
	for k, v := range c.sum.CompetitorHits {
		sum.CompetitorHits[k] = v
	}
	return sum
}

// WriteFile writes the collected rows and summary as a JSON document.
func (c *Collector) WriteFile(path string) error {
	c.mu.Lock()
	doc := struct {
		Summary Summary `json:"summary"`
		Results []Row   `json:"results"`
	}{
		Summary: c.sum,
		Results: c.rows,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	return nil
}

// TopCompetitors returns competitor keys ordered by descending hit count,
// ties broken alphabetically.
func (s Summary) TopCompetitors() []string {
	keys := make([]string, 0, len(s.CompetitorHits))
	for k := range s.CompetitorHits {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if s.CompetitorHits[keys[i]] != s.CompetitorHits[keys[j]] {
			return s.CompetitorHits[keys[i]] > s.CompetitorHits[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
