package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/competiscan/competiscan/internal/scan"
)

// catalogEntry mirrors the nested shape of the exported product catalog.
type catalogEntry struct {
	ProductName string `json:"product_name"`
	CompanyName struct {
		Name string `json:"name"`
	} `json:"companyName"`
	BarCodeValue string `json:"bar_code_value"`
	SalePrice    struct {
		Sale json.Number `json:"sale"`
	} `json:"sale_price"`
	Price struct {
		Regular json.Number `json:"regular"`
	} `json:"price"`
}

// ReadCatalog decodes a product catalog from r.
func ReadCatalog(r io.Reader) ([]scan.Product, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var entries []catalogEntry
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	products := make([]scan.Product, 0, len(entries))
	for i, e := range entries {
		name := strings.TrimSpace(e.ProductName)
		if name == "" {
			return nil, fmt.Errorf("catalog entry %d: product_name is required", i)
		}
		p := scan.Product{
			Name:    name,
			Brand:   strings.TrimSpace(e.CompanyName.Name),
			Barcode: strings.TrimSpace(e.BarCodeValue),
		}
		if v, ok := parsePrice(e.SalePrice.Sale); ok {
			p.SalePrice = &v
		}
		if v, ok := parsePrice(e.Price.Regular); ok {
			p.RegularPrice = &v
		}
		products = append(products, p)
	}
	return products, nil
}

// LoadCatalog reads a catalog from a JSON file on disk.
func LoadCatalog(path string) ([]scan.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ReadCatalog(f)
}

func parsePrice(n json.Number) (float64, bool) {
	s := strings.TrimSpace(n.String())
	if s == "" || s == "0" {
		return 0, false
	}
	v, err := n.Float64()
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
