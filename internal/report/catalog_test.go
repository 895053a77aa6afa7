package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleCatalog = `[
  {
    "product_name": "Big Apple Red Nail Lacquer",
    "companyName": {"name": "OPI"},
    "bar_code_value": "0094100004747",
    "sale_price": {"sale": 11.99},
    "price": {"regular": 14.99}
  },
  {
    "product_name": "Hydrating Shampoo",
    "companyName": {"name": "Moroccanoil"},
    "bar_code_value": "",
    "sale_price": {"sale": "0"},
    "price": {"regular": "28.50"}
  }
]`

func TestReadCatalog_DecodesNestedEntries(t *testing.T) {
	t.Parallel()

	products, err := ReadCatalog(strings.NewReader(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, products, 2)

	first := products[0]
	require.Equal(t, "Big Apple Red Nail Lacquer", first.Name)
	require.Equal(t, "OPI", first.Brand)
	require.Equal(t, "0094100004747", first.Barcode)
	require.NotNil(t, first.SalePrice)
	require.InDelta(t, 11.99, *first.SalePrice, 0.001)
	require.NotNil(t, first.RegularPrice)
	require.InDelta(t, 14.99, *first.RegularPrice, 0.001)
}

func TestReadCatalog_PricesAsStringsAndZeros(t *testing.T) {
	t.Parallel()

	products, err := ReadCatalog(strings.NewReader(sampleCatalog))
	require.NoError(t, err)

	second := products[1]
	require.Equal(t, "Moroccanoil", second.Brand)
	require.Empty(t, second.Barcode)
	require.Nil(t, second.SalePrice, "zero sale price should be absent")
	require.NotNil(t, second.RegularPrice)
	require.InDelta(t, 28.50, *second.RegularPrice, 0.001)
}

func TestReadCatalog_MissingProductName(t *testing.T) {
	t.Parallel()

	_, err := ReadCatalog(strings.NewReader(`[{"product_name": "  "}]`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "product_name")
}

func TestReadCatalog_InvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := ReadCatalog(strings.NewReader(`{"not": "an array"}`))
	require.Error(t, err)
}

func TestReadCatalog_EmptyArray(t *testing.T) {
	t.Parallel()

	products, err := ReadCatalog(strings.NewReader(`[]`))
	require.NoError(t, err)
	require.Empty(t, products)
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := LoadCatalog("/nonexistent/catalog.json")
	require.Error(t, err)
}

func TestParsePrice(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"regular value", "11.99", 11.99, true},
		{"empty", "", 0, false},
		{"zero", "0", 0, false},
		{"negative", "-3.50", 0, false},
		{"not a number", "abc", 0, false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := parsePrice(json.Number(tc.input))
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.InDelta(t, tc.want, got, 0.001)
			}
		})
	}
}
