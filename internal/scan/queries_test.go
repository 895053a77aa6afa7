package scan

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryVariants_FullProduct(t *testing.T) {
	t.Parallel()

	p := Product{Name: "Big Apple Red", Brand: "OPI", Barcode: "0094100004747"}
	require.Equal(t, []string{
		"OPI Big Apple Red",
		`"OPI" "Big Apple Red"`,
		"Big Apple Red OPI",
		"OPI 0094100004747",
	}, QueryVariants(p))
}

func TestQueryVariants_NoBarcode(t *testing.T) {
	t.Parallel()

	p := Product{Name: "Big Apple Red", Brand: "OPI"}
	variants := QueryVariants(p)
	require.Len(t, variants, 3)
}

func TestQueryVariants_MissingFields(t *testing.T) {
	t.Parallel()

	require.Nil(t, QueryVariants(Product{Name: "Big Apple Red"}))
	require.Nil(t, QueryVariants(Product{Brand: "OPI"}))
	require.Nil(t, QueryVariants(Product{Name: "   ", Brand: "OPI"}))
}

func TestSearchURL(t *testing.T) {
	t.Parallel()

	raw := SearchURL("OPI Big Apple Red")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "www.google.com", u.Host)
	require.Equal(t, "/search", u.Path)
	require.Equal(t, "OPI Big Apple Red", u.Query().Get("q"))
	require.Equal(t, "ca", u.Query().Get("gl"))
	require.Equal(t, "en", u.Query().Get("hl"))
}
