package scan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLabelPrice_ForDollarForm(t *testing.T) {
	t.Parallel()

	price, ok := ParseLabelPrice("OPI Nail Lacquer, 15 ml for $12.99 from coastalbeauty.ca")
	require.True(t, ok)
	require.Equal(t, 12.99, price)
}

func TestParseLabelPrice_PrefersAnchoredForm(t *testing.T) {
	t.Parallel()

	// Two dollar amounts: the "for $" form should win over the bare one.
	price, ok := ParseLabelPrice("was $30.00, now for $24.50")
	require.True(t, ok)
	require.Equal(t, 24.50, price)
}

func TestParseLabelPrice_CADSuffix(t *testing.T) {
	t.Parallel()

	price, ok := ParseLabelPrice("Shampoo 500ml 19.99 CAD")
	require.True(t, ok)
	require.Equal(t, 19.99, price)
}

func TestParseLabelPrice_ThousandsSeparator(t *testing.T) {
	t.Parallel()

	price, ok := ParseLabelPrice("Pro dryer for $1,299.00")
	require.True(t, ok)
	require.Equal(t, 1299.00, price)
}

func TestParseLabelPrice_OutOfBounds(t *testing.T) {
	t.Parallel()

	_, ok := ParseLabelPrice("clearance for $0.50")
	require.False(t, ok)

	_, ok = ParseLabelPrice("bundle for $2,500.00")
	require.False(t, ok)
}

func TestParseLabelPrice_NoPrice(t *testing.T) {
	t.Parallel()

	_, ok := ParseLabelPrice("OPI Nail Lacquer Big Apple Red")
	require.False(t, ok)

	_, ok = ParseLabelPrice("")
	require.False(t, ok)
}

func TestParseBodyPrice_SkipsOutOfBoundsMatches(t *testing.T) {
	t.Parallel()

	// The first dollar match is out of bounds; the second is in bounds and
	// must be found.
	price, ok := ParseBodyPrice("over 3000 sold $0.10 per point. Price: $45.00")
	require.True(t, ok)
	require.Equal(t, 45.00, price)
}

func TestParseBodyPrice_CanadianDollarPrefix(t *testing.T) {
	t.Parallel()

	price, ok := ParseBodyPrice("C$ 33.50 free shipping")
	require.True(t, ok)
	require.Equal(t, 33.50, price)
}

func TestParseBodyPrice_BareDecimalFallback(t *testing.T) {
	t.Parallel()

	price, ok := ParseBodyPrice("Brand Widget 24.99 In stock")
	require.True(t, ok)
	require.Equal(t, 24.99, price)
}

func TestParseBodyPrice_BareIntegerNotAccepted(t *testing.T) {
	t.Parallel()

	// Bare numbers without cents are too ambiguous (sizes, counts).
	_, ok := ParseBodyPrice("pack of 24 wipes")
	require.False(t, ok)
}

func TestParseBodyPrice_Empty(t *testing.T) {
	t.Parallel()

	_, ok := ParseBodyPrice("")
	require.False(t, ok)
}

func TestParseBoundedPrice_RoundsToCents(t *testing.T) {
	t.Parallel()

	price, ok := parseBoundedPrice("19.999")
	require.True(t, ok)
	require.Equal(t, 20.0, price)
}
