package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/competiscan/competiscan/internal/scan"
)

func ptr[T any](v T) *T { return &v }

func TestEventFromResult_CountsPrices(t *testing.T) {
	t.Parallel()

	result := scan.EmptyResult(scan.Product{
		Name:    "Big Apple Red Nail Lacquer",
		Brand:   "OPI",
		Barcode: "0094100004747",
	}, scan.DefaultRegistry())
	result.Competitors["coastalbeauty"] = scan.CompetitorMatch{Price: ptr(12.99)}
	result.Competitors["shopempire"] = scan.CompetitorMatch{Price: ptr(10.50)}

	at := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	ev := EventFromResult("run-1", result, at)
	require.Equal(t, "run-1", ev.RunID)
	require.Equal(t, "Big Apple Red Nail Lacquer", ev.ProductName)
	require.Equal(t, "OPI", ev.Brand)
	require.Equal(t, "0094100004747", ev.Barcode)
	require.Equal(t, 2, ev.PricesFound)
	require.Equal(t, at, ev.ResolvedAt)
}

func TestEventFromResult_NoMatches(t *testing.T) {
	t.Parallel()

	result := scan.EmptyResult(scan.Product{Name: "No Match Serum"}, scan.DefaultRegistry())
	ev := EventFromResult("run-1", result, time.Now().UTC())
	require.Zero(t, ev.PricesFound)
}

func TestMemoryPublisher_RecordsEvents(t *testing.T) {
	t.Parallel()

	pub := NewMemoryPublisher()
	ctx := context.Background()
	require.NoError(t, pub.Publish(ctx, Event{ProductName: "a"}))
	require.NoError(t, pub.Publish(ctx, Event{ProductName: "b"}))
	require.NoError(t, pub.Close())

	events := pub.Events()
	require.Len(t, events, 2)
	require.Equal(t, "a", events[0].ProductName)
	require.Equal(t, "b", events[1].ProductName)
}

func TestMarshalEvent_OmitsEmptyOptionalFields(t *testing.T) {
	t.Parallel()

	data, err := marshalEvent(Event{RunID: "run-1", ProductName: "x"})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.NotContains(t, decoded, "brand")
	require.NotContains(t, decoded, "barcode")
	require.Contains(t, decoded, "prices_found")
}
