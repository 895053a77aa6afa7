package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/competiscan/competiscan/internal/scan"
)

func TestNewPostgresStoreWithPool_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewPostgresStoreWithPool(nil, "prices")
	require.Error(t, err)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresStoreWithPool(mock, "prices; DROP TABLE prices")
	require.Error(t, err)

	store, err := NewPostgresStoreWithPool(mock, "")
	require.NoError(t, err)
	require.Equal(t, "competitor_prices", store.table)
}

func TestPostgresStore_StoreResultInsertsPricedCompetitors(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "competitor_prices")
	require.NoError(t, err)
	recordedAt := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)
	store.now = func() time.Time { return recordedAt }

	result := scan.EmptyResult(scan.Product{
		Name:    "Big Apple Red Nail Lacquer",
		Brand:   "OPI",
		Barcode: "0094100004747",
	}, scan.DefaultRegistry())
	url := "https://www.coastalbeauty.ca/products/big-apple-red"
	result.Competitors["coastalbeauty"] = scan.CompetitorMatch{Price: ptr(12.99), URL: &url}

	mock.ExpectExec("INSERT INTO competitor_prices").
		WithArgs("run-1", recordedAt, "Big Apple Red Nail Lacquer", "OPI", "0094100004747", "coastalbeauty", 12.99, &url).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.StoreResult(context.Background(), "run-1", result))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StoreResultSkipsUnpriced(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "competitor_prices")
	require.NoError(t, err)

	// Every competitor is null, so no rows are written.
	result := scan.EmptyResult(scan.Product{Name: "No Match Serum"}, scan.DefaultRegistry())
	require.NoError(t, store.StoreResult(context.Background(), "run-1", result))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_StoreResultRequiresRunID(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "competitor_prices")
	require.NoError(t, err)

	err = store.StoreResult(context.Background(), "", scan.ProductResult{})
	require.Error(t, err)
}

func TestPostgresStore_StoreResultPropagatesExecError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "competitor_prices")
	require.NoError(t, err)

	result := scan.EmptyResult(scan.Product{Name: "Big Apple Red Nail Lacquer"}, scan.DefaultRegistry())
	result.Competitors["coastalbeauty"] = scan.CompetitorMatch{Price: ptr(12.99)}

	mock.ExpectExec("INSERT INTO competitor_prices").
		WillReturnError(errors.New("connection reset"))

	err = store.StoreResult(context.Background(), "run-1", result)
	require.Error(t, err)
	require.Contains(t, err.Error(), "insert price row")
}

func TestPostgresStore_NilReceiver(t *testing.T) {
	t.Parallel()

	var store *PostgresStore
	store.Close()
	require.Error(t, store.StoreResult(context.Background(), "run-1", scan.ProductResult{}))
}
