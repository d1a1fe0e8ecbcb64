package duck

import (
	"context"
	"testing"
	"time"

	"tripkit/trip"

	"github.com/stretchr/testify/require"
)

func testRecords(t *testing.T, n int) []trip.Record {
	t.Helper()
	month, err := trip.ParseMonth("2020-01")
	require.NoError(t, err)
	clock := func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	norm := trip.NewNormalizer(trip.Green, month, trip.WithClock(clock))

	recs := make([]trip.Record, n)
	for i := range recs {
		pickup := time.Date(2020, 1, 5, 8, i, 0, 0, time.UTC)
		recs[i] = norm.Record(map[string]string{
			"lpep_pickup_datetime":  pickup.Format("2006-01-02 15:04:05"),
			"lpep_dropoff_datetime": pickup.Add(20 * time.Minute).Format("2006-01-02 15:04:05"),
			"PULocationID":          "10",
			"DOLocationID":          "20",
			"fare_amount":           "15.0",
			"trip_type":             "1",
		})
	}
	return recs
}

func TestTripLoader(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	loader, err := NewTripLoader(ctx, db, "trips")
	require.NoError(t, err)

	recs := testRecords(t, 5)
	require.NoError(t, loader.Load(ctx, recs))

	n, err := loader.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	var fare float64
	err = db.QueryRowContext(ctx,
		"SELECT fare_amount FROM trips WHERE trip_id = ?", recs[0].TripID).Scan(&fare)
	require.NoError(t, err)
	require.Equal(t, 15.0, fare)
}

func TestTripLoaderIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	loader, err := NewTripLoader(ctx, db, "trips")
	require.NoError(t, err)

	recs := testRecords(t, 5)
	require.NoError(t, loader.Load(ctx, recs))
	// the whole batch again, plus one new record
	require.NoError(t, loader.Load(ctx, append(recs, testRecords(t, 6)[5])))

	n, err := loader.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(6), n)
}

func TestTripLoaderNulls(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	loader, err := NewTripLoader(ctx, db, "trips")
	require.NoError(t, err)

	month, err := trip.ParseMonth("2020-01")
	require.NoError(t, err)
	norm := trip.NewNormalizer(trip.FHV, month)
	rec := norm.Record(map[string]string{
		"pickup_datetime":      "2020-01-05 09:00:00",
		"dispatching_base_num": "B02510",
	})
	require.NoError(t, loader.Load(ctx, []trip.Record{rec}))

	var fare *float64
	err = db.QueryRowContext(ctx,
		"SELECT fare_amount FROM trips WHERE trip_id = ?", rec.TripID).Scan(&fare)
	require.NoError(t, err)
	require.Nil(t, fare)
}

func TestTripLoaderEmptyBatch(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	defer db.Close()

	loader, err := NewTripLoader(ctx, db, "trips")
	require.NoError(t, err)
	require.NoError(t, loader.Load(ctx, nil))
}
