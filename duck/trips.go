package duck

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tripkit/trip"

	"github.com/pkg/errors"
)

// tripColumnTypes gives the DuckDB type for each column of trip.Columns, in
// the same order.
var tripColumnTypes = []string{
	"VARCHAR",   // data_file_month
	"VARCHAR",   // service_type
	"VARCHAR",   // trip_id
	"BIGINT",    // vendor_id
	"TIMESTAMP", // pickup_datetime
	"TIMESTAMP", // dropoff_datetime
	"BIGINT",    // pickup_location_id
	"BIGINT",    // dropoff_location_id
	"DOUBLE",    // trip_distance
	"BIGINT",    // passenger_count
	"BIGINT",    // ratecode_id
	"VARCHAR",   // store_and_fwd_flag
	"BIGINT",    // payment_type
	"DOUBLE",    // fare_amount
	"DOUBLE",    // extra
	"DOUBLE",    // mta_tax
	"DOUBLE",    // tip_amount
	"DOUBLE",    // tolls_amount
	"DOUBLE",    // improvement_surcharge
	"DOUBLE",    // total_amount
	"BIGINT",    // trip_type
	"DOUBLE",    // ehail_fee
	"VARCHAR",   // dispatching_base_num
	"VARCHAR",   // affiliated_base_number
	"BIGINT",    // sr_flag
	"TIMESTAMP", // extracted_at
}

// TripLoader appends normalized trips to one table. Re-loading records with
// already-seen trip ids is a no-op, so re-running an ingest over the same
// source file cannot create duplicate semantic rows.
type TripLoader struct {
	db     *sql.DB
	table  string
	insert string
}

// NewTripLoader ensures the destination table exists and returns a loader
// writing to it.
func NewTripLoader(ctx context.Context, db *sql.DB, table string) (*TripLoader, error) {
	defs := make([]string, len(trip.Columns))
	for i, col := range trip.Columns {
		defs[i] = col + " " + tripColumnTypes[i]
	}
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s, PRIMARY KEY (trip_id))",
		table, strings.Join(defs, ", "))
	if _, err := db.ExecContext(ctx, create); err != nil {
		return nil, errors.Wrapf(err, "creating table %s", table)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(trip.Columns)), ", ")
	insert := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (trip_id) DO NOTHING",
		table, strings.Join(trip.Columns, ", "), placeholders)

	return &TripLoader{db: db, table: table, insert: insert}, nil
}

// Load appends a batch of records in one transaction.
func (l *TripLoader) Load(ctx context.Context, recs []trip.Record) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	stmt, err := tx.PrepareContext(ctx, l.insert)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "preparing insert")
	}
	for i := range recs {
		if _, err := stmt.ExecContext(ctx, recs[i].Values()...); err != nil {
			stmt.Close()
			tx.Rollback()
			return errors.Wrapf(err, "inserting trip %s", recs[i].TripID)
		}
	}
	stmt.Close()
	return errors.Wrap(tx.Commit(), "committing batch")
}

// Count returns the number of rows in the destination table.
func (l *TripLoader) Count(ctx context.Context) (int64, error) {
	var n int64
	err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+l.table).Scan(&n)
	return n, errors.Wrap(err, "counting rows")
}
