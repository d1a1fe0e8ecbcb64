package trip_test

import (
	"bytes"
	"compress/gzip"
	"strings"
	"testing"

	"tripkit/trip"
)

func gzipCSV(t *testing.T, content string) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	gz := gzip.NewWriter(buf)
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("writing gzip: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("closing gzip: %v", err)
	}
	return buf
}

func TestReadAll(t *testing.T) {
	buf := gzipCSV(t, `lpep_pickup_datetime,lpep_dropoff_datetime,PULocationID,DOLocationID,fare_amount,trip_type
2020-01-05 08:00:00,2020-01-05 08:20:00,10,20,15.0,1
2020-01-06 09:00:00,2020-01-06 09:05:00,30,40,5.5,2
`)
	recs, err := testNormalizer(t, trip.Green).ReadAll(buf)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("wrong number of records: %d", len(recs))
	}
	if recs[0].FareAmount == nil || *recs[0].FareAmount != 15.0 {
		t.Fatalf("wrong fare: %v", recs[0].FareAmount)
	}
	if recs[1].TripType == nil || *recs[1].TripType != 2 {
		t.Fatalf("wrong trip type: %v", recs[1].TripType)
	}
	if recs[0].TripID == recs[1].TripID {
		t.Fatalf("distinct trips got the same id: %v", recs[0].TripID)
	}
}

func TestReadAllShortRow(t *testing.T) {
	// trailing columns absent from a row come out null, not as an error
	buf := gzipCSV(t, "lpep_pickup_datetime,lpep_dropoff_datetime,PULocationID,DOLocationID,fare_amount\n2020-01-05 08:00:00,2020-01-05 08:20:00,10\n")
	recs, err := testNormalizer(t, trip.Green).ReadAll(buf)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("wrong number of records: %d", len(recs))
	}
	if recs[0].DropoffLocationID != nil || recs[0].FareAmount != nil {
		t.Fatalf("short row should leave trailing columns null: %+v", recs[0])
	}
}

func TestReadAllCorruptStream(t *testing.T) {
	_, err := testNormalizer(t, trip.Green).ReadAll(strings.NewReader("this is not gzip"))
	if err == nil {
		t.Fatalf("corrupt stream should fail the batch")
	}
}

func TestReadAllBadHeader(t *testing.T) {
	buf := gzipCSV(t, "a,b,a\n1,2,3\n")
	_, err := testNormalizer(t, trip.Green).ReadAll(buf)
	if err == nil {
		t.Fatalf("duplicate header should fail the batch")
	}
}
