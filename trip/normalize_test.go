package trip_test

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"tripkit/trip"
)

func testNormalizer(t *testing.T, service trip.Service) *trip.Normalizer {
	t.Helper()
	month, err := trip.ParseMonth("2020-01")
	if err != nil {
		t.Fatalf("parsing month: %v", err)
	}
	clock := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return trip.NewNormalizer(service, month, trip.WithClock(clock))
}

func greenRow() map[string]string {
	return map[string]string{
		"lpep_pickup_datetime":  "2020-01-05T08:00:00",
		"lpep_dropoff_datetime": "2020-01-05T08:20:00",
		"PULocationID":          "10",
		"DOLocationID":          "20",
		"fare_amount":           "15.0",
		"trip_type":             "2",
		"ehail_fee":             "1.25",
	}
}

func TestGreenScenario(t *testing.T) {
	rec := testNormalizer(t, trip.Green).Record(greenRow())

	if rec.ServiceType != "green" {
		t.Fatalf("wrong service type: %v", rec.ServiceType)
	}
	if rec.DataFileMonth != "2020-01" {
		t.Fatalf("wrong data file month: %v", rec.DataFileMonth)
	}
	if rec.PickupDatetime == nil || !rec.PickupDatetime.Equal(time.Date(2020, 1, 5, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("wrong pickup: %v", rec.PickupDatetime)
	}
	if rec.PickupLocationID == nil || *rec.PickupLocationID != 10 {
		t.Fatalf("wrong pickup location: %v", rec.PickupLocationID)
	}
	// green keeps its own columns
	if rec.TripType == nil || *rec.TripType != 2 {
		t.Fatalf("trip_type should survive for green: %v", rec.TripType)
	}
	if rec.EhailFee == nil || *rec.EhailFee != 1.25 {
		t.Fatalf("ehail_fee should survive for green: %v", rec.EhailFee)
	}

	sum := sha256.Sum256([]byte("green|2020-01-05T08:00:00|2020-01-05T08:20:00|10|20|15.0"))
	want := hex.EncodeToString(sum[:])[:32]
	if rec.TripID != want {
		t.Fatalf("trip id %v, want %v", rec.TripID, want)
	}
}

func TestFamilyIsolation(t *testing.T) {
	// same row claimed as yellow: coincidental green-only columns must not leak
	row := greenRow()
	row["tpep_pickup_datetime"] = row["lpep_pickup_datetime"]
	row["tpep_dropoff_datetime"] = row["lpep_dropoff_datetime"]
	rec := testNormalizer(t, trip.Yellow).Record(row)

	if rec.TripType != nil {
		t.Fatalf("trip_type should be null for yellow, got %v", *rec.TripType)
	}
	if rec.EhailFee != nil {
		t.Fatalf("ehail_fee should be null for yellow, got %v", *rec.EhailFee)
	}
}

func TestDeterminism(t *testing.T) {
	a := testNormalizer(t, trip.Green).Record(greenRow())
	b := testNormalizer(t, trip.Green).Record(greenRow())
	if a.TripID != b.TripID {
		t.Fatalf("trip ids differ across invocations: %v vs %v", a.TripID, b.TripID)
	}
}

func TestFallbackPriority(t *testing.T) {
	row := greenRow()
	row["PULocationID"] = "5"
	row["PUlocationID"] = "9"
	rec := testNormalizer(t, trip.Green).Record(row)
	if rec.PickupLocationID == nil || *rec.PickupLocationID != 5 {
		t.Fatalf("capitalized spelling should win: %v", rec.PickupLocationID)
	}

	// a present-but-empty higher priority column must not shadow the other spelling
	row["PULocationID"] = ""
	rec = testNormalizer(t, trip.Green).Record(row)
	if rec.PickupLocationID == nil || *rec.PickupLocationID != 9 {
		t.Fatalf("empty column should not shadow populated fallback: %v", rec.PickupLocationID)
	}
}

func TestNullDistinguishability(t *testing.T) {
	withFare := testNormalizer(t, trip.Green).Record(greenRow())
	row := greenRow()
	delete(row, "fare_amount")
	withoutFare := testNormalizer(t, trip.Green).Record(row)

	if withoutFare.FareAmount != nil {
		t.Fatalf("missing fare should be null: %v", *withoutFare.FareAmount)
	}
	if withFare.TripID == withoutFare.TripID {
		t.Fatalf("missing fare must change the trip id: %v", withFare.TripID)
	}
}

func TestValueCoercion(t *testing.T) {
	row := map[string]string{
		"pickup_datetime":      "2020-01-05 09:00:00",
		"dropOff_datetime":     "not a timestamp",
		"dispatching_base_num": "B02510",
		"SR_Flag":              "junk",
		"PUlocationID":         "42",
	}
	rec := testNormalizer(t, trip.FHV).Record(row)

	if rec.PickupDatetime == nil {
		t.Fatalf("pickup should parse")
	}
	if rec.DropoffDatetime != nil {
		t.Fatalf("unparseable dropoff should coerce to null: %v", rec.DropoffDatetime)
	}
	if rec.SRFlag != nil {
		t.Fatalf("junk sr_flag should coerce to null: %v", *rec.SRFlag)
	}
	if rec.DispatchingBaseNum == nil || *rec.DispatchingBaseNum != "B02510" {
		t.Fatalf("wrong dispatching base: %v", rec.DispatchingBaseNum)
	}
	if rec.PickupLocationID == nil || *rec.PickupLocationID != 42 {
		t.Fatalf("lowercase location spelling should be picked up: %v", rec.PickupLocationID)
	}
	// every output row carries id, service and month even when most fields are null
	if rec.TripID == "" || rec.ServiceType == "" || rec.DataFileMonth == "" {
		t.Fatalf("required fields missing: %+v", rec)
	}
}

func TestFloatRenderedIdentifiers(t *testing.T) {
	row := greenRow()
	row["passenger_count"] = "2.0" // some vintages render counts as floats
	rec := testNormalizer(t, trip.Green).Record(row)
	if rec.PassengerCount == nil || *rec.PassengerCount != 2 {
		t.Fatalf("float-rendered count should coerce to int: %v", rec.PassengerCount)
	}
}

func TestFHVDropoffAbsent(t *testing.T) {
	rec := testNormalizer(t, trip.FHV).Record(map[string]string{
		"pickup_datetime": "2020-01-05 09:00:00",
	})
	if rec.DropoffDatetime != nil {
		t.Fatalf("absent dropoff should be null: %v", rec.DropoffDatetime)
	}
}
