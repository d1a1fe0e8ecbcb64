// Package trip normalizes raw NYC TLC trip records into a single unified
// schema and derives a deterministic identifier per trip. The three service
// families (yellow medallion, green borough, for-hire vehicle) each publish
// monthly CSV dumps with their own column naming and datatypes; this package
// projects all of them onto one fixed, ordered column list suitable for
// append-only loading into an analytical store.
package trip

import (
	"time"

	"github.com/pkg/errors"
)

// Service identifies one of the TLC trip data families.
type Service string

const (
	Yellow Service = "yellow"
	Green  Service = "green"
	FHV    Service = "fhv"
)

// ParseService validates a service family name.
func ParseService(s string) (Service, error) {
	switch Service(s) {
	case Yellow, Green, FHV:
		return Service(s), nil
	}
	return "", errors.Errorf("unknown service family: %q", s)
}

// Month is the year-month partition label attached to every row ingested from
// one monthly dump.
type Month struct {
	Year  int
	Month time.Month
}

// String renders the partition label as YYYY-MM.
func (m Month) String() string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// MonthOf returns the Month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses a YYYY-MM partition label.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, errors.Wrapf(err, "parsing month %q", s)
	}
	return MonthOf(t), nil
}

// MonthsBetween returns every month touched by the inclusive date range
// [start, end], in order.
func MonthsBetween(start, end time.Time) []Month {
	months := []Month{}
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cur.After(last) {
		months = append(months, MonthOf(cur))
		cur = cur.AddDate(0, 1, 0)
	}
	return months
}

// Columns is the fixed output column list. Downstream loaders may rely on
// positional layout, so the order here is part of the contract.
var Columns = []string{
	"data_file_month",
	"service_type",
	"trip_id",
	"vendor_id",
	"pickup_datetime",
	"dropoff_datetime",
	"pickup_location_id",
	"dropoff_location_id",
	"trip_distance",
	"passenger_count",
	"ratecode_id",
	"store_and_fwd_flag",
	"payment_type",
	"fare_amount",
	"extra",
	"mta_tax",
	"tip_amount",
	"tolls_amount",
	"improvement_surcharge",
	"total_amount",
	"trip_type",
	"ehail_fee",
	"dispatching_base_num",
	"affiliated_base_number",
	"sr_flag",
	"extracted_at",
}

// Record is one trip in the unified schema. Nullable fields are pointers; a
// nil pointer is the explicit null marker - absent source columns are always
// present here as nulls, never omitted.
type Record struct {
	DataFileMonth        string
	ServiceType          string
	TripID               string
	VendorID             *int64
	PickupDatetime       *time.Time
	DropoffDatetime      *time.Time
	PickupLocationID     *int64
	DropoffLocationID    *int64
	TripDistance         *float64
	PassengerCount       *int64
	RatecodeID           *int64
	StoreAndFwdFlag      *string
	PaymentType          *int64
	FareAmount           *float64
	Extra                *float64
	MTATax               *float64
	TipAmount            *float64
	TollsAmount          *float64
	ImprovementSurcharge *float64
	TotalAmount          *float64
	TripType             *int64
	EhailFee             *float64
	DispatchingBaseNum   *string
	AffiliatedBaseNumber *string
	SRFlag               *int64
	ExtractedAt          time.Time
}

// Values returns the record's fields in Columns order, with nil for nulls.
// Pointer fields are flattened so the slice can be handed straight to a
// positional loader.
func (r *Record) Values() []interface{} {
	return []interface{}{
		r.DataFileMonth,
		r.ServiceType,
		r.TripID,
		flatI(r.VendorID),
		flatT(r.PickupDatetime),
		flatT(r.DropoffDatetime),
		flatI(r.PickupLocationID),
		flatI(r.DropoffLocationID),
		flatF(r.TripDistance),
		flatI(r.PassengerCount),
		flatI(r.RatecodeID),
		flatS(r.StoreAndFwdFlag),
		flatI(r.PaymentType),
		flatF(r.FareAmount),
		flatF(r.Extra),
		flatF(r.MTATax),
		flatF(r.TipAmount),
		flatF(r.TollsAmount),
		flatF(r.ImprovementSurcharge),
		flatF(r.TotalAmount),
		flatI(r.TripType),
		flatF(r.EhailFee),
		flatS(r.DispatchingBaseNum),
		flatS(r.AffiliatedBaseNumber),
		flatI(r.SRFlag),
		r.ExtractedAt,
	}
}

func flatI(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func flatF(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func flatS(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func flatT(v *time.Time) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
