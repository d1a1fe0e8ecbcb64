package trip

import (
	"strconv"
	"strings"
	"time"
)

// Normalizer projects raw header-keyed rows of one (service, month) dump into
// unified Records. It is a pure batch transform - no internal state changes
// per row - so a single Normalizer is safe for concurrent use.
type Normalizer struct {
	service Service
	month   Month
	now     func() time.Time
}

// Option is a functional option for NewNormalizer.
type Option func(*Normalizer)

// WithClock overrides the wall clock used to stamp extracted_at. Tests use
// this to pin the one non-deterministic output field.
func WithClock(now func() time.Time) Option {
	return func(n *Normalizer) {
		n.now = now
	}
}

// NewNormalizer returns a Normalizer for one service family and one monthly
// partition.
func NewNormalizer(service Service, month Month, opts ...Option) *Normalizer {
	n := &Normalizer{
		service: service,
		month:   month,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Record normalizes a single raw row. Value-level anomalies (a non-numeric
// flag, an unparseable timestamp) coerce to null and never fail the row;
// columns the source lacks come out null. The returned record always carries
// a non-empty trip id, service type and partition label.
func (n *Normalizer) Record(raw map[string]string) Record {
	rec := Record{
		DataFileMonth: n.month.String(),
		ServiceType:   string(n.service),
		ExtractedAt:   n.now().UTC(),
	}

	rec.VendorID = intCol(raw, "VendorID")
	rec.RatecodeID = intCol(raw, "RatecodeID")
	rec.PassengerCount = intCol(raw, "passenger_count")
	rec.PaymentType = intCol(raw, "payment_type")
	rec.SRFlag = intCol(raw, "SR_Flag")

	rec.TripDistance = floatCol(raw, "trip_distance")
	rec.FareAmount = floatCol(raw, "fare_amount")
	rec.Extra = floatCol(raw, "extra")
	rec.MTATax = floatCol(raw, "mta_tax")
	rec.TipAmount = floatCol(raw, "tip_amount")
	rec.TollsAmount = floatCol(raw, "tolls_amount")
	rec.ImprovementSurcharge = floatCol(raw, "improvement_surcharge")
	rec.TotalAmount = floatCol(raw, "total_amount")

	rec.StoreAndFwdFlag = strCol(raw, "store_and_fwd_flag")
	rec.DispatchingBaseNum = strCol(raw, "dispatching_base_num")
	rec.AffiliatedBaseNumber = strCol(raw, "Affiliated_base_number")

	// Different file vintages spell the location columns with different
	// capitalization. First present non-empty value wins, checked in fixed
	// priority order, per row - a column that exists but is empty on this row
	// does not shadow a populated lower-priority spelling.
	rec.PickupLocationID = intCol(raw, "PULocationID", "PUlocationID")
	rec.DropoffLocationID = intCol(raw, "DOLocationID", "DOlocationID")

	// Each family has its own timestamp pair. FHV dropoff may be absent
	// entirely, which leaves it null.
	switch n.service {
	case Yellow:
		rec.PickupDatetime = timeCol(raw, "tpep_pickup_datetime")
		rec.DropoffDatetime = timeCol(raw, "tpep_dropoff_datetime")
	case Green:
		rec.PickupDatetime = timeCol(raw, "lpep_pickup_datetime")
		rec.DropoffDatetime = timeCol(raw, "lpep_dropoff_datetime")
	case FHV:
		rec.PickupDatetime = timeCol(raw, "pickup_datetime")
		rec.DropoffDatetime = timeCol(raw, "dropOff_datetime")
	}

	// trip_type and ehail_fee are meaningless outside the green taxi program.
	// Stray values in like-named columns of other families must not leak.
	if n.service == Green {
		rec.TripType = intCol(raw, "trip_type")
		rec.EhailFee = floatCol(raw, "ehail_fee")
	}

	rec.TripID = deriveTripID(&rec)
	return rec
}

// lookup returns the first present non-empty value among names, in order.
func lookup(raw map[string]string, names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := raw[name]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func intCol(raw map[string]string, names ...string) *int64 {
	v, ok := lookup(raw, names...)
	if !ok {
		return nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err == nil {
		return &i
	}
	// Some vintages render identifier columns as floats ("1.0").
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int64(f)) {
		return nil
	}
	i = int64(f)
	return &i
}

func floatCol(raw map[string]string, names ...string) *float64 {
	v, ok := lookup(raw, names...)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func strCol(raw map[string]string, names ...string) *string {
	v, ok := lookup(raw, names...)
	if !ok {
		return nil
	}
	return &v
}

// timeLayouts covers the renderings seen across dump vintages and the REST
// feed. Unparseable values become null rather than failing the row.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

func timeCol(raw map[string]string, names ...string) *time.Time {
	v, ok := lookup(raw, names...)
	if !ok {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}
