// Package fake generates plausible raw trip records, used to produce demo
// Kafka traffic and to feed pipeline tests without network access.
package fake

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"tripkit/trip"
)

// Generator produces raw rows in the column naming of one service family.
// Using the same seed gives the same series of rows on a given version of Go.
type Generator struct {
	service trip.Service
	rng     *rand.Rand
	base    time.Time
}

// NewGenerator returns a Generator for the given family and random seed,
// generating trips spread over the month containing base.
func NewGenerator(service trip.Service, seed int64, base time.Time) *Generator {
	return &Generator{
		service: service,
		rng:     rand.New(rand.NewSource(seed)),
		base:    time.Date(base.Year(), base.Month(), 1, 0, 0, 0, 0, time.UTC),
	}
}

// Row returns one raw record with the family's own column names, the shape a
// line of a monthly dump would parse into.
func (g *Generator) Row() map[string]string {
	pickup := g.base.Add(time.Duration(g.rng.Intn(28*24*3600)) * time.Second)
	dropoff := pickup.Add(time.Duration(120+g.rng.Intn(3600)) * time.Second)
	pu := strconv.Itoa(1 + g.rng.Intn(265))
	do := strconv.Itoa(1 + g.rng.Intn(265))

	const layout = "2006-01-02 15:04:05"
	if g.service == trip.FHV {
		row := map[string]string{
			"dispatching_base_num": fmt.Sprintf("B%05d", 1+g.rng.Intn(3000)),
			"pickup_datetime":      pickup.Format(layout),
			"dropOff_datetime":     dropoff.Format(layout),
			"PUlocationID":         pu,
			"DOlocationID":         do,
		}
		if g.rng.Intn(10) == 0 {
			row["SR_Flag"] = "1"
		}
		return row
	}

	fare := float64(250+g.rng.Intn(5000)) / 100
	tip := float64(g.rng.Intn(1000)) / 100
	total := fare + tip + 0.8
	row := map[string]string{
		"VendorID":              strconv.Itoa(1 + g.rng.Intn(2)),
		"RatecodeID":            strconv.Itoa(1 + g.rng.Intn(6)),
		"passenger_count":       strconv.Itoa(1 + g.rng.Intn(5)),
		"trip_distance":         strconv.FormatFloat(float64(g.rng.Intn(2000))/100, 'f', 2, 64),
		"store_and_fwd_flag":    "N",
		"payment_type":          strconv.Itoa(1 + g.rng.Intn(4)),
		"fare_amount":           strconv.FormatFloat(fare, 'f', 2, 64),
		"extra":                 "0.5",
		"mta_tax":               "0.5",
		"tip_amount":            strconv.FormatFloat(tip, 'f', 2, 64),
		"tolls_amount":          "0",
		"improvement_surcharge": "0.3",
		"total_amount":          strconv.FormatFloat(total, 'f', 2, 64),
		"PULocationID":          pu,
		"DOLocationID":          do,
	}
	switch g.service {
	case trip.Yellow:
		row["tpep_pickup_datetime"] = pickup.Format(layout)
		row["tpep_dropoff_datetime"] = dropoff.Format(layout)
	case trip.Green:
		row["lpep_pickup_datetime"] = pickup.Format(layout)
		row["lpep_dropoff_datetime"] = dropoff.Format(layout)
		row["trip_type"] = strconv.Itoa(1 + g.rng.Intn(2))
	}
	return row
}
