// Package stream ingests JSON trip records from a Kafka topic into DuckDB.
package stream

import (
	"context"
	"log"
	"time"

	"tripkit"
	"tripkit/duck"
	"tripkit/kafka"
	"tripkit/trip"
)

// Main holds the run context for one streaming ingest.
type Main struct {
	Hosts   []string `help:"Kafka cluster: comma separated list of host:port."`
	Topics  []string `help:"Kafka topics to consume."`
	Group   string   `help:"Kafka consumer group."`
	MaxMsgs int      `help:"Stop after this many messages. 0 means consume until killed."`

	Service string `help:"Service family of the streamed rows (yellow, green, fhv)."`
	Month   string `help:"Partition label (YYYY-MM) stamped on ingested rows."`

	Database  string `help:"DuckDB database file."`
	Table     string `help:"Destination table name."`
	BatchSize int    `help:"Records per load batch."`
}

// NewMain returns a Main with local defaults.
func NewMain() *Main {
	return &Main{
		Hosts:     []string{"localhost:9092"},
		Topics:    []string{"trips"},
		Group:     "tripkit0",
		Service:   string(trip.Green),
		Month:     trip.MonthOf(time.Now().UTC()).String(),
		Database:  "trips.duckdb",
		Table:     "trips",
		BatchSize: 1000,
	}
}

// Run consumes the topic and loads what it yields.
func (m *Main) Run() error {
	ctx := context.Background()

	service, err := trip.ParseService(m.Service)
	if err != nil {
		return err
	}
	month, err := trip.ParseMonth(m.Month)
	if err != nil {
		return err
	}

	db, err := duck.Open(ctx, m.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	loader, err := duck.NewTripLoader(ctx, db, m.Table)
	if err != nil {
		return err
	}

	src := kafka.NewSource()
	src.Hosts = m.Hosts
	src.Topics = m.Topics
	src.Group = m.Group
	src.MaxMsgs = m.MaxMsgs
	if err := src.Open(); err != nil {
		return err
	}
	defer src.Close()

	ing := tripkit.NewIngester(src, trip.NewNormalizer(service, month), loader)
	ing.BatchSize = m.BatchSize

	start := time.Now()
	rows, err := ing.Run(ctx)
	if err != nil {
		return err
	}
	log.Printf("loaded %d rows from kafka in %s", rows, time.Since(start))
	return nil
}
