// Package taxi ingests monthly NYC TLC trip dumps into DuckDB. It expands an
// explicit date range into (service, month) pairs, fetches each dump from a
// release URL, a local directory, or an S3 bucket, normalizes the rows, and
// appends them to the trips table.
package taxi

import (
	"context"
	"io"
	"log"
	"regexp"
	"time"

	"tripkit"
	s3src "tripkit/aws/s3"
	"tripkit/boltdb"
	"tripkit/csv"
	"tripkit/duck"
	"tripkit/file"
	"tripkit/trip"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Main holds the run context for one taxi ingest. All configuration is
// explicit here - nothing is read from ambient process state.
type Main struct {
	StartDate string   `help:"Inclusive start date (YYYY-MM-DD) of the ingest window."`
	EndDate   string   `help:"Inclusive end date (YYYY-MM-DD) of the ingest window."`
	TaxiTypes []string `help:"Service families to ingest (yellow, green, fhv)."`

	BaseURL  string `help:"Base URL for monthly trip dumps."`
	Dir      string `help:"Local directory of monthly dumps. Overrides base-url."`
	S3Bucket string `help:"S3 bucket of monthly dumps. Overrides base-url and dir."`
	S3Prefix string `help:"Key prefix within s3-bucket."`
	S3Region string `help:"AWS region of s3-bucket."`

	Database string `help:"DuckDB database file."`
	Table    string `help:"Destination table name."`
	Ledger   string `help:"Bolt ledger file tracking completed months. Empty disables skipping."`

	Concurrency  int `help:"Number of (service, month) pairs ingested simultaneously."`
	FetchRetries int `help:"Max fetch attempts per dump."`
	BatchSize    int `help:"Records per load batch."`
}

// NewMain returns a Main with defaults for the public dump host.
func NewMain() *Main {
	return &Main{
		StartDate:    "2020-01-01",
		EndDate:      "2020-01-31",
		TaxiTypes:    []string{"green"},
		BaseURL:      "https://github.com/DataTalksClub/nyc-tlc-data/releases/download",
		Database:     "trips.duckdb",
		Table:        "trips",
		Concurrency:  2,
		FetchRetries: 3,
		BatchSize:    10000,
	}
}

// Run ingests every (service, month) pair in the window.
func (m *Main) Run() error {
	ctx := context.Background()

	start, err := time.Parse("2006-01-02", m.StartDate)
	if err != nil {
		return errors.Wrapf(err, "parsing start date %q", m.StartDate)
	}
	end, err := time.Parse("2006-01-02", m.EndDate)
	if err != nil {
		return errors.Wrapf(err, "parsing end date %q", m.EndDate)
	}
	if end.Before(start) {
		return errors.Errorf("end date %s before start date %s", m.EndDate, m.StartDate)
	}
	services := make([]trip.Service, len(m.TaxiTypes))
	for i, t := range m.TaxiTypes {
		services[i], err = trip.ParseService(t)
		if err != nil {
			return err
		}
	}
	months := trip.MonthsBetween(start, end)

	db, err := duck.Open(ctx, m.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	loader, err := duck.NewTripLoader(ctx, db, m.Table)
	if err != nil {
		return err
	}

	var ledger *boltdb.Ledger
	if m.Ledger != "" {
		ledger, err = boltdb.NewLedger(m.Ledger)
		if err != nil {
			return err
		}
		defer ledger.Close()
	}

	if m.S3Bucket != "" {
		return m.runS3(ctx, loader, ledger, services, months)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.Concurrency)
	for _, service := range services {
		for _, month := range months {
			service, month := service, month
			g.Go(func() error {
				return m.runPair(ctx, loader, ledger, service, month)
			})
		}
	}
	return g.Wait()
}

func (m *Main) runPair(ctx context.Context, loader *duck.TripLoader, ledger *boltdb.Ledger, service trip.Service, month trip.Month) error {
	if ledger != nil {
		done, rows, err := ledger.Done(service, month)
		if err != nil {
			return err
		}
		if done {
			log.Printf("%s %s: already loaded (%d rows), skipping", service, month, rows)
			return nil
		}
	}

	var opts []csv.Option
	if m.Dir != "" {
		openers, err := file.OpenStringers(m.Dir + "/" + dumpName(service, month))
		if err != nil {
			return errors.Wrapf(err, "%s %s: finding dump", service, month)
		}
		opts = append(opts, csv.WithOpenStringers(openers))
	} else {
		opts = append(opts, csv.WithURLs([]string{m.dumpURL(service, month)}))
	}
	opts = append(opts, csv.WithMaxRetries(m.FetchRetries))
	src := csv.NewSource(opts...)

	ing := tripkit.NewIngester(src, trip.NewNormalizer(service, month), loader)
	ing.BatchSize = m.BatchSize
	start := time.Now()
	rows, err := ing.Run(ctx)
	if err != nil {
		return errors.Wrapf(err, "%s %s: ingesting", service, month)
	}
	log.Printf("%s %s: loaded %d rows in %s", service, month, rows, time.Since(start))

	if ledger != nil {
		return ledger.MarkDone(service, month, rows)
	}
	return nil
}

// dumpKey matches the canonical dump naming, e.g. green_tripdata_2020-01.csv.gz.
var dumpKey = regexp.MustCompile(`(yellow|green|fhv)_tripdata_(\d{4}-\d{2})\.csv\.gz$`)

// runS3 walks the bucket listing instead of constructing URLs, loading every
// object whose name parses to a wanted (service, month) pair.
func (m *Main) runS3(ctx context.Context, loader *duck.TripLoader, ledger *boltdb.Ledger, services []trip.Service, months []trip.Month) error {
	rs, err := s3src.NewRawSource(m.S3Region, m.S3Bucket, m.S3Prefix)
	if err != nil {
		return errors.Wrap(err, "opening s3 source")
	}
	wanted := make(map[string]bool)
	for _, s := range services {
		for _, mo := range months {
			wanted[string(s)+"|"+mo.String()] = true
		}
	}
	for {
		reader, err := rs.NextReader()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "getting next object")
		}
		match := dumpKey.FindStringSubmatch(reader.Name())
		if match == nil || !wanted[match[1]+"|"+match[2]] {
			reader.Close()
			continue
		}
		service := trip.Service(match[1])
		month, _ := trip.ParseMonth(match[2])
		if err := m.loadReader(ctx, loader, ledger, service, month, reader); err != nil {
			reader.Close()
			return err
		}
		reader.Close()
	}
}

func (m *Main) loadReader(ctx context.Context, loader *duck.TripLoader, ledger *boltdb.Ledger, service trip.Service, month trip.Month, reader tripkit.NamedReadCloser) error {
	if ledger != nil {
		done, rows, err := ledger.Done(service, month)
		if err != nil {
			return err
		}
		if done {
			log.Printf("%s %s: already loaded (%d rows), skipping", service, month, rows)
			return nil
		}
	}
	recs, err := trip.NewNormalizer(service, month).ReadAll(reader)
	if err != nil {
		return errors.Wrapf(err, "%s %s: reading %s", service, month, reader.Name())
	}
	for i := 0; i < len(recs); i += m.BatchSize {
		end := i + m.BatchSize
		if end > len(recs) {
			end = len(recs)
		}
		if err := loader.Load(ctx, recs[i:end]); err != nil {
			return errors.Wrapf(err, "%s %s: loading", service, month)
		}
	}
	log.Printf("%s %s: loaded %d rows from %s", service, month, len(recs), reader.Name())
	if ledger != nil {
		return ledger.MarkDone(service, month, int64(len(recs)))
	}
	return nil
}

func dumpName(service trip.Service, month trip.Month) string {
	return string(service) + "_tripdata_" + month.String() + ".csv.gz"
}

func (m *Main) dumpURL(service trip.Service, month trip.Month) string {
	return m.BaseURL + "/" + string(service) + "/" + dumpName(service, month)
}
