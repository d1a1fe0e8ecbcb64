package tripkit

import (
	"context"
	"io"
	"sync"

	"tripkit/trip"

	"github.com/pkg/errors"
)

// Loader is the destination half of the pipeline. Load must tolerate being
// handed the same records again on a re-run; trip id determinism is the
// contract it gets for that.
type Loader interface {
	Load(ctx context.Context, recs []trip.Record) error
}

// Ingester wires a Source, a Normalizer and a Loader together: a pool of
// parse workers normalizes raw records, a single goroutine batches them and
// hands batches to the loader.
type Ingester struct {
	// ParseConcurrency is the number of goroutines pulling from the source
	// and normalizing records.
	ParseConcurrency int
	// BatchSize is the number of records handed to the loader at once.
	BatchSize int

	src    Source
	norm   *trip.Normalizer
	loader Loader
	stats  *Stats
}

// NewIngester returns an Ingester over the given source, normalizer, and
// loader.
func NewIngester(src Source, norm *trip.Normalizer, loader Loader) *Ingester {
	return &Ingester{
		ParseConcurrency: 1,
		BatchSize:        10000,
		src:              src,
		norm:             norm,
		loader:           loader,
		stats:            NewStats(),
	}
}

// Run pulls the source dry, normalizing and loading everything it yields. It
// returns the number of records loaded. A structural source failure or a
// loader failure aborts the run; value-level anomalies were already degraded
// to nulls by the normalizer.
func (n *Ingester) Run(ctx context.Context) (int64, error) {
	recs := make(chan trip.Record, n.BatchSize)

	var mu sync.Mutex
	var srcErr error

	wg := sync.WaitGroup{}
	for i := 0; i < n.ParseConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				raw, err := n.src.Record()
				if err == io.EOF {
					return
				}
				if err != nil {
					mu.Lock()
					if srcErr == nil {
						srcErr = errors.Wrap(err, "reading source")
					}
					mu.Unlock()
					return
				}
				n.stats.Count("rows", 1)
				select {
				case recs <- n.norm.Record(raw):
				case <-ctx.Done():
					return
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(recs)
	}()

	var loaded int64
	batch := make([]trip.Record, 0, n.BatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := n.loader.Load(ctx, batch); err != nil {
			return errors.Wrap(err, "loading batch")
		}
		loaded += int64(len(batch))
		n.stats.Count("batches", 1)
		batch = batch[:0]
		return nil
	}
	for rec := range recs {
		batch = append(batch, rec)
		if len(batch) >= n.BatchSize {
			if err := flush(); err != nil {
				return loaded, err
			}
		}
	}
	if err := flush(); err != nil {
		return loaded, err
	}

	mu.Lock()
	defer mu.Unlock()
	if srcErr != nil {
		return loaded, srcErr
	}
	return loaded, ctx.Err()
}
