// Package boltdb provides a small boltdb-backed load ledger. The ledger
// records which (service, month) dumps have been fully loaded and how many
// rows each contributed, so a re-run can skip work it has already done. The
// destination stays correct without the ledger - trip id determinism makes
// re-loads no-ops - it only saves the re-fetch.
package boltdb

import (
	"encoding/binary"
	"time"

	"tripkit/trip"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
)

var loadBucket = []byte("loads")

// Ledger tracks completed (service, month) loads in a boltdb file.
type Ledger struct {
	db *bolt.DB
}

// NewLedger opens (creating if needed) the ledger at filename.
func NewLedger(filename string) (*Ledger, error) {
	db, err := bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(loadBucket)
		return errors.Wrap(err, "creating loads bucket")
	})
	if err != nil {
		return nil, errors.Wrap(err, "ensuring bucket existence")
	}
	return &Ledger{db: db}, nil
}

// Done reports whether the (service, month) dump was already fully loaded,
// and with how many rows.
func (l *Ledger) Done(service trip.Service, month trip.Month) (done bool, rows int64, err error) {
	err = l.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(loadBucket).Get(key(service, month))
		if v == nil {
			return nil
		}
		done = true
		rows, _ = binary.Varint(v)
		return nil
	})
	return done, rows, errors.Wrap(err, "reading ledger")
}

// MarkDone records a completed (service, month) load.
func (l *Ledger) MarkDone(service trip.Service, month trip.Month, rows int64) error {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutVarint(buf, rows)
	err := l.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(loadBucket).Put(key(service, month), buf[:n])
	})
	return errors.Wrap(err, "writing ledger")
}

// Close syncs and closes the underlying boltdb.
func (l *Ledger) Close() error {
	err := l.db.Sync()
	if err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return l.db.Close()
}

func key(service trip.Service, month trip.Month) []byte {
	return []byte(string(service) + "|" + month.String())
}
