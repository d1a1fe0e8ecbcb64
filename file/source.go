// Package file provides access to local directories of monthly trip dumps.
package file

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"tripkit/csv"

	"github.com/pkg/errors"
)

// opener is a csv.OpenStringer over a local path.
type opener string

func (o opener) Open() (io.ReadCloser, error) {
	f, err := os.Open(string(o))
	return f, errors.Wrap(err, "opening file")
}

func (o opener) String() string { return string(o) }

// OpenStringers lists the dump files under pathname - every .csv and .csv.gz
// file if pathname is a directory, or just pathname itself - as openers
// usable with csv.WithOpenStringers. Results are sorted by name so ingestion
// order is stable.
func OpenStringers(pathname string) ([]csv.OpenStringer, error) {
	info, err := os.Stat(pathname)
	if err != nil {
		return nil, errors.Wrap(err, "statting path")
	}
	if !info.IsDir() {
		return []csv.OpenStringer{opener(pathname)}, nil
	}
	entries, err := os.ReadDir(pathname)
	if err != nil {
		return nil, errors.Wrap(err, "reading directory")
	}
	var openers []csv.OpenStringer
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".csv.gz") {
			openers = append(openers, opener(filepath.Join(pathname, name)))
		}
	}
	sort.Slice(openers, func(i, j int) bool { return openers[i].String() < openers[j].String() })
	return openers, nil
}
