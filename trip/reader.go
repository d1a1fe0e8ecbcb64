package trip

import (
	"compress/gzip"
	"encoding/csv"
	"io"
	"log"

	"github.com/pkg/errors"
)

// ReadAll decompresses and decodes one whole monthly dump and normalizes
// every row. The reader must yield a gzip-compressed CSV whose header matches
// the normalizer's service family. Structural failures - a corrupt compressed
// stream, an unusable header, an unreadable row - abort the whole batch;
// value-level anomalies inside a row degrade to nulls instead.
func (n *Normalizer) ReadAll(r io.Reader) ([]Record, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening gzip stream")
	}
	defer gz.Close()

	cr := csv.NewReader(gz)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, "reading header")
	}
	if err := validateHeader(header); err != nil {
		return nil, errors.Wrap(err, "validating header")
	}

	var recs []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "reading line %d", line)
		}
		recs = append(recs, n.Record(rowMap(header, row, line)))
	}
	return recs, nil
}

// rowMap zips a row with the header, skipping empty fields. Rows shorter than
// the header leave the trailing columns absent; data beyond the header is
// dropped with a warning.
func rowMap(header, row []string, line int) map[string]string {
	if len(row) > len(header) {
		log.Printf("line %d: %d fields beyond header, dropping", line, len(row)-len(header))
		row = row[:len(header)]
	}
	m := make(map[string]string, len(header))
	for i, v := range row {
		if v == "" {
			continue
		}
		m[header[i]] = v
	}
	return m
}

func validateHeader(header []string) error {
	fields := make(map[string]int)
	for i, h := range header {
		if h == "" {
			return errors.Errorf("header contains empty string at %d: %v", i, header)
		}
		if pos, exists := fields[h]; exists {
			return errors.Errorf("%s appeared at both %d and %d in header", h, pos, i)
		}
		fields[h] = i
	}
	return nil
}
