package tripkit

import (
	"fmt"
	"io"
	"strconv"
)

// Source is the interface for getting raw tabular data one record at a time.
// Records are header-keyed string maps; empty fields are omitted. Record
// returns io.EOF once the source is exhausted. Implementations of Source
// should be safe for concurrent use.
type Source interface {
	Record() (map[string]string, error)
}

// NamedReadCloser is a ReadCloser which also knows the name of the underlying
// resource (file path, object key).
type NamedReadCloser interface {
	io.ReadCloser
	Name() string
}

// RawSource is the interface for sources which produce whole readers (local
// files, S3 objects) rather than individual records.
type RawSource interface {
	NextReader() (NamedReadCloser, error)
}

// StringRecord flattens a decoded JSON object into a header-keyed string
// record. Numbers must arrive as json.Number (decode with UseNumber) so their
// source text survives untouched - "15.0" must not collapse to "15" before it
// reaches key derivation.
func StringRecord(obj map[string]interface{}) map[string]string {
	rec := make(map[string]string, len(obj))
	for k, v := range obj {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			if val == "" {
				continue
			}
			rec[k] = val
		case fmt.Stringer:
			rec[k] = val.String()
		case bool:
			rec[k] = strconv.FormatBool(val)
		case float64:
			rec[k] = strconv.FormatFloat(val, 'f', -1, 64)
		default:
			rec[k] = fmt.Sprintf("%v", val)
		}
	}
	return rec
}
