package csv

import (
	"compress/gzip"
	"io"
	"io/ioutil"
	"strings"
	"testing"
)

// MustWriteTempFile writes content to a fresh temp file with the given suffix
// and returns its path. Content is gzipped when the suffix says so.
func MustWriteTempFile(t *testing.T, suffix, content string) string {
	t.Helper()
	tf, err := ioutil.TempFile(t.TempDir(), "csvsource-*"+suffix)
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	defer tf.Close()

	if strings.HasSuffix(suffix, ".gz") {
		gz := gzip.NewWriter(tf)
		if _, err := gz.Write([]byte(content)); err != nil {
			t.Fatalf("writing temp file: %v", err)
		}
		if err := gz.Close(); err != nil {
			t.Fatalf("closing gzip writer: %v", err)
		}
	} else if _, err := tf.WriteString(content); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return tf.Name()
}

func TestSource(t *testing.T) {
	path := MustWriteTempFile(t, ".csv", `a,b,c
1,2,3
4,,6
`)

	src := NewSource(WithURLs([]string{path}))
	rec, err := src.Record()
	if err != nil {
		t.Fatalf("first record: %v", err)
	}
	if rec["a"] != "1" || rec["b"] != "2" || rec["c"] != "3" {
		t.Fatalf("unexpected first record: %v", rec)
	}

	rec, err = src.Record()
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if _, ok := rec["b"]; ok {
		t.Fatalf("empty field should be absent: %v", rec)
	}
	if rec["a"] != "4" || rec["c"] != "6" {
		t.Fatalf("unexpected second record: %v", rec)
	}

	if _, err := src.Record(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestSourceGzip(t *testing.T) {
	path := MustWriteTempFile(t, ".csv.gz", "x,y\n7,8\n")

	src := NewSource(WithURLs([]string{path}))
	rec, err := src.Record()
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if rec["x"] != "7" || rec["y"] != "8" {
		t.Fatalf("unexpected record: %v", rec)
	}
	if _, err := src.Record(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestSourceShortAndLongRows(t *testing.T) {
	path := MustWriteTempFile(t, ".csv", `a,b,c
1,2
1,2,3,4
`)

	src := NewSource(WithURLs([]string{path}))
	rec, err := src.Record()
	if err != nil {
		t.Fatalf("short row: %v", err)
	}
	if _, ok := rec["c"]; ok {
		t.Fatalf("short row should leave trailing column absent: %v", rec)
	}

	rec, err = src.Record()
	if err != nil {
		t.Fatalf("long row: %v", err)
	}
	if len(rec) != 3 {
		t.Fatalf("long row should be truncated to the header: %v", rec)
	}

	if _, err := src.Record(); err != io.EOF {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestSourceDuplicateHeader(t *testing.T) {
	path := MustWriteTempFile(t, ".csv", "a,b,a\n1,2,3\n")

	src := NewSource(WithURLs([]string{path}))
	if _, err := src.Record(); err == nil {
		t.Fatalf("duplicate header should be an error")
	}
}

func TestSourceMissingFile(t *testing.T) {
	src := NewSource(WithURLs([]string{"/no/such/file.csv"}), WithMaxRetries(1))
	if _, err := src.Record(); err == nil {
		t.Fatalf("missing file should be an error")
	}
}

func TestSourceMultipleFiles(t *testing.T) {
	p1 := MustWriteTempFile(t, ".csv", "a\n1\n")
	p2 := MustWriteTempFile(t, ".csv", "a\n2\n")

	src := NewSource(WithURLs([]string{p1, p2}))
	seen := map[string]bool{}
	for {
		rec, err := src.Record()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("record: %v", err)
		}
		seen[rec["a"]] = true
	}
	if !seen["1"] || !seen["2"] {
		t.Fatalf("missing rows across files: %v", seen)
	}
}
