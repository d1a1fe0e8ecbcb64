// Package csv provides a tripkit.Source over CSV resources. Each data line
// becomes a map[string]string keyed by the header line. Resources may be HTTP
// URLs or local paths, and gzip-compressed resources (".gz") are decompressed
// transparently. The Source takes care of retrying failed reads/downloads and
// making sure not to return duplicate data.
package csv

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// Source satisfies the tripkit.Source interface for CSV data. It is safe for
// concurrent use.
type Source struct {
	files       []*file
	maxRetries  int
	concurrency int

	records chan record
}

// NewSource creates a Source for CSV data. The raw data locations are set by
// Options defined in this package, e.g.
//
//	src := NewSource(WithURLs([]string{"dump1.csv.gz", "http://example.com/dump2.csv.gz"}))
func NewSource(options ...Option) *Source {
	src := &Source{
		records:     make(chan record),
		maxRetries:  3,
		concurrency: 1,
	}

	for _, opt := range options {
		opt(src)
	}
	go src.getRecords()
	return src
}

// Option is a functional option to pass to NewSource.
type Option func(*Source)

// WithURLs returns an Option which adds the slice of URLs to the set of data
// sources a Source will read from. The URLs may be HTTP or local files.
func WithURLs(urls []string) Option {
	return func(s *Source) {
		for _, url := range urls {
			s.files = append(s.files, &file{OpenStringer: urlOpener(url)})
		}
	}
}

// WithOpenStringers returns an Option which adds the slice of OpenStringers
// to the set of data sources a Source will read from.
func WithOpenStringers(os []OpenStringer) Option {
	return func(s *Source) {
		for _, os := range os {
			s.files = append(s.files, &file{OpenStringer: os})
		}
	}
}

// WithMaxRetries returns an Option which sets the max number of retries per
// file on a Source.
func WithMaxRetries(maxRetries int) Option {
	return func(s *Source) {
		s.maxRetries = maxRetries
	}
}

// WithConcurrency returns an Option which sets the number of goroutines
// fetching files simultaneously.
func WithConcurrency(c int) Option {
	return func(s *Source) {
		if c > 0 {
			s.concurrency = c
		}
	}
}

// file tracks the use of an OpenStringer.
type file struct {
	OpenStringer
	line int // tracks how many lines of this file we've read.
}

// Opener is an interface to a resource which can be repeatedly Opened (and
// the returned ReadCloser subsequently read). Each call to Open should return
// a ReadCloser which reads from the beginning of the resource. In the case of
// an error while reading, Open will be called again to retry reading the
// entire resource.
type Opener interface {
	Open() (io.ReadCloser, error)
}

// OpenStringer is an Opener which also has a String method returning the name
// of the resource being opened (e.g. a file or URL).
type OpenStringer interface {
	fmt.Stringer
	Opener
}

// urlOpener turns a URL or file (string) into an OpenStringer.
type urlOpener string

func (u urlOpener) Open() (io.ReadCloser, error) {
	url := string(u)
	var content io.ReadCloser
	if strings.HasPrefix(url, "http") {
		resp, err := http.Get(url)
		if err != nil {
			return nil, errors.Wrap(err, "getting via http")
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, errors.Errorf("http status %s", resp.Status)
		}
		content = resp.Body
	} else {
		f, err := os.Open(url)
		if err != nil {
			return nil, errors.Wrap(err, "opening file")
		}
		content = f
	}
	return content, nil
}

func (u urlOpener) String() string {
	return string(u)
}

// Record returns a map[string]string representing a single data line of a CSV
// file. Each key is taken from the header, and each value is parsed from a
// row - empty fields are skipped. Record returns io.EOF once every resource
// is exhausted.
func (c *Source) Record() (map[string]string, error) {
	rec, ok := <-c.records
	if !ok {
		return nil, io.EOF
	}
	return rec.rec, rec.err
}

type record struct {
	rec map[string]string
	err error
}

func (c *Source) getRecords() {
	fileChan := make(chan *file, c.concurrency)
	wg := sync.WaitGroup{}
	for i := 0; i < c.concurrency; i++ {
		wg.Add(1)
		go func() {
			for file := range fileChan {
				c.getRows(file)
			}
			wg.Done()
		}()
	}
	for _, file := range c.files {
		fileChan <- file
	}
	close(fileChan)
	wg.Wait()
	close(c.records)
}

func (c *Source) getRows(file *file) {
	var err error
	for try := 0; try < c.maxRetries; try++ {
		err = c.getRowTry(file)
		if err == nil {
			return
		}
	}
	c.records <- record{err: errors.Wrapf(err, "couldn't fetch '%s' - tried %d times, latest", file, c.maxRetries)}
}

func (c *Source) getRowTry(file *file) error {
	content, err := file.Open()
	if err != nil {
		return errors.Wrap(err, "opening")
	}
	defer content.Close()

	var body io.Reader = content
	if strings.HasSuffix(file.String(), ".gz") {
		gz, err := gzip.NewReader(content)
		if err != nil {
			return errors.Wrap(err, "opening gzip stream")
		}
		defer gz.Close()
		body = gz
	}

	// scan header line
	scan := bufio.NewScanner(body)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var header []string
	if scan.Scan() && scan.Err() == nil {
		header = strings.Split(scan.Text(), ",")
		if err := validateHeader(header); err != nil {
			c.records <- record{err: errors.Wrapf(err, "validating header of %s", file)}
			return nil // error is permanent so we don't return to getRows for retry
		}
		if file.line == 0 {
			file.line++
		}
	}
	line := 1
	// catch up to previous location
	for line < file.line && scan.Scan() {
		line++
	}
	for scan.Scan() && scan.Err() == nil {
		txt := scan.Text()
		if strings.TrimSpace(txt) == "" {
			continue // skip empty lines
		}
		row := strings.Split(txt, ",")
		file.line++
		c.records <- record{
			rec: parseRecord(header, row),
		}
	}
	return errors.Wrapf(scan.Err(), "scanning '%s', line %d", file, min(line, file.line))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// parseRecord zips a row with the header. Rows shorter than the header leave
// the trailing columns absent (schema drift tolerance); data beyond the
// header is dropped with a warning.
func parseRecord(header []string, row []string) map[string]string {
	if len(row) > len(header) {
		for i := len(header); i < len(row); i++ {
			if strings.TrimSpace(row[i]) != "" {
				log.Printf("data in non headered field: %v, %d", row, i)
			}
		}
		row = row[:len(header)]
	}
	ret := make(map[string]string, len(header))
	for i := 0; i < len(row); i++ {
		if row[i] == "" {
			continue
		}
		ret[header[i]] = row[i]
	}
	return ret
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
