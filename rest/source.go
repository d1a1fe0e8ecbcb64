// Package rest provides a tripkit.Source over an offset-paginated JSON API.
// Pages are requested as ?limit=N&offset=M and the source stops after the
// first empty page, mirroring the REST feed the trip data is also published
// through.
package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"tripkit"

	"github.com/pkg/errors"
)

// Source satisfies the tripkit.Source interface for paginated JSON data. It
// is safe for concurrent use.
type Source struct {
	base       string
	pageSize   int
	maxRecords int
	client     *http.Client

	records chan record
}

type record struct {
	rec map[string]string
	err error
}

// Option is a functional option to pass to NewSource.
type Option func(*Source)

// WithPageSize sets the number of records requested per page.
func WithPageSize(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithMaxRecords caps the total number of records fetched. Zero means no cap.
func WithMaxRecords(n int) Option {
	return func(s *Source) {
		s.maxRecords = n
	}
}

// WithClient sets the http.Client used for page fetches.
func WithClient(c *http.Client) Option {
	return func(s *Source) {
		s.client = c
	}
}

// NewSource returns a Source paging through baseURL.
func NewSource(baseURL string, opts ...Option) *Source {
	s := &Source{
		base:     baseURL,
		pageSize: 1000,
		client:   &http.Client{Timeout: 60 * time.Second},
		records:  make(chan record, 100),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return s
}

// Record returns the next record of the feed, or io.EOF once the feed is
// exhausted (or the record cap is reached).
func (s *Source) Record() (map[string]string, error) {
	rec, ok := <-s.records
	if !ok {
		return nil, io.EOF
	}
	return rec.rec, rec.err
}

func (s *Source) run() {
	defer close(s.records)
	count := 0
	for offset := 0; ; offset += s.pageSize {
		page, err := s.page(offset)
		if err != nil {
			s.records <- record{err: err}
			return
		}
		if len(page) == 0 {
			return
		}
		for _, obj := range page {
			s.records <- record{rec: tripkit.StringRecord(obj)}
			count++
			if s.maxRecords > 0 && count >= s.maxRecords {
				return
			}
		}
	}
}

func (s *Source) page(offset int) ([]map[string]interface{}, error) {
	u, err := url.Parse(s.base)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing base url %q", s.base)
	}
	q := u.Query()
	q.Set("limit", fmt.Sprintf("%d", s.pageSize))
	q.Set("offset", fmt.Sprintf("%d", offset))
	u.RawQuery = q.Encode()

	resp, err := s.client.Get(u.String())
	if err != nil {
		return nil, errors.Wrapf(err, "getting page at offset %d", offset)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, errors.Errorf("page at offset %d: http status %s", offset, resp.Status)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber() // keep the source text of numbers intact
	var page []map[string]interface{}
	if err := dec.Decode(&page); err != nil {
		return nil, errors.Wrapf(err, "decoding page at offset %d", offset)
	}
	return page, nil
}
