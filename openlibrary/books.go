// Package openlibrary fetches book records from the Open Library Books API
// and flattens them for loading. One request covers a batch of ISBNs
// (bibkeys), asking for full data as JSON.
package openlibrary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// DefaultBaseURL is the public Books API endpoint.
const DefaultBaseURL = "http://openlibrary.org/api/books"

// Book is one flattened Books API record.
type Book struct {
	ISBN          string
	Title         string
	Subtitle      string
	Authors       string // "; " joined author names
	Publishers    string // "; " joined publisher names
	PublishDate   string
	NumberOfPages int64
	URL           string
	ExtractedAt   time.Time
}

// Client fetches books from a Books API endpoint.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	now func() time.Time
}

// NewClient returns a Client against the public Open Library endpoint.
func NewClient() *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
		now:     time.Now,
	}
}

// Fetch returns the book data for a batch of ISBNs. ISBNs the API doesn't
// know are silently absent from the result, which is how the API reports
// them.
func (c *Client) Fetch(ctx context.Context, isbns []string) ([]Book, error) {
	if len(isbns) == 0 {
		return nil, nil
	}
	keys := make([]string, len(isbns))
	for i, isbn := range isbns {
		keys[i] = "ISBN:" + isbn
	}

	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing base url %q", c.BaseURL)
	}
	q := u.Query()
	q.Set("bibkeys", strings.Join(keys, ","))
	q.Set("format", "json")
	q.Set("jscmd", "data")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "getting books")
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, errors.Errorf("books request: http status %s", resp.Status)
	}

	// The API returns an object keyed by bibkey.
	var raw map[string]bookData
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decoding books response")
	}

	extracted := c.now().UTC()
	books := make([]Book, 0, len(raw))
	for key, data := range raw {
		books = append(books, Book{
			ISBN:          strings.TrimPrefix(key, "ISBN:"),
			Title:         data.Title,
			Subtitle:      data.Subtitle,
			Authors:       joinNames(data.Authors),
			Publishers:    joinNames(data.Publishers),
			PublishDate:   data.PublishDate,
			NumberOfPages: data.NumberOfPages,
			URL:           data.URL,
			ExtractedAt:   extracted,
		})
	}
	return books, nil
}

type named struct {
	Name string `json:"name"`
}

type bookData struct {
	Title         string  `json:"title"`
	Subtitle      string  `json:"subtitle"`
	Authors       []named `json:"authors"`
	Publishers    []named `json:"publishers"`
	PublishDate   string  `json:"publish_date"`
	NumberOfPages int64   `json:"number_of_pages"`
	URL           string  `json:"url"`
}

func joinNames(ns []named) string {
	names := make([]string, 0, len(ns))
	for _, n := range ns {
		if n.Name != "" {
			names = append(names, n.Name)
		}
	}
	return strings.Join(names, "; ")
}
