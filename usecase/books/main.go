// Package books ingests Open Library book records into DuckDB for a list of
// ISBNs, and optionally reports the most-represented authors afterwards.
package books

import (
	"bufio"
	"context"
	"log"
	"os"
	"strings"

	"tripkit/duck"
	"tripkit/openlibrary"

	"github.com/pkg/errors"
)

// Main holds the run context for one books ingest.
type Main struct {
	ISBNs    []string `help:"ISBNs to fetch, comma separated."`
	ISBNFile string   `help:"File with one ISBN per line. Merged with isbns."`
	BaseURL  string   `help:"Books API endpoint."`

	Database string `help:"DuckDB database file."`
	Table    string `help:"Destination table name."`

	ChunkSize  int `help:"ISBNs requested per API call."`
	TopAuthors int `help:"After loading, log the top N authors by book count. 0 disables."`
}

// NewMain returns a Main with defaults for the public API.
func NewMain() *Main {
	return &Main{
		ISBNs:      []string{"0451526538"},
		BaseURL:    openlibrary.DefaultBaseURL,
		Database:   "books.duckdb",
		Table:      "books",
		ChunkSize:  50,
		TopAuthors: 10,
	}
}

// Run fetches and loads every requested ISBN.
func (m *Main) Run() error {
	ctx := context.Background()

	isbns, err := m.isbnList()
	if err != nil {
		return err
	}
	if len(isbns) == 0 {
		return errors.New("no ISBNs given")
	}

	db, err := duck.Open(ctx, m.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	loader, err := duck.NewBookLoader(ctx, db, m.Table)
	if err != nil {
		return err
	}

	client := openlibrary.NewClient()
	client.BaseURL = m.BaseURL

	total := 0
	for i := 0; i < len(isbns); i += m.ChunkSize {
		end := i + m.ChunkSize
		if end > len(isbns) {
			end = len(isbns)
		}
		books, err := client.Fetch(ctx, isbns[i:end])
		if err != nil {
			return err
		}
		if err := loader.Load(ctx, books); err != nil {
			return err
		}
		total += len(books)
	}
	log.Printf("loaded %d books for %d ISBNs", total, len(isbns))

	if m.TopAuthors > 0 {
		top, err := loader.TopAuthors(ctx, m.TopAuthors)
		if err != nil {
			return err
		}
		for _, ac := range top {
			log.Printf("%6d  %s", ac.Books, ac.Author)
		}
	}
	return nil
}

func (m *Main) isbnList() ([]string, error) {
	isbns := append([]string{}, m.ISBNs...)
	if m.ISBNFile != "" {
		f, err := os.Open(m.ISBNFile)
		if err != nil {
			return nil, errors.Wrap(err, "opening isbn file")
		}
		defer f.Close()
		scan := bufio.NewScanner(f)
		for scan.Scan() {
			if line := strings.TrimSpace(scan.Text()); line != "" {
				isbns = append(isbns, line)
			}
		}
		if err := scan.Err(); err != nil {
			return nil, errors.Wrap(err, "reading isbn file")
		}
	}
	return isbns, nil
}
