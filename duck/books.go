package duck

import (
	"context"
	"database/sql"
	"fmt"

	"tripkit/openlibrary"

	"github.com/pkg/errors"
)

// BookLoader appends Open Library book records to one table, keyed by ISBN.
type BookLoader struct {
	db    *sql.DB
	table string
}

// NewBookLoader ensures the books table exists and returns a loader writing
// to it.
func NewBookLoader(ctx context.Context, db *sql.DB, table string) (*BookLoader, error) {
	create := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		isbn VARCHAR,
		title VARCHAR,
		subtitle VARCHAR,
		authors VARCHAR,
		publishers VARCHAR,
		publish_date VARCHAR,
		number_of_pages BIGINT,
		url VARCHAR,
		extracted_at TIMESTAMP,
		PRIMARY KEY (isbn))`, table)
	if _, err := db.ExecContext(ctx, create); err != nil {
		return nil, errors.Wrapf(err, "creating table %s", table)
	}
	return &BookLoader{db: db, table: table}, nil
}

// Load appends a batch of books in one transaction, skipping ISBNs already
// present.
func (l *BookLoader) Load(ctx context.Context, books []openlibrary.Book) error {
	if len(books) == 0 {
		return nil
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	insert := fmt.Sprintf("INSERT INTO %s VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (isbn) DO NOTHING", l.table)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		tx.Rollback()
		return errors.Wrap(err, "preparing insert")
	}
	for _, b := range books {
		_, err := stmt.ExecContext(ctx, b.ISBN, b.Title, b.Subtitle, b.Authors,
			b.Publishers, b.PublishDate, b.NumberOfPages, b.URL, b.ExtractedAt)
		if err != nil {
			stmt.Close()
			tx.Rollback()
			return errors.Wrapf(err, "inserting book %s", b.ISBN)
		}
	}
	stmt.Close()
	return errors.Wrap(tx.Commit(), "committing batch")
}

// AuthorCount is one row of the authors-by-book-count summary.
type AuthorCount struct {
	Author string
	Books  int64
}

// TopAuthors returns the n authors with the most loaded books.
func (l *BookLoader) TopAuthors(ctx context.Context, n int) ([]AuthorCount, error) {
	query := fmt.Sprintf(`SELECT authors, COUNT(*) AS books
		FROM %s WHERE authors <> ''
		GROUP BY authors ORDER BY books DESC, authors LIMIT ?`, l.table)
	rows, err := l.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, errors.Wrap(err, "querying top authors")
	}
	defer rows.Close()
	var out []AuthorCount
	for rows.Next() {
		var ac AuthorCount
		if err := rows.Scan(&ac.Author, &ac.Books); err != nil {
			return nil, errors.Wrap(err, "scanning author count")
		}
		out = append(out, ac)
	}
	return out, errors.Wrap(rows.Err(), "iterating author counts")
}
