// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package output

import (
	"database/sql"
	"fmt"
	"os"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

const articlesSchema = `CREATE TABLE articles (
	position INTEGER PRIMARY KEY,
	journal TEXT NOT NULL,
	title TEXT NOT NULL,
	doi TEXT,
	published TEXT,
	keywords TEXT,
	abstract TEXT,
	url TEXT
)`

// insertBatch keeps each statement under SQLite's bound-parameter limit.
const insertBatch = 100

// writeSQLite builds a database in the temp file. The handle opened by
// writeAtomic is left untouched; the driver opens the same path.
func writeSQLite(f *os.File, records []Record) error {
	db, err := sql.Open("sqlite3", f.Name())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(articlesSchema); err != nil {
		return fmt.Errorf("creating articles table: %w", err)
	}

	for start := 0; start < len(records); start += insertBatch {
		end := min(start+insertBatch, len(records))
		insert := sq.Insert("articles").
			Columns("position", "journal", "title", "doi", "published", "keywords", "abstract", "url")
		for i, r := range records[start:end] {
			insert = insert.Values(start+i+1, r.Journal, r.Title, r.DOI, r.Published, r.Keywords, r.Abstract, r.URL)
		}
		if _, err := insert.RunWith(tx).Exec(); err != nil {
			return fmt.Errorf("inserting articles %d-%d: %w", start+1, end, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return db.Close()
}
