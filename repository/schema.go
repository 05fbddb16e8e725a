package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// The books table. Ids come from an identity that is never reused, so a
// deleted id cannot be handed out again.
var schemas = map[string]string{
	"postgres": `
		CREATE TABLE IF NOT EXISTS books (
			id bigserial PRIMARY KEY,
			title text NOT NULL,
			author text NOT NULL,
			publisher text NOT NULL,
			publish_date text NOT NULL,
			thumbnail_name text,
			thumbnail_url text,
			detail text,
			isbn text NOT NULL,
			reg_date timestamp(0) with time zone NOT NULL DEFAULT NOW(),
			upd_date timestamp(0) with time zone NOT NULL DEFAULT NOW()
		)`,
	"sqlite3": `
		CREATE TABLE IF NOT EXISTS books (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			publisher TEXT NOT NULL,
			publish_date TEXT NOT NULL,
			thumbnail_name TEXT,
			thumbnail_url TEXT,
			detail TEXT,
			isbn TEXT NOT NULL,
			reg_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			upd_date TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
}

// CreateSchema creates the books table for the given driver if it does not exist.
func CreateSchema(ctx context.Context, db *sql.DB, driver string) error {
	ddl, ok := schemas[driver]
	if !ok {
		return fmt.Errorf("no schema for driver %q", driver)
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := db.ExecContext(ctx, ddl)
	return err
}
