// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"io"
	"testing"

	"github.com/emzola/catalog/data"
	"github.com/emzola/catalog/internal/jsonlog"
	"github.com/emzola/catalog/repository"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// PNG is the smallest byte sequence that content sniffing reports as image/png.
var PNG = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// NewDB opens an in-memory SQLite database with the books table created.
// The pool is limited to one connection so every query sees the same database.
func NewDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.CreateSchema(context.Background(), db, "sqlite3"))
	return db
}

// NewLogger returns a logger that discards everything.
func NewLogger() *jsonlog.Logger {
	return jsonlog.New(io.Discard, jsonlog.LevelOff)
}

// GoInAction returns a valid book submission.
func GoInAction() *data.Book {
	return &data.Book{
		Title:       "Go in Action",
		Author:      "W. Kennedy",
		Publisher:   "Manning",
		PublishDate: "20150101",
		ISBN:        "9781617291784",
	}
}
