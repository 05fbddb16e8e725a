package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/emzola/catalog/data"
)

// queryTimeout bounds every statement issued by the repository.
const queryTimeout = 3 * time.Second

type books interface {
	CreateBook(ctx context.Context, book *data.Book) error
	GetBook(ctx context.Context, ID int64) (*data.Book, error)
	GetLatestBook(ctx context.Context) (*data.Book, error)
	GetAllBooks(ctx context.Context) ([]*data.BookSummary, error)
	DeleteBook(ctx context.Context, bookID int64) error
}

const bookColumns = `id, title, author, publisher, publish_date, COALESCE(thumbnail_name, ''), COALESCE(thumbnail_url, ''), COALESCE(detail, ''), isbn, reg_date, upd_date`

// CreateBook inserts a book record and sets book.ID to the generated id.
func (r *repository) CreateBook(ctx context.Context, book *data.Book) error {
	query := `
		INSERT INTO books (title, author, publisher, publish_date, thumbnail_name, thumbnail_url, detail, isbn, reg_date, upd_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`
	args := []interface{}{
		book.Title,
		book.Author,
		book.Publisher,
		book.PublishDate,
		book.ThumbnailName,
		book.ThumbnailURL,
		book.Detail,
		book.ISBN,
		book.RegisteredAt,
		book.UpdatedAt,
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return r.db.QueryRowContext(ctx, query, args...).Scan(&book.ID)
}

// GetBook retrieves a book record by its ID.
func (r *repository) GetBook(ctx context.Context, ID int64) (*data.Book, error) {
	if ID < 1 {
		return nil, ErrRecordNotFound
	}
	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanBook(r.db.QueryRowContext(ctx, query, ID))
}

// GetLatestBook retrieves the book record with the highest id.
func (r *repository) GetLatestBook(ctx context.Context) (*data.Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE id = (SELECT MAX(id) FROM books)`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	return scanBook(r.db.QueryRowContext(ctx, query))
}

// GetAllBooks retrieves every book ordered by title.
func (r *repository) GetAllBooks(ctx context.Context) ([]*data.BookSummary, error) {
	query := `
		SELECT id, title, author, publisher, publish_date, COALESCE(thumbnail_url, '')
		FROM books
		ORDER BY title`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	books := []*data.BookSummary{}
	for rows.Next() {
		var book data.BookSummary
		err := rows.Scan(
			&book.ID,
			&book.Title,
			&book.Author,
			&book.Publisher,
			&book.PublishDate,
			&book.ThumbnailURL,
		)
		if err != nil {
			return nil, err
		}
		books = append(books, &book)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// DeleteBook deletes a book record. Deleting an id that does not exist is
// not an error.
func (r *repository) DeleteBook(ctx context.Context, bookID int64) error {
	query := `
		DELETE FROM books
		WHERE id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := r.db.ExecContext(ctx, query, bookID)
	return err
}

func scanBook(row *sql.Row) (*data.Book, error) {
	var book data.Book
	err := row.Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Publisher,
		&book.PublishDate,
		&book.ThumbnailName,
		&book.ThumbnailURL,
		&book.Detail,
		&book.ISBN,
		&book.RegisteredAt,
		&book.UpdatedAt,
	)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return &book, nil
}
