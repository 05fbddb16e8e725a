package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emzola/catalog/data"
	"github.com/emzola/catalog/events"
	"github.com/emzola/catalog/internal/validator"
	"github.com/emzola/catalog/repository"
	"github.com/gabriel-vasile/mimetype"
)

// SupportedThumbnailTypes lists the image types accepted as thumbnails.
var SupportedThumbnailTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
}

type books interface {
	ListBooks(ctx context.Context) []*data.BookSummary
	GetBook(ctx context.Context, bookID int64) (*data.Book, error)
	GetLatestBook(ctx context.Context) (*data.Book, error)
	RegisterBook(ctx context.Context, book *data.Book) (int64, error)
	DeleteBook(ctx context.Context, bookID int64) error
}

type thumbnails interface {
	UploadThumbnail(ctx context.Context, filename string, content []byte) (string, string, error)
}

// ListBooks service retrieves every book ordered by title. A failed query is
// logged and reported as an empty list.
func (s *service) ListBooks(ctx context.Context) []*data.BookSummary {
	books, err := s.repo.GetAllBooks(ctx)
	if err != nil {
		s.logger.PrintError(err, map[string]string{"operation": "list books"})
		return []*data.BookSummary{}
	}
	return books
}

// GetBook service retrieves the details of a book.
func (s *service) GetBook(ctx context.Context, bookID int64) (*data.Book, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return book, nil
}

// GetLatestBook service retrieves the book with the highest id.
func (s *service) GetLatestBook(ctx context.Context) (*data.Book, error) {
	book, err := s.repo.GetLatestBook(ctx)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRecordNotFound):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}
	return book, nil
}

// RegisterBook service stamps the registration and update times and inserts
// the book. It returns the generated id, which is also set on book.
func (s *service) RegisterBook(ctx context.Context, book *data.Book) (int64, error) {
	now := s.now().UTC().Truncate(time.Second)
	book.RegisteredAt = now
	book.UpdatedAt = now
	err := s.repo.CreateBook(ctx, book)
	if err != nil {
		return 0, err
	}
	created := *book
	s.publish(events.TypeBookCreated, func(ctx context.Context) error {
		return s.events.PublishBookCreated(ctx, &created)
	})
	return book.ID, nil
}

// DeleteBook service deletes a book. Deleting a missing book succeeds.
func (s *service) DeleteBook(ctx context.Context, bookID int64) error {
	err := s.repo.DeleteBook(ctx, bookID)
	if err != nil {
		return err
	}
	s.publish(events.TypeBookDeleted, func(ctx context.Context) error {
		return s.events.PublishBookDeleted(ctx, bookID)
	})
	return nil
}

// UploadThumbnail service checks that content is a supported image, stores it
// and returns the storage key and the URL it can be displayed from.
func (s *service) UploadThumbnail(ctx context.Context, filename string, content []byte) (string, string, error) {
	mtype := mimetype.Detect(content)
	if !validator.Mime(mtype, SupportedThumbnailTypes...) {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mtype.String())
	}
	key, err := s.thumbnails.Store(ctx, filename, content, mtype.String())
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return key, s.thumbnails.URL(key), nil
}
