package events

import (
	"context"
	"errors"
	"io"

	"github.com/emzola/catalog/data"
)

// BookPublisher is implemented by every destination of catalog events.
type BookPublisher interface {
	PublishBookCreated(ctx context.Context, book *data.Book) error
	PublishBookDeleted(ctx context.Context, bookID int64) error
}

// Fanout delivers each event to all of its publishers. One failing
// publisher does not stop delivery to the others; the errors are joined.
type Fanout []BookPublisher

func (f Fanout) PublishBookCreated(ctx context.Context, book *data.Book) error {
	var errs []error
	for _, p := range f {
		errs = append(errs, p.PublishBookCreated(ctx, book))
	}
	return errors.Join(errs...)
}

func (f Fanout) PublishBookDeleted(ctx context.Context, bookID int64) error {
	var errs []error
	for _, p := range f {
		errs = append(errs, p.PublishBookDeleted(ctx, bookID))
	}
	return errors.Join(errs...)
}

// Close closes every publisher that holds resources.
func (f Fanout) Close() error {
	var errs []error
	for _, p := range f {
		if c, ok := p.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
