package service

import (
	"context"
	"sync"
	"time"

	"github.com/emzola/catalog/data"
	"github.com/emzola/catalog/internal/jsonlog"
	"github.com/emzola/catalog/repository"
	"github.com/emzola/catalog/storage"
)

type Service interface {
	books
	thumbnails
}

// Publisher announces catalog changes to other systems.
type Publisher interface {
	PublishBookCreated(ctx context.Context, book *data.Book) error
	PublishBookDeleted(ctx context.Context, bookID int64) error
}

// service defines the service layer. It holds no per-request state.
type service struct {
	wg         *sync.WaitGroup
	logger     *jsonlog.Logger
	repo       repository.Repository
	thumbnails storage.Store
	events     Publisher
	now        func() time.Time
}

// New creates a new instance of Service. Background tasks are tracked in wg
// so that shutdown can wait for them.
func New(wg *sync.WaitGroup, logger *jsonlog.Logger, repo repository.Repository, thumbnails storage.Store, events Publisher) *service {
	return &service{
		wg:         wg,
		logger:     logger,
		repo:       repo,
		thumbnails: thumbnails,
		events:     events,
		now:        time.Now,
	}
}
