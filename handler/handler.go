package handler

import (
	"html/template"
	"time"

	"github.com/emzola/catalog/config"
	"github.com/emzola/catalog/internal/jsonlog"
	"github.com/emzola/catalog/service"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"
)

const version = "1.0.0"

// Handler defines Handler layer.
type Handler struct {
	config    config.Config
	logger    *jsonlog.Logger
	service   service.Service
	templates map[string]*template.Template
	limiters  *ttlcache.Cache[string, *rate.Limiter]
}

// New creates a new instance of Handler. Close must be called to stop the
// limiter cache janitor.
func New(cfg config.Config, logger *jsonlog.Logger, service service.Service) (*Handler, error) {
	templates, err := newTemplateCache()
	if err != nil {
		return nil, err
	}
	// A client that has not been seen for three minutes loses its limiter.
	limiters := ttlcache.New(ttlcache.WithTTL[string, *rate.Limiter](3 * time.Minute))
	go limiters.Start()
	return &Handler{
		config:    cfg,
		logger:    logger,
		service:   service,
		templates: templates,
		limiters:  limiters,
	}, nil
}

// Close releases background resources held by the handler.
func (h *Handler) Close() {
	h.limiters.Stop()
}
