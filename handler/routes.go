package handler

import (
	"expvar"
	"net/http"
	"strings"

	"github.com/emzola/catalog/config"
	"github.com/julienschmidt/httprouter"
)

// Routes returns the application's router wrapped in its middleware chain.
func (h *Handler) Routes() http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(h.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(h.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/", h.rootHandler)
	router.HandlerFunc(http.MethodGet, "/home", h.homeHandler)
	router.HandlerFunc(http.MethodGet, "/addBook", h.addBookHandler)
	router.HandlerFunc(http.MethodPost, "/insertBook", h.insertBookHandler)
	router.HandlerFunc(http.MethodPost, "/deleteBook", h.deleteBookHandler)
	router.HandlerFunc(http.MethodGet, "/details", h.showBookHandler)

	// Thumbnails held on local disk are served by the application itself.
	if h.config.Storage.Driver == config.StorageDisk && strings.HasPrefix(h.config.Storage.BaseURL, "/") {
		prefix := strings.TrimSuffix(h.config.Storage.BaseURL, "/")
		router.ServeFiles(prefix+"/*filepath", http.Dir(h.config.Storage.Dir))
	}

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", h.healthcheckHandler)
	if h.config.Metrics.Enabled {
		router.Handler(http.MethodGet, "/debug/vars", expvar.Handler())
	}

	var handler http.Handler = router
	handler = h.csrfProtect(handler)
	handler = h.rateLimit(handler)
	handler = h.enableCORS(handler)
	if h.config.Metrics.Enabled {
		handler = h.metrics(handler)
	}
	return h.recoverPanic(h.logRequest(handler))
}
