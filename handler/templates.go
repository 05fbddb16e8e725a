package handler

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"path/filepath"
	"time"

	"github.com/emzola/catalog/data"
	"github.com/gorilla/csrf"
)

//go:embed templates
var templateFS embed.FS

// templateData is the view-model handed to every page.
type templateData struct {
	BookList      []*data.BookSummary
	ResultMessage string
	Book          *data.Book
	ErrorList     []string
	Status        int
	Message       string
	CSRFField     template.HTML
	CurrentYear   int
}

func (h *Handler) newTemplateData(r *http.Request) *templateData {
	return &templateData{
		CSRFField:   csrf.TemplateField(r),
		CurrentYear: time.Now().Year(),
	}
}

// newTemplateCache parses every page together with the base layout.
func newTemplateCache() (map[string]*template.Template, error) {
	cache := map[string]*template.Template{}
	pages, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		name := filepath.Base(page)
		ts, err := template.New(name).ParseFS(templateFS, "templates/base.html", page)
		if err != nil {
			return nil, err
		}
		cache[name[:len(name)-len(filepath.Ext(name))]] = ts
	}
	return cache, nil
}
