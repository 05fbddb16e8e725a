package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
)

type envelope map[string]interface{}

// encodeJSON is a helper for sending JSON responses.
func (h *Handler) encodeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}
	js = append(js, '\n')
	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
	return nil
}

// render executes the named page into a buffer before writing it, so that a
// template failure still yields a clean error page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, td *templateData) {
	ts, ok := h.templates[page]
	if !ok {
		h.serverErrorResponse(w, r, fmt.Errorf("the template %s does not exist", page))
		return
	}
	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", td); err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// readBookID reads the bookId form or query value. Any integer is accepted.
func (h *Handler) readBookID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.FormValue("bookId"), 10, 64)
	if err != nil {
		return 0, errors.New("invalid bookId parameter")
	}
	return id, nil
}
