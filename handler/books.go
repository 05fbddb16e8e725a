package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/emzola/catalog/data"
	"github.com/emzola/catalog/internal/validator"
	"github.com/emzola/catalog/service"
)

// Multipart parts beyond this size are spooled to temporary files.
const multipartMemory = 1 << 20

// formOverhead is the room left for the text fields of the add form on top of
// the thumbnail size limit.
const formOverhead = 1 << 20

var errThumbnailTooLarge = errors.New("thumbnail exceeds the upload size limit")

func (h *Handler) rootHandler(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (h *Handler) homeHandler(w http.ResponseWriter, r *http.Request) {
	h.renderHome(w, r)
}

// renderHome lists every book, or the no-data message when there is none.
func (h *Handler) renderHome(w http.ResponseWriter, r *http.Request) {
	td := h.newTemplateData(r)
	books := h.service.ListBooks(r.Context())
	if len(books) > 0 {
		td.BookList = books
	} else {
		td.ResultMessage = data.MsgNoBooks
	}
	h.render(w, r, http.StatusOK, "home", td)
}

func (h *Handler) addBookHandler(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "addBook", h.newTemplateData(r))
}

// renderAddBookErrors re-renders the add form with the entered values.
func (h *Handler) renderAddBookErrors(w http.ResponseWriter, r *http.Request, book *data.Book, errs []string) {
	td := h.newTemplateData(r)
	td.Book = book
	td.ErrorList = errs
	h.render(w, r, http.StatusUnprocessableEntity, "addBook", td)
}

func (h *Handler) insertBookHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.Storage.MaxUploadSize+formOverhead)
	err := r.ParseMultipartForm(multipartMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxBytesError *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesError):
			h.contentTooLargeResponse(w, r)
		default:
			h.badRequestResponse(w, r, err)
		}
		return
	}
	book := &data.Book{
		Title:       r.PostForm.Get("title"),
		Author:      r.PostForm.Get("author"),
		Publisher:   r.PostForm.Get("publisher"),
		PublishDate: r.PostForm.Get("publishDate"),
		ISBN:        r.PostForm.Get("isbn"),
		Detail:      r.PostForm.Get("detail"),
	}
	filename, content, err := h.readThumbnail(r)
	if err != nil {
		switch {
		case errors.Is(err, errThumbnailTooLarge):
			h.logError(r, err)
			h.renderAddBookErrors(w, r, book, []string{data.MsgThumbnailUpload})
		default:
			h.badRequestResponse(w, r, err)
		}
		return
	}
	if len(content) > 0 {
		name, url, err := h.service.UploadThumbnail(r.Context(), filename, content)
		if err != nil {
			h.logError(r, err)
			h.renderAddBookErrors(w, r, book, []string{data.MsgThumbnailUpload})
			return
		}
		book.ThumbnailName = name
		book.ThumbnailURL = url
	}
	v := validator.New()
	if data.ValidateBook(v, book); !v.Valid() {
		h.renderAddBookErrors(w, r, book, v.Errors)
		return
	}
	bookID, err := h.service.RegisterBook(r.Context(), book)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	registered, err := h.service.GetBook(r.Context(), bookID)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	td := h.newTemplateData(r)
	td.Book = registered
	h.render(w, r, http.StatusOK, "details", td)
}

// readThumbnail returns the uploaded thumbnail, if any. A missing or empty
// file yields no content and no error; a file over the size limit yields
// errThumbnailTooLarge.
func (h *Handler) readThumbnail(r *http.Request) (string, []byte, error) {
	if r.MultipartForm == nil {
		return "", nil, nil
	}
	file, header, err := r.FormFile("thumbnail")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, nil
		}
		return "", nil, err
	}
	defer file.Close()
	if header.Size == 0 {
		return "", nil, nil
	}
	if header.Size > h.config.Storage.MaxUploadSize {
		return "", nil, errThumbnailTooLarge
	}
	content, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, content, nil
}

func (h *Handler) showBookHandler(w http.ResponseWriter, r *http.Request) {
	bookID, err := h.readBookID(r)
	if err != nil || bookID < 1 {
		h.notFoundResponse(w, r)
		return
	}
	book, err := h.service.GetBook(r.Context(), bookID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecordNotFound):
			h.notFoundResponse(w, r)
		default:
			h.serverErrorResponse(w, r, err)
		}
		return
	}
	td := h.newTemplateData(r)
	td.Book = book
	h.render(w, r, http.StatusOK, "details", td)
}

func (h *Handler) deleteBookHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, multipartMemory)
	bookID, err := h.readBookID(r)
	if err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	err = h.service.DeleteBook(r.Context(), bookID)
	if err != nil {
		h.serverErrorResponse(w, r, err)
		return
	}
	h.renderHome(w, r)
}
