package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/emzola/catalog/config"
	"github.com/emzola/catalog/data"
	"github.com/emzola/catalog/events"
	"github.com/emzola/catalog/handler"
	"github.com/emzola/catalog/internal/testutil"
	"github.com/emzola/catalog/repository"
	"github.com/emzola/catalog/service"
	"github.com/emzola/catalog/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	routes http.Handler
	db     *sql.DB
	dir    string
}

func newTestApp(t *testing.T, configure func(*config.Config)) *testApp {
	t.Helper()
	return newTestAppWithRepo(t, configure, nil)
}

// newTestAppWithRepo builds the app on wrap(repo) when wrap is not nil.
func newTestAppWithRepo(t *testing.T, configure func(*config.Config), wrap func(repository.Repository) repository.Repository) *testApp {
	t.Helper()
	var cfg config.Config
	cfg.Server.Env = "testing"
	cfg.Storage.Driver = config.StorageDisk
	cfg.Storage.Dir = t.TempDir()
	cfg.Storage.BaseURL = "/thumbnails"
	cfg.Storage.MaxUploadSize = 1 << 20
	if configure != nil {
		configure(&cfg)
	}
	db := testutil.NewDB(t)
	logger := testutil.NewLogger()
	store, err := storage.NewDiskStore(cfg.Storage.Dir, cfg.Storage.BaseURL)
	require.NoError(t, err)
	var wg sync.WaitGroup
	t.Cleanup(wg.Wait)
	var repo repository.Repository = repository.New(db)
	if wrap != nil {
		repo = wrap(repo)
	}
	svc := service.New(&wg, logger, repo, store, events.Noop{})
	h, err := handler.New(cfg, logger, svc)
	require.NoError(t, err)
	t.Cleanup(h.Close)
	return &testApp{routes: h.Routes(), db: db, dir: cfg.Storage.Dir}
}

func (app *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	app.routes.ServeHTTP(rr, req)
	return rr
}

func (app *testApp) get(path string) *httptest.ResponseRecorder {
	return app.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (app *testApp) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return app.do(req)
}

// insertBook submits the add-book form as multipart data. No file part is
// written when filename is empty.
func (app *testApp) insertBook(t *testing.T, book *data.Book, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body := new(bytes.Buffer)
	mw := multipart.NewWriter(body)
	fields := [][2]string{
		{"title", book.Title},
		{"author", book.Author},
		{"publisher", book.Publisher},
		{"publishDate", book.PublishDate},
		{"isbn", book.ISBN},
		{"detail", book.Detail},
	}
	for _, f := range fields {
		require.NoError(t, mw.WriteField(f[0], f[1]))
	}
	if filename != "" {
		part, err := mw.CreateFormFile("thumbnail", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/insertBook", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return app.do(req)
}

func (app *testApp) countBooks(t *testing.T) int {
	t.Helper()
	var n int
	require.NoError(t, app.db.QueryRow("SELECT COUNT(*) FROM books").Scan(&n))
	return n
}

func (app *testApp) lastID(t *testing.T) int64 {
	t.Helper()
	var id int64
	require.NoError(t, app.db.QueryRow("SELECT MAX(id) FROM books").Scan(&id))
	return id
}

func TestRootRedirectsHome(t *testing.T) {
	app := newTestApp(t, nil)
	rr := app.get("/")
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/home", rr.Header().Get("Location"))
}

func TestHomeEmpty(t *testing.T) {
	app := newTestApp(t, nil)
	rr := app.get("/home")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<title>Home - Library</title>")
	assert.Contains(t, rr.Body.String(), data.MsgNoBooks)
	assert.NotContains(t, rr.Body.String(), `class="book-list"`)
}

func TestHomeListsBooksByTitle(t *testing.T) {
	app := newTestApp(t, nil)
	second := testutil.GoInAction()
	second.Title = "Learning Go"
	second.ISBN = "1492077216"
	require.Equal(t, http.StatusOK, app.insertBook(t, second, "", nil).Code)
	require.Equal(t, http.StatusOK, app.insertBook(t, testutil.GoInAction(), "", nil).Code)

	rr := app.get("/home")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.NotContains(t, body, data.MsgNoBooks)
	first := strings.Index(body, "Go in Action")
	last := strings.Index(body, "Learning Go")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, last)
	assert.Less(t, first, last)
}

// listFailingRepo fails only when listing books.
type listFailingRepo struct {
	repository.Repository
}

func (listFailingRepo) GetAllBooks(ctx context.Context) ([]*data.BookSummary, error) {
	return nil, errors.New("connection refused")
}

func TestHomeListFailureShowsNoData(t *testing.T) {
	app := newTestAppWithRepo(t, nil, func(repo repository.Repository) repository.Repository {
		return listFailingRepo{repo}
	})
	require.Equal(t, http.StatusOK, app.insertBook(t, testutil.GoInAction(), "", nil).Code)
	require.Equal(t, 1, app.countBooks(t))

	rr := app.get("/home")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), data.MsgNoBooks)
	assert.NotContains(t, rr.Body.String(), `class="book-list"`)

	rr = app.postForm("/deleteBook", url.Values{"bookId": {"1"}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), data.MsgNoBooks)
}

func TestAddBookForm(t *testing.T) {
	app := newTestApp(t, nil)
	rr := app.get("/addBook")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `action="/insertBook"`)
	assert.Contains(t, rr.Body.String(), `enctype="multipart/form-data"`)
	assert.NotContains(t, rr.Body.String(), `class="error-list"`)
}

func TestInsertBookWithoutThumbnail(t *testing.T) {
	app := newTestApp(t, nil)
	rr := app.insertBook(t, testutil.GoInAction(), "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "<title>Details - Library</title>")
	for _, want := range []string{"Go in Action", "W. Kennedy", "Manning", "20150101", "9781617291784", "No image"} {
		assert.Contains(t, body, want)
	}
	assert.Equal(t, 1, app.countBooks(t))

	var name, thumbURL string
	require.NoError(t, app.db.QueryRow("SELECT COALESCE(thumbnail_name, ''), COALESCE(thumbnail_url, '') FROM books").Scan(&name, &thumbURL))
	assert.Empty(t, name)
	assert.Empty(t, thumbURL)
}

func TestInsertBookEmptyFileIsIgnored(t *testing.T) {
	app := newTestApp(t, nil)
	rr := app.insertBook(t, testutil.GoInAction(), "cover.png", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "No image")
	entries, err := os.ReadDir(app.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInsertBookWithThumbnail(t *testing.T) {
	app := newTestApp(t, nil)
	rr := app.insertBook(t, testutil.GoInAction(), "Cover.PNG", testutil.PNG)
	require.Equal(t, http.StatusOK, rr.Code)

	var name, thumbURL string
	require.NoError(t, app.db.QueryRow("SELECT thumbnail_name, thumbnail_url FROM books").Scan(&name, &thumbURL))
	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.Equal(t, "/thumbnails/"+name, thumbURL)
	assert.Contains(t, rr.Body.String(), `src="`+thumbURL+`"`)

	served := app.get(thumbURL)
	require.Equal(t, http.StatusOK, served.Code)
	assert.Equal(t, testutil.PNG, served.Body.Bytes())
}

func TestInsertBookValidationErrorsAccumulate(t *testing.T) {
	app := newTestApp(t, nil)
	book := &data.Book{Title: "Go in Action", PublishDate: "2015-01-01", ISBN: "12345"}
	rr := app.insertBook(t, book, "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "<title>Add a book - Library</title>")

	positions := make([]int, 0, 3)
	for _, msg := range []string{data.MsgRequiredFields, data.MsgPublishDateFormat, data.MsgISBNFormat} {
		i := strings.Index(body, msg)
		require.NotEqual(t, -1, i, msg)
		positions = append(positions, i)
	}
	assert.Less(t, positions[0], positions[1])
	assert.Less(t, positions[1], positions[2])
	assert.Contains(t, body, `value="Go in Action"`)
	assert.Contains(t, body, `value="2015-01-01"`)
	assert.Equal(t, 0, app.countBooks(t))
}

func TestInsertBookSingleViolation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*data.Book)
		want   string
	}{
		{name: "missing author", modify: func(b *data.Book) { b.Author = "" }, want: data.MsgRequiredFields},
		{name: "short publish date", modify: func(b *data.Book) { b.PublishDate = "2015011" }, want: data.MsgPublishDateFormat},
		{name: "eleven digit isbn", modify: func(b *data.Book) { b.ISBN = "12345678901" }, want: data.MsgISBNFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, nil)
			book := testutil.GoInAction()
			tt.modify(book)
			rr := app.insertBook(t, book, "", nil)
			assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
			assert.Equal(t, 1, strings.Count(rr.Body.String(), "<li>"))
			assert.Contains(t, rr.Body.String(), tt.want)
			assert.Equal(t, 0, app.countBooks(t))
		})
	}
}

func TestInsertBookRejectsNonImageThumbnail(t *testing.T) {
	app := newTestApp(t, nil)
	rr := app.insertBook(t, testutil.GoInAction(), "notes.txt", []byte("plain text, not an image"))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), data.MsgThumbnailUpload)
	assert.Contains(t, rr.Body.String(), `value="W. Kennedy"`)
	assert.Equal(t, 0, app.countBooks(t))
}

func TestInsertBookThumbnailURLIgnoresFilenameSuffix(t *testing.T) {
	app := newTestApp(t, nil)
	for _, filename := range []string{"cover.png?v=1", "cover.png#top"} {
		rr := app.insertBook(t, testutil.GoInAction(), filename, testutil.PNG)
		require.Equal(t, http.StatusOK, rr.Code, filename)

		var thumbURL string
		require.NoError(t, app.db.QueryRow("SELECT thumbnail_url FROM books WHERE id = (SELECT MAX(id) FROM books)").Scan(&thumbURL))
		assert.NotContains(t, thumbURL, "?", filename)
		assert.NotContains(t, thumbURL, "#", filename)
		assert.True(t, strings.HasSuffix(thumbURL, ".png"), thumbURL)

		served := app.get(thumbURL)
		require.Equal(t, http.StatusOK, served.Code, thumbURL)
		assert.Equal(t, testutil.PNG, served.Body.Bytes())
	}
}

func TestInsertBookThumbnailTooLarge(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) { cfg.Storage.MaxUploadSize = 64 })
	content := append(append([]byte{}, testutil.PNG...), bytes.Repeat([]byte{0}, 1024)...)
	rr := app.insertBook(t, testutil.GoInAction(), "cover.png", content)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), data.MsgThumbnailUpload)
	assert.Contains(t, rr.Body.String(), `value="Go in Action"`)
	assert.Contains(t, rr.Body.String(), `value="9781617291784"`)
	assert.Equal(t, 0, app.countBooks(t))
	entries, err := os.ReadDir(app.dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestInsertBookStorageFailure(t *testing.T) {
	app := newTestApp(t, nil)
	require.NoError(t, os.RemoveAll(app.dir))
	rr := app.insertBook(t, testutil.GoInAction(), "cover.png", testutil.PNG)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Contains(t, rr.Body.String(), data.MsgThumbnailUpload)
	assert.NotContains(t, rr.Body.String(), data.MsgRequiredFields)
	assert.Equal(t, 0, app.countBooks(t))
}

func TestShowBook(t *testing.T) {
	app := newTestApp(t, nil)
	require.Equal(t, http.StatusOK, app.insertBook(t, testutil.GoInAction(), "", nil).Code)
	id := app.lastID(t)

	rr := app.get("/details?bookId=" + strconv.FormatInt(id, 10))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Go in Action")
	assert.Contains(t, rr.Body.String(), `action="/deleteBook"`)
}

func TestShowBookNotFound(t *testing.T) {
	app := newTestApp(t, nil)
	for _, path := range []string{"/details?bookId=42", "/details?bookId=0", "/details?bookId=-3", "/details?bookId=abc", "/details"} {
		rr := app.get(path)
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
	}
}

func TestDeleteBook(t *testing.T) {
	app := newTestApp(t, nil)
	require.Equal(t, http.StatusOK, app.insertBook(t, testutil.GoInAction(), "", nil).Code)
	id := app.lastID(t)

	rr := app.postForm("/deleteBook", url.Values{"bookId": {strconv.FormatInt(id, 10)}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "<title>Home - Library</title>")
	assert.Contains(t, rr.Body.String(), data.MsgNoBooks)
	assert.Equal(t, 0, app.countBooks(t))
	assert.Equal(t, http.StatusNotFound, app.get("/details?bookId="+strconv.FormatInt(id, 10)).Code)
}

func TestDeleteBookNonexistentID(t *testing.T) {
	app := newTestApp(t, nil)
	require.Equal(t, http.StatusOK, app.insertBook(t, testutil.GoInAction(), "", nil).Code)

	for _, id := range []string{"999", "0", "-3"} {
		rr := app.postForm("/deleteBook", url.Values{"bookId": {id}})
		assert.Equal(t, http.StatusOK, rr.Code, id)
		assert.Contains(t, rr.Body.String(), "<title>Home - Library</title>", id)
		assert.Contains(t, rr.Body.String(), "Go in Action", id)
	}
	assert.Equal(t, 1, app.countBooks(t))
}

func TestDeleteBookInvalidID(t *testing.T) {
	app := newTestApp(t, nil)
	rr := app.postForm("/deleteBook", url.Values{"bookId": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	app := newTestApp(t, nil)
	rr := app.get("/insertBook")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHealthcheck(t *testing.T) {
	app := newTestApp(t, nil)
	rr := app.get("/v1/healthcheck")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var got struct {
		Status     string            `json:"status"`
		SystemInfo map[string]string `json:"system_info"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "available", got.Status)
	assert.Equal(t, "testing", got.SystemInfo["environment"])
}

func TestMetricsEndpoint(t *testing.T) {
	disabled := newTestApp(t, nil)
	assert.Equal(t, http.StatusNotFound, disabled.get("/debug/vars").Code)

	enabled := newTestApp(t, func(cfg *config.Config) { cfg.Metrics.Enabled = true })
	enabled.get("/home")
	rr := enabled.get("/debug/vars")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "total_requests_received")
}

func TestRateLimit(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) {
		cfg.Limiter.Enabled = true
		cfg.Limiter.RPS = 0.001
		cfg.Limiter.Burst = 2
	})
	assert.Equal(t, http.StatusOK, app.get("/home").Code)
	assert.Equal(t, http.StatusOK, app.get("/home").Code)
	assert.Equal(t, http.StatusTooManyRequests, app.get("/home").Code)

	other := httptest.NewRequest(http.MethodGet, "/home", nil)
	other.RemoteAddr = "198.51.100.7:4242"
	assert.Equal(t, http.StatusOK, app.do(other).Code)
}

func TestCORS(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) {
		cfg.Cors.TrustedOrigins = []string{"https://library.example.com"}
	})
	req := httptest.NewRequest(http.MethodOptions, "/insertBook", nil)
	req.Header.Set("Origin", "https://library.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := app.do(req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "https://library.example.com", rr.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set("Origin", "https://elsewhere.example.com")
	rr = app.do(req)
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestCSRFProtection(t *testing.T) {
	app := newTestApp(t, func(cfg *config.Config) {
		cfg.CSRF.Key = strings.Repeat("k", 32)
	})
	form := app.get("/addBook")
	require.Equal(t, http.StatusOK, form.Code)
	assert.Contains(t, form.Body.String(), `name="gorilla.csrf.Token"`)

	rr := app.insertBook(t, testutil.GoInAction(), "", nil)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, 0, app.countBooks(t))
}

func TestErrorPageIsHTML(t *testing.T) {
	app := newTestApp(t, nil)
	rr := app.get("/no-such-page")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "the requested resource could not be found")
}
