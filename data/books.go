package data

import (
	"time"

	"github.com/emzola/catalog/internal/validator"
)

// Messages shown on the add-book form when a submission is rejected.
const (
	MsgRequiredFields    = "Required fields are missing."
	MsgPublishDateFormat = "Publish date must be 8 half-width digits (YYYYMMDD)."
	MsgISBNFormat        = "ISBN must be 10 or 13 digits."
	MsgNoBooks           = "There are no books registered."
	MsgThumbnailUpload   = "The thumbnail could not be uploaded."
)

// Book defines a book model with every stored column.
type Book struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Publisher     string    `json:"publisher"`
	PublishDate   string    `json:"publish_date"`
	ISBN          string    `json:"isbn"`
	Detail        string    `json:"detail,omitempty"`
	ThumbnailName string    `json:"thumbnail_name,omitempty"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	RegisteredAt  time.Time `json:"registered_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BookSummary is the subset of a book shown on the home list.
type BookSummary struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Publisher    string `json:"publisher"`
	PublishDate  string `json:"publish_date"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// ValidateBook runs every rule against a submitted book. All failures are
// collected; a single empty field does not hide a format problem elsewhere.
func ValidateBook(v *validator.Validator, book *Book) {
	v.Check(validator.NotEmpty(book.Title, book.Author, book.Publisher, book.PublishDate), MsgRequiredFields)
	v.Check(validator.Matches(book.PublishDate, validator.PublishDateRX), MsgPublishDateFormat)
	v.Check(validator.Matches(book.ISBN, validator.ISBN10RX) || validator.Matches(book.ISBN, validator.ISBN13RX), MsgISBNFormat)
}
