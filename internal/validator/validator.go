// Package validator collects validation failures for user input.
// Failures are kept in the order they were found.
package validator

import (
	"regexp"
	"slices"

	"github.com/gabriel-vasile/mimetype"
)

var (
	PublishDateRX = regexp.MustCompile(`^\d{8}$`)
	ISBN10RX      = regexp.MustCompile(`^\d{10}$`)
	ISBN13RX      = regexp.MustCompile(`^\d{13}$`)
)

// Validator holds the list of validation error messages.
type Validator struct {
	Errors []string
}

// New creates a new Validator instance with an empty errors list.
func New() *Validator {
	return &Validator{Errors: []string{}}
}

// Valid returns true if the errors list doesn't contain any entries.
func (v *Validator) Valid() bool {
	return len(v.Errors) == 0
}

// AddError appends an error message to the list, unless the same
// message is already present.
func (v *Validator) AddError(message string) {
	if slices.Contains(v.Errors, message) {
		return
	}
	v.Errors = append(v.Errors, message)
}

// Check adds an error message to the list only if a validation check is not 'ok'.
func (v *Validator) Check(ok bool, message string) {
	if !ok {
		v.AddError(message)
	}
}

// NotEmpty returns true if none of the values is an empty string.
func NotEmpty(values ...string) bool {
	for _, value := range values {
		if value == "" {
			return false
		}
	}
	return true
}

// Matches returns true if a string value matches a specific regexp pattern.
func Matches(value string, rx *regexp.Regexp) bool {
	return rx.MatchString(value)
}

// PermittedValue returns true if a value is in a list of permitted values.
func PermittedValue[T comparable](value T, permittedValues ...T) bool {
	return slices.Contains(permittedValues, value)
}

// Mime returns true if the detected mime type is one of the permitted types.
func Mime(mtype *mimetype.MIME, permittedTypes ...string) bool {
	return mimetype.EqualsAny(mtype.String(), permittedTypes...)
}
