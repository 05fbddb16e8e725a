package service

import (
	"errors"
)

var (
	ErrRecordNotFound       = errors.New("record not found")
	ErrStorage              = errors.New("thumbnail storage failed")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
)
