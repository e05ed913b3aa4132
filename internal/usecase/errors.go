package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError はhandlerでそのままステータスとメッセージに変換される
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func badRequest(msg string) error {
	return NewHTTPError(http.StatusBadRequest, msg)
}

func notFound(msg string) error {
	return NewHTTPError(http.StatusNotFound, msg)
}

var (
	errUnauthorized = NewHTTPError(http.StatusUnauthorized, "unauthorized")
	errDB           = NewHTTPError(http.StatusInternalServerError, "db error")
)
