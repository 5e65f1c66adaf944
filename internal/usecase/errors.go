package usecase

import (
	"errors"
	"fmt"
)

// usecase層のエラーはHTTPステータスとメッセージに寄せて返す。
// handlerはAsHTTPErrorで判定してそのまま書き出す。
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
