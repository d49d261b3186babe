package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-learn-client/internal/utils"
)

// Error kinds. Every *RequestError unwraps to exactly one of them.
var (
	ErrAuthorization  = errors.New("not authorized")
	ErrNotFound       = errors.New("resource not found")
	ErrServer         = errors.New("server error")
	ErrNetwork        = errors.New("network unreachable")
	ErrUnknownRequest = errors.New("request failed")
)

// User-facing notification text per failure class.
const (
	MessageUnauthorized = "Unauthorized, please log in"
	MessageForbidden    = "Access denied"
	MessageNotFound     = "The requested resource was not found"
	MessageServerError  = "Server error"
	MessageFailed       = "Request failed"
	MessageNetwork      = "Network error, please check your connection"
)

// RequestError is a failed call as seen by the caller after the pipeline has reacted to it.
type RequestError struct {
	Method  string
	Path    string
	Status  int // 0 when no response was received
	Kind    error
	Message string
	Body    map[string]any
	Err     error
}

func (e *RequestError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

func (e *RequestError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ErrorBody exposes the decoded JSON object of the error response, nil when there was none.
func (e *RequestError) ErrorBody() map[string]any {
	return e.Body
}

// StatusOf returns the HTTP status behind err, 0 if there is none.
func StatusOf(err error) int {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Status
	}
	return 0
}

// classify maps a non-2xx response to its kind and notification text.
func classify(status int, body map[string]any) (kind error, message string) {
	switch status {
	case http.StatusUnauthorized:
		return ErrAuthorization, MessageUnauthorized
	case http.StatusForbidden:
		return ErrAuthorization, MessageForbidden
	case http.StatusNotFound:
		return ErrNotFound, MessageNotFound
	case http.StatusInternalServerError:
		return ErrServer, MessageServerError
	}
	if msg, ok := utils.FirstString(body["message"]); ok {
		return ErrUnknownRequest, msg
	}
	return ErrUnknownRequest, MessageFailed
}
