package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/softseven/studio-admin/internal/errs"
)

// DefaultMessage is used when neither the server nor the transport explain a failure.
const DefaultMessage = "unexpected error"

// Error is the single normalized failure shape of the client.
type Error struct {
	Method     string
	Path       string
	StatusCode int                 // 0 when no response was received
	Message    string              // human-readable, safe to show to the user
	Fields     map[string][]string // validation errors keyed by field
	Err        error               // underlying transport error, if any
}

func (e *Error) Error() string { return e.Message }

// Unwrap exposes the matching sentinel and the transport cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	var out []error
	if s := sentinelFor(e.StatusCode, e.Err); s != nil {
		out = append(out, s)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

func sentinelFor(code int, cause error) error {
	switch {
	case code == 0 && cause != nil:
		return errs.ErrTransport
	case code == http.StatusUnauthorized:
		return errs.ErrUnauthorized
	case code == http.StatusForbidden:
		return errs.ErrForbidden
	case code == http.StatusNotFound:
		return errs.ErrNotFound
	case code == http.StatusUnprocessableEntity:
		return errs.ErrValidation
	case code == http.StatusTooManyRequests:
		return errs.ErrRateLimited
	}
	return nil
}

// errorBody covers the Laravel error envelope and the plain {"error": "..."} variant.
type errorBody struct {
	Message string              `json:"message"`
	Error   string              `json:"error"`
	Errors  map[string][]string `json:"errors"`
}

func statusError(method, path string, code int, body []byte) *Error {
	e := &Error{Method: method, Path: path, StatusCode: code}
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		e.Fields = eb.Errors
		switch {
		case eb.Message != "":
			e.Message = eb.Message
		case eb.Error != "":
			e.Message = eb.Error
		}
	}
	if e.Message == "" {
		e.Message = fmt.Sprintf("request failed with status code %d", code)
	}
	return e
}

func transportError(method, path string, err error) *Error {
	msg := DefaultMessage
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &Error{Method: method, Path: path, Message: msg, Err: err}
}

// Message extracts the user-facing message of any error, falling back to DefaultMessage.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if m := err.Error(); m != "" {
		return m
	}
	return DefaultMessage
}
