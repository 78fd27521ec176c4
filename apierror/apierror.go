// Package apierror maps the platform's error wire format onto Go errors.
// Every non-2xx response the client sees is decoded into an *Error so
// callers can branch on status codes and sentinels with errors.As/Is.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

type (
	Error struct {
		statusCode int
		id         string
		requestID  string

		message string
		wrapped error
	}

	// wire is the error body the server emits.
	wire struct {
		ID            string `json:"id"`
		Message       string `json:"message"`
		DetailedError string `json:"detailed_error"`
		RequestID     string `json:"request_id"`
		StatusCode    int    `json:"status_code"`
	}
)

var (
	_ error = (*Error)(nil)

	ErrNoSession  = errors.New("no session found")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrBadRequest = errors.New("bad request")
	ErrInternal   = errors.New("internal error")
)

const maxErrorBody = 1 << 16

func New(statusCode int, message string) *Error {
	return &Error{statusCode: statusCode, message: message, wrapped: sentinelFor(statusCode)}
}

// FromResponse decodes the response body into an *Error. It never returns
// nil, even when the body is empty or not the expected JSON shape: the
// status code alone is enough to produce a usable error.
func FromResponse(resp *http.Response) *Error {
	e := &Error{
		statusCode: resp.StatusCode,
		message:    http.StatusText(resp.StatusCode),
		wrapped:    sentinelFor(resp.StatusCode),
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(body) == 0 {
		return e
	}

	w := wire{}
	if err := json.Unmarshal(body, &w); err != nil {
		return e
	}

	if w.Message != "" {
		e.message = w.Message
	}
	e.id = w.ID
	e.requestID = w.RequestID
	return e
}

func (ae *Error) Error() string {
	if ae.wrapped != nil {
		return fmt.Sprintf("%s: %s", ae.message, ae.wrapped.Error())
	}
	return ae.message
}

func (ae *Error) StatusCode() int {
	return ae.statusCode
}

// ID returns the server-side error identifier, when one was relayed.
func (ae *Error) ID() string {
	return ae.id
}

func (ae *Error) RequestID() string {
	return ae.requestID
}

func (ae *Error) Unwrap() error {
	return ae.wrapped
}

// WriteTo emits the error in the platform wire format. Used by the fake
// server so its failures look exactly like the real service's.
func (ae *Error) WriteTo(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ae.statusCode)
	_ = json.NewEncoder(w).Encode(wire{
		ID:         ae.id,
		Message:    ae.message,
		RequestID:  ae.requestID,
		StatusCode: ae.statusCode,
	})
}

// WithID attaches a server-style error identifier.
func (ae *Error) WithID(id string) *Error {
	ae.id = id
	return ae
}

func sentinelFor(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrNoSession
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return ErrBadRequest
	default:
		if statusCode >= http.StatusInternalServerError {
			return ErrInternal
		}
	}
	return nil
}
