// Package gateway talks to the remote contact collection: fetch all, create,
// update by id and delete by id.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"phonebook/internal/contact"
)

// Gateway is the remote collection the phonebook reconciles against.
type Gateway interface {
	GetAll(ctx context.Context) ([]contact.Contact, error)
	Create(ctx context.Context, p contact.Payload) (contact.Contact, error)
	Update(ctx context.Context, id contact.ID, p contact.Payload) (contact.Contact, error)
	Remove(ctx context.Context, id contact.ID) error
}

var (
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = errors.New("gateway: service unavailable")
	// ErrNotFound matches an *Error with status 404.
	ErrNotFound = errors.New("gateway: record not found")
)

// Error is a non-2xx response from the collection.
type Error struct {
	StatusCode int
	// Message is the "error" field of the response body, verbatim.
	Message   string
	Body      string
	RequestID string
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	if e == nil {
		return "gateway: <nil>"
	}
	if e.Message == "" {
		return fmt.Sprintf("gateway: status %d", e.StatusCode)
	}
	return fmt.Sprintf("gateway: status %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *Error) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// ErrorText returns the text shown to the user for a failed call: the
// server's error field when present, otherwise the best description available.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		if gwErr.Message != "" {
			return gwErr.Message
		}
		if text := http.StatusText(gwErr.StatusCode); text != "" {
			return text
		}
		return fmt.Sprintf("HTTP %d", gwErr.StatusCode)
	}
	switch {
	case errors.Is(err, ErrUnavailable):
		return "service unavailable, try again shortly"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	}
	return err.Error()
}
