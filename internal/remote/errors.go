package remote

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrDisabled is returned by every call when no usable remote is
	// configured.
	ErrDisabled = errors.New("remote store disabled")

	// ErrNotFound is returned when a single-row read matches nothing.
	ErrNotFound = errors.New("remote row not found")

	// ErrTableMissing marks a request against a table the remote does not
	// have. Features backed by it degrade to empty.
	ErrTableMissing = errors.New("remote table missing")
)

// APIError is a non-2xx response from the row store.
type APIError struct {
	Method  string
	Table   string
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("remote %s %s: %d %s: %s", e.Method, e.Table, e.Status, e.Code, msg)
	}
	return fmt.Sprintf("remote %s %s: %d: %s", e.Method, e.Table, e.Status, msg)
}

// Unwrap lets errors.Is match ErrTableMissing and ErrNotFound.
func (e *APIError) Unwrap() error {
	switch {
	case e.Code == "PGRST205" || e.Code == "42P01":
		return ErrTableMissing
	case e.Code == "PGRST116":
		return ErrNotFound
	case e.Status == http.StatusNotFound && e.Code == "":
		return ErrTableMissing
	}
	return nil
}

// IsAuthError reports whether err (or any error in its chain) is a rejected
// credential.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
}

// IsPermanent reports whether retrying err cannot help: the remote is
// disabled, the table is absent, or the request itself was rejected.
func IsPermanent(err error) bool {
	if errors.Is(err, ErrDisabled) || errors.Is(err, ErrTableMissing) {
		return true
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict,
		http.StatusUnprocessableEntity:
		return true
	}
	return false
}
