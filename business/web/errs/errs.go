// Package errs carries the errors a node handler wants the caller to see.
package errs

import (
	"errors"
	"net/http"
)

// Response is the body written for a failed request.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is an error whose message is safe to return to the caller with
// the given status.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted marks err as safe to show the caller with the status.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap lets errors.Is reach the ledger sentinel inside, such as a
// duplicate key.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted reports whether err carries a Trusted error.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns the Trusted error carried by err, or nil.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}

// Status returns the status carried by err, or 500 when err isn't trusted.
func Status(err error) int {
	if te := GetTrusted(err); te != nil {
		return te.Status
	}
	return http.StatusInternalServerError
}
