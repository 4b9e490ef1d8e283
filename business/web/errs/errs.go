// Package errs provides types and support for turning failures into
// web api responses.
package errs

import (
	"errors"
	"net/http"

	"github.com/dalyulbam/Class101LLL/foundation/blockchain/database"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/signature"
	"github.com/dalyulbam/Class101LLL/foundation/blockchain/state"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap gives errors.Is access to the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}

// =============================================================================

// ledgerStatus maps the errors returned by the ledger to the status a
// client should see.
var ledgerStatus = []struct {
	err    error
	status int
}{
	{state.ErrInsufficientFunds, http.StatusUnprocessableEntity},
	{state.ErrInvalidAmount, http.StatusBadRequest},
	{state.ErrInvalidAddress, http.StatusBadRequest},
	{state.ErrRejectedTransaction, http.StatusUnprocessableEntity},
	{signature.ErrMalformedKey, http.StatusBadRequest},
	{signature.ErrMalformedAddress, http.StatusBadRequest},
	{database.ErrBlockNotFound, http.StatusNotFound},
	{database.ErrUnminedTimeout, http.StatusServiceUnavailable},
}

// Ledger wraps an error returned by the ledger as a trusted error when it is
// one the client is expected to handle. Other errors are returned as is.
func Ledger(err error) error {
	if err == nil || IsTrusted(err) {
		return err
	}

	for _, ls := range ledgerStatus {
		if errors.Is(err, ls.err) {
			return NewTrusted(err, ls.status)
		}
	}

	return err
}
