// Package errors defines the storefront error taxonomy.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers malformed postal codes, card fields and request values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when a product, order or session does not exist.
	ErrNotFound = errors.New("not found")
	// ErrNotAuthenticated is returned when an operation needs a signed-in user.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrGatewayRejected marks an explicit non-approved answer from the payment gateway.
	ErrGatewayRejected = errors.New("payment rejected by gateway")
	// ErrGatewayUnavailable marks network, timeout or unexpected gateway failures.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrCheckoutInFlight is returned while a gateway call for the session is outstanding.
	ErrCheckoutInFlight = errors.New("checkout request in flight")
	// ErrInvalidTransition is returned for state changes the checkout or order lifecycle forbids.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError is a field-level InvalidInput error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match validation errors.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Is, As and New are re-exported so callers importing this package under the
// name errors keep the standard helpers.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

func New(text string) error { return errors.New(text) }
