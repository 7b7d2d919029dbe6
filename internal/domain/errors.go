package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrClientInput signals source content the pipeline rejected (malformed or unsupported).
	ErrClientInput = errors.New("client input rejected")
	// ErrSourceUnavailable signals a URL, path or upload that cannot be located.
	ErrSourceUnavailable = errors.New("source unavailable")
	// ErrConversionFailed signals any other fatal pipeline outcome.
	ErrConversionFailed = errors.New("conversion failed")
	// ErrConversionTimeout signals a conversion that exceeded its time budget.
	ErrConversionTimeout = errors.New("conversion timed out")
	// ErrBusy signals that no conversion slot became free in time.
	ErrBusy = errors.New("conversion capacity exhausted")
	// ErrInvalidRequest signals a request rejected before reaching the pipeline.
	ErrInvalidRequest = errors.New("invalid request")
)

// ClientInputError wraps ErrClientInput with the pipeline's own message.
// The message is safe to show to the caller.
type ClientInputError struct {
	Message string
}

func (e *ClientInputError) Error() string {
	return fmt.Sprintf("%s: %s", ErrClientInput.Error(), e.Message)
}

func (e *ClientInputError) Unwrap() error { return ErrClientInput }

// NewClientInput creates a client input error carrying msg.
func NewClientInput(msg string) error {
	return &ClientInputError{Message: msg}
}
