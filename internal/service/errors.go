package service

import (
	"errors"
	"fmt"
)

// The error types below carry a Code used by the router's handler summary
// logs. Errors are always contained to one user's turn: callers translate
// them into reply text, never into a crash.

// ValidationError reports malformed user input, recovered by re-prompting.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Code identifies the error class in logs.
func (e *ValidationError) Code() string { return "VALIDATION" }

// NotFoundError reports a missing row or a row in an unexpected status.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// Code identifies the error class in logs.
func (e *NotFoundError) Code() string { return "NOT_FOUND" }

// PreconditionError reports an operation attempted before its prerequisites
// (e.g. completing an order without a photo report).
type PreconditionError struct {
	Reason string
}

func (e *PreconditionError) Error() string { return e.Reason }

// Code identifies the error class in logs.
func (e *PreconditionError) Code() string { return "PRECONDITION" }

// StorageError wraps a persistence failure. The conversation stays in its
// current state so the user can retry.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("storage: %s: %v", e.Op, e.Err) }

// Unwrap exposes the underlying driver error.
func (e *StorageError) Unwrap() error { return e.Err }

// Code identifies the error class in logs.
func (e *StorageError) Code() string { return "STORAGE" }

// DeliveryError wraps an outbound delivery failure; non-fatal by design
// contract: the conversation still advances.
type DeliveryError struct {
	Err error
}

func (e *DeliveryError) Error() string { return fmt.Sprintf("delivery: %v", e.Err) }

// Unwrap exposes the transport error.
func (e *DeliveryError) Unwrap() error { return e.Err }

// Code identifies the error class in logs.
func (e *DeliveryError) Code() string { return "DELIVERY" }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsPrecondition reports whether err is a PreconditionError.
func IsPrecondition(err error) bool {
	var pe *PreconditionError
	return errors.As(err, &pe)
}

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// IsDelivery reports whether err is a DeliveryError.
func IsDelivery(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}
