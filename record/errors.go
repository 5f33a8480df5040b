package record

import (
	"errors"
	"fmt"
)

// ValidationError reports an invalid argument detected at an operation
// boundary, before any state mutation.
type ValidationError struct {
	// Op is the operation or type whose input failed validation.
	Op string

	// Argument names the offending argument or field.
	Argument string

	// Reason describes the violated constraint.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid %s: %s", e.Op, e.Argument, e.Reason)
}

// NewValidationError creates a ValidationError.
func NewValidationError(op, argument, reason string) *ValidationError {
	return &ValidationError{Op: op, Argument: argument, Reason: reason}
}

// ConflictError reports a write rejected because of existing state: an
// existing-record strategy violation, a duplicate explicit internal id, or a
// duplicate stream creation.
type ConflictError struct {
	Op     string
	Reason string

	// ExistingInternalIDs lists the conflicting record ids when the
	// conflict arose from an existing-record check.
	ExistingInternalIDs []int64
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if len(e.ExistingInternalIDs) > 0 {
		return fmt.Sprintf("%s: %s (existing internal ids %v)", e.Op, e.Reason, e.ExistingInternalIDs)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// NewConflictError creates a ConflictError.
func NewConflictError(op, reason string, existing ...int64) *ConflictError {
	return &ConflictError{Op: op, Reason: reason, ExistingInternalIDs: existing}
}

// ProtocolError reports a handling state transition attempted from an
// unacceptable current state, or a stream gate toggle out of order.
type ProtocolError struct {
	Op               string
	Concern          string
	InternalRecordID int64
	Current          HandlingStatus
	Requested        HandlingStatus
	Reason           string
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Concern != "" {
		return fmt.Sprintf("%s: concern %q record %d: cannot move %s -> %s: %s",
			e.Op, e.Concern, e.InternalRecordID, e.Current, e.Requested, e.Reason)
	}
	return fmt.Sprintf("%s: cannot move %s -> %s: %s", e.Op, e.Current, e.Requested, e.Reason)
}

// NotFoundError reports a lookup that found nothing while the caller asked
// for not-found to be raised (RecordNotFoundStrategy Throw), or an operation
// against a stream that has not been created.
type NotFoundError struct {
	Op   string
	What string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s not found", e.Op, e.What)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(op, what string) *NotFoundError {
	return &NotFoundError{Op: op, What: what}
}

// UnsupportedValueError reports an enum value outside its closed set
// reaching a switch with no defined behavior. Always fatal to the operation.
type UnsupportedValueError struct {
	Enum  string
	Value string
}

// Error implements the error interface.
func (e *UnsupportedValueError) Error() string {
	return fmt.Sprintf("unsupported %s value %q", e.Enum, e.Value)
}

// NewUnsupportedValueError creates an UnsupportedValueError.
func NewUnsupportedValueError(enum, value string) *UnsupportedValueError {
	return &UnsupportedValueError{Enum: enum, Value: value}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

// IsProtocol reports whether err is (or wraps) a ProtocolError.
func IsProtocol(err error) bool {
	var e *ProtocolError
	return errors.As(err, &e)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}
