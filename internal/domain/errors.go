package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors
var (
	// Validation errors
	ErrValidation = errors.New("validation error")

	// Selection errors
	ErrCapacityExceeded  = errors.New("zone capacity exceeded")
	ErrSelectionRequired = errors.New("ticket selection and date are required")

	// Draft errors
	ErrInvalidTransition = errors.New("invalid draft transition")
	ErrDraftSubmitted    = errors.New("event has already been submitted")
	ErrDraftNotFound     = errors.New("draft not found")

	// Inventory and schedule errors
	ErrZoneNotFound        = errors.New("seat zone not found")
	ErrWeightClassNotFound = errors.New("weight class not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrInvalidResult       = errors.New("winner must be one of the match boxers")

	// Persistence errors
	ErrEventNotFound = errors.New("event not found")
	ErrOrderNotFound = errors.New("order not found")
	ErrNotEventOwner = errors.New("event belongs to another organizer")

	// Reservation errors
	ErrInsufficientSeats = errors.New("insufficient seats available")
	ErrHoldNotFound      = errors.New("hold not found or expired")
)

// ValidationError reports invalid fields keyed by field name.
type ValidationError struct {
	Fields map[string]string
	causes []error
}

// NewValidationError creates a ValidationError with a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Add records a message for field. The first message for a field wins.
func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = message
	}
}

// Merge copies fields from other, prefixing each key.
func (e *ValidationError) Merge(prefix string, other *ValidationError) {
	if other == nil {
		return
	}
	for field, msg := range other.Fields {
		e.Add(prefix+field, msg)
	}
	e.causes = append(e.causes, other.causes...)
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}

// OrNil returns e as an error when it has fields, nil otherwise.
func (e *ValidationError) OrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

// WithCause attaches an underlying sentinel so errors.Is matches it too.
func (e *ValidationError) WithCause(err error) *ValidationError {
	e.causes = append(e.causes, err)
	return e
}

func (e *ValidationError) Unwrap() []error {
	return append([]error{ErrValidation}, e.causes...)
}

// AsValidationError extracts a *ValidationError from err.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
