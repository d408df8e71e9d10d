package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrForbidden         = errors.New("action forbidden")
	ErrStorage           = errors.New("storage failure")
	ErrNotFound          = errors.New("listing not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// ValidationError lists the offending fields with a message each.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a single-field validation error.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

type AuthorizationError struct {
	ActorID   string
	ListingID string
	Action    Action
}

func (e *AuthorizationError) Error() string {
	if e.ListingID == "" {
		return fmt.Sprintf("%s: %s by %q", ErrForbidden, e.Action, e.ActorID)
	}
	return fmt.Sprintf("%s: %s on listing %s by %q", ErrForbidden, e.Action, e.ListingID, e.ActorID)
}

func (e *AuthorizationError) Is(target error) bool { return target == ErrForbidden }

// StorageError wraps a failure of the repository or the media store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorage, e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

func (e *StorageError) Unwrap() error { return e.Err }

type NotFoundError struct {
	ListingID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotFound, e.ListingID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

type InvalidTransitionError struct {
	ListingID string
	From      ListingStatus
	To        ListingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: listing %s cannot go from %s to %s", ErrInvalidTransition, e.ListingID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }
