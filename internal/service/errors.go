package service

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindValidation         ErrorKind = "validation"
	KindProvider           ErrorKind = "provider"
	KindNormalizationEmpty ErrorKind = "normalization_empty"
	KindGenerationFailed   ErrorKind = "generation_failed"
	KindPersistence        ErrorKind = "persistence"
)

// Error is a tagged gateway failure. Only validation and generation_failed reach callers.
type Error struct {
	Kind    ErrorKind
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func newValidationError(message string, details map[string]interface{}) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

func newGenerationFailedError(err error) *Error {
	return &Error{Kind: KindGenerationFailed, Message: "no provider or stored template could produce a message", Err: err}
}

func newProviderError(providerID string, err error) *Error {
	return &Error{Kind: KindProvider, Message: "provider " + providerID + " failed", Err: err}
}

func newNormalizationEmptyError(providerID string) *Error {
	return &Error{Kind: KindNormalizationEmpty, Message: "provider " + providerID + " returned no usable messages"}
}

func newPersistenceError(what string, err error) *Error {
	return &Error{Kind: KindPersistence, Message: "failed to persist " + what, Err: err}
}
