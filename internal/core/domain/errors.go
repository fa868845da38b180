package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrTemporary    = errors.New("temporary failure")
)

// Error is a semantic error whose message is safe to show to API clients.
// It unwraps to its kind so IsKind keeps working through wrapping.
type Error struct {
	kind    error
	message string
}

func NewError(kind error, message string) *Error {
	return &Error{kind: kind, message: message}
}

func (e *Error) Error() string { return e.message }

func (e *Error) Unwrap() error { return e.kind }

// Messages below are part of the public API contract.
var (
	ErrDocumentNotFound     = NewError(ErrNotFound, "Document not found")
	ErrIngestionNotFound    = NewError(ErrNotFound, "Ingestion process not found")
	ErrUserNotFound         = NewError(ErrNotFound, "User not found")
	ErrNoFailedIngestions   = NewError(ErrInvalidInput, "No failed ingestion processes found")
	ErrDocumentFileRequired = NewError(ErrInvalidInput, "Please upload a document")
	ErrDocumentFileMissing  = NewError(ErrInvalidInput, "Attach the document")
	ErrDocumentFileGone     = NewError(ErrNotFound, "Document file not found")
	ErrInvalidCredentials   = NewError(ErrUnauthorized, "Email is not registered!")
	ErrEmailTaken           = NewError(ErrConflict, "Email already exists")
	ErrPasswordUnchanged    = NewError(ErrConflict, "Password cannot be the same")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// PublicMessage returns the client-facing message carried by err, if any.
func PublicMessage(err error) (string, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.message, true
	}
	return "", false
}
