package services

import (
	"errors"
	"fmt"

	"likeboard/app/models"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrPostNotFound       = fmt.Errorf("post %w", ErrNotFound)
	ErrCommentNotFound    = fmt.Errorf("comment %w", ErrNotFound)
	ErrForbidden          = errors.New("forbidden")
	ErrSelfLike           = errors.New("cannot like own post")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid nickname or password")
	ErrConflict           = errors.New("already exists")
	ErrToggleFailed       = errors.New("like toggle failed")
)

// ValidationError names the first field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// validationError converts a model validation failure.
func validationError(err error) error {
	var fe *models.FieldError
	if errors.As(err, &fe) {
		return &ValidationError{Field: fe.Field, Reason: fe.Tag}
	}
	return &ValidationError{Field: "input", Reason: err.Error()}
}
