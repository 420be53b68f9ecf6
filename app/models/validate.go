package models

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// FieldError describes the first failing field of a validation error.
type FieldError struct {
	Field string
	Tag   string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s failed on the '%s' rule", e.Field, e.Tag)
}

// firstFieldError reduces a validator error to its first failing field.
func firstFieldError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &FieldError{Field: verrs[0].Field(), Tag: verrs[0].Tag()}
	}
	return err
}

// Validate checks the signup form rules.
func (r *SignupRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return firstFieldError(err)
	}
	return nil
}

// Validate checks the post form rules.
func (r *PostRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return firstFieldError(err)
	}
	return nil
}

// Validate checks the comment form rules.
func (r *CommentRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return firstFieldError(err)
	}
	return nil
}
