package controller

import (
	"errors"

	"github.com/google/uuid"
	"github.com/moveefy/server/pkg/validator"
)

func (c controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}

type validationError struct {
	errors []validator.ValidationError
}

func (e *validationError) Error() string {
	return ErrValidationError.Error()
}

func (e *validationError) Is(target error) bool {
	return target == ErrValidationError
}

func (c controller) validateInput(input any) error {
	if validationErrors, ok := c.validate.Validate(input); !ok {
		return &validationError{errors: validationErrors}
	}

	return nil
}

func validationErrorsOf(err error) []validator.ValidationError {
	var vErr *validationError
	if errors.As(err, &vErr) {
		return vErr.errors
	}

	return nil
}
