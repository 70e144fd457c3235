package service

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/sumire/issuetracker/internal/domain"
)

// inputValidator wraps go-playground/validator for domain input structs.
type inputValidator struct {
	validator *validator.Validate
}

func newInputValidator() *inputValidator {
	return &inputValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate validates a struct using go-playground/validator tags and reports
// the first failing field.
func (v *inputValidator) Validate(i any) error {
	if err := v.validator.Struct(i); err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if ok && len(validationErrors) > 0 {
			fe := validationErrors[0]
			return &domain.ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed on '%s' validation", fe.Tag()),
			}
		}
		return fmt.Errorf("validate input: %w", err)
	}
	return nil
}
