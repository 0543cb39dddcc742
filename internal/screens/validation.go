package screens

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/svargasl/finpanel/internal/models"
)

// Shared validator instance, reused across all screens.
var validate = validator.New()

// validateInput checks a form DTO before anything is sent upstream. A
// violation resolves locally, with no network call.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	if ve, ok := err.(validator.ValidationErrors); ok && len(ve) > 0 {
		fe := ve[0]
		return fmt.Errorf("%w: %s: %s", models.ErrBadRequest, fe.Field(), formatFieldError(fe))
	}
	return fmt.Errorf("%w: %v", models.ErrBadRequest, err)
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must have a minimum of %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must have a maximum of %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "eqfield":
		return "does not match"
	case "url":
		return "must be a valid URL"
	case "datetime":
		return fmt.Sprintf("must be a date in %s format", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
