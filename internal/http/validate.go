package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/lab-scheduler/internal/application"
)

// validate checks struct tags on the request DTOs. Field names in the
// resulting errors come from the json tags so clients see the wire names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs tag validation and translates failures into the
// application's field level validation error.
func validateStruct(value any) error {
	err := validate.Struct(value)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	vErr := &application.ValidationError{FieldErrors: make(map[string]string, len(validationErrs))}
	for _, fieldErr := range validationErrs {
		vErr.FieldErrors[fieldErr.Field()] = translateValidationTag(fieldErr)
	}
	return vErr
}

func translateValidationTag(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldErr.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fieldErr.Field(), fieldErr.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fieldErr.Field(), fieldErr.Param())
	case "datetime":
		return fmt.Sprintf("%s must be an RFC 3339 timestamp", fieldErr.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fieldErr.Field(), fieldErr.Param())
	default:
		return fmt.Sprintf("%s is invalid", fieldErr.Field())
	}
}
