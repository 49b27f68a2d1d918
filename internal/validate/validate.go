// Package validate checks request payloads against their validate tags
// and reports the first failure by its JSON field name.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Struct validates s and returns a short message naming the first bad
// field.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return fmt.Errorf("invalid validation error: %w", err)
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	first := verrs[0]
	field := first.Field()
	switch first.Tag() {
	case "required":
		return fmt.Errorf("field '%s' is required", field)
	case "email":
		return fmt.Errorf("field '%s' must be a valid email address", field)
	case "min":
		return fmt.Errorf("field '%s' must be at least %s characters long", field, first.Param())
	case "max":
		return fmt.Errorf("field '%s' must be at most %s characters long", field, first.Param())
	case "url":
		return fmt.Errorf("field '%s' must be a valid URL", field)
	case "hexcolor":
		return fmt.Errorf("field '%s' must be a hex color", field)
	default:
		return fmt.Errorf("field '%s' validation failed on tag '%s'", field, first.Tag())
	}
}
