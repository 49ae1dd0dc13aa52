// Package validation builds the shared validator and turns its errors into
// messages a form can show next to a field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var phonePattern = regexp.MustCompile(`^\+?[0-9][0-9 ()\-]{5,19}$`)

// New returns a validator with the custom tags used by request models.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	return v
}

// Message renders the first validation failure in err. Non-validation errors
// are returned as-is.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	return describe(verrs[0])
}

// Messages renders every validation failure keyed by field name.
func Messages(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, exists := out[fe.Field()]; !exists {
			out[fe.Field()] = describe(fe)
		}
	}
	return out
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "required_without", "required_with":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please enter a valid email"
	case "phone":
		return "Please enter a valid phone number"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("%s must match the format %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, minUnit(fe))
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, minUnit(fe))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func minUnit(fe validator.FieldError) string {
	if fe.Kind().String() == "string" {
		return fe.Param() + " characters"
	}
	return fe.Param()
}
