package forms

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// phonePattern accepts common North American and international
	// notations: digits with optional +, spaces, dots, dashes, parens.
	phonePattern = regexp.MustCompile(`^\+?[0-9 ().-]{7,20}$`)
	// zipPattern accepts US ZIP and ZIP+4.
	zipPattern = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

func newValidator() *validator.Validate {
	v := validator.New()

	// Report violations under the JSON field names clients actually send.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("zipcode", func(fl validator.FieldLevel) bool {
		return zipPattern.MatchString(fl.Field().String())
	})

	return v
}

// validationMessages converts validator output into one human-readable
// message per violated rule. Every violation is reported; the frontend
// shows them all at once rather than one per round trip.
func validationMessages(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{"submission could not be validated"}
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return msgs
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldLabel(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s may list at most %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "phone":
		return fmt.Sprintf("%s must be a valid phone number", field)
	case "zipcode":
		return fmt.Sprintf("%s must be a valid ZIP code (12345 or 12345-6789)", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// fieldLabel renders a camelCase JSON field name as plain words, so
// "zipCode" reads as "ZIP code" and "firstName" as "first name" in error
// messages.
func fieldLabel(name string) string {
	if name == "zipCode" {
		return "ZIP code"
	}
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
