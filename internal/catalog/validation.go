// internal/catalog/validation.go
package catalog

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	minReleaseYear    = 1888
	minDescriptionLen = 10
	maxDescriptionLen = 1000
)

// ValidationError maps JSON field names to a human readable message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, e.Fields[name]))
	}
	return "invalid movie: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("releaseyear", func(fl validator.FieldLevel) bool {
		year := fl.Field().Int()
		return year >= minReleaseYear && year <= int64(maxReleaseYear())
	})

	return v
}

func maxReleaseYear() int {
	return time.Now().Year() + 1
}

// ValidateInput checks a create payload received at the boundary.
func ValidateInput(in MovieInput) error {
	return check(in)
}

// ValidateMovie checks a movie before it is handed to the store.
func ValidateMovie(m Movie) error {
	return check(m)
}

func check(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate movie: %w", err)
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		if _, seen := out.Fields[fe.Field()]; seen {
			continue
		}
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

func message(fe validator.FieldError) string {
	if fe.Tag() == "required" {
		return fe.Field() + " is required"
	}

	switch fe.Field() {
	case "title", "genre":
		return fe.Field() + " must not be blank"
	case "description":
		return fmt.Sprintf("description must be between %d and %d characters", minDescriptionLen, maxDescriptionLen)
	case "releaseYear":
		return fmt.Sprintf("releaseYear must be between %d and %d", minReleaseYear, maxReleaseYear())
	case "rating":
		return "rating must be between 0.0 and 10.0"
	default:
		return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
}
