package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"forum/internal/models"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to a readable problem description.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+" "+f[field])
	}
	return strings.Join(parts, "; ")
}

// Validator wraps go-playground/validator with AppError conversion.
type Validator struct {
	v *validator.Validate
}

var defaultValidator = New()

// New creates a validator with the forum's custom tags registered:
// "entityname" for category and tag names, "rgbcolor" for #rrggbb colors.
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("entityname", func(fl validator.FieldLevel) bool {
		return ValidateEntityName(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("rgbcolor", func(fl validator.FieldLevel) bool {
		return ValidateColor(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return &Validator{v: v}
}

// Struct validates s with the package-level validator.
func Struct(s any) error {
	return defaultValidator.Validate(s)
}

// Validate validates a struct and returns a VALIDATION_ERROR AppError.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return models.NewInternalError(err)
	}

	fieldErrors := make(FieldErrors, len(validationErrs))
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
	}

	return &models.AppError{
		Code:    models.CodeValidation,
		Message: "validation failed",
		Err:     fieldErrors,
	}
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", e.Param())
		}
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "url":
		return "must be a valid URL"
	case "gt":
		return "must be greater than " + e.Param()
	case "entityname":
		return "must be 2-30 characters of letters, digits, spaces or #+.-_"
	case "rgbcolor":
		return "must be a #rrggbb hex code"
	default:
		return "is invalid"
	}
}
