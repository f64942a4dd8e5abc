package handler

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/iliyamo/hospitality-reservation/internal/apperr"
)

// Validator adapts go-playground/validator to echo.Validator.  Failures are
// reported as validation errors naming the JSON fields at fault.
type Validator struct {
	v *validator.Validate
}

// NewValidator builds the validator installed on the Echo instance.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return apperr.Validation("request", "invalid request body")
	}
	msgs := make([]string, 0, len(fields))
	for _, fe := range fields {
		msgs = append(msgs, fieldMessage(fe))
	}
	return apperr.Validation("request", "%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "uuid":
		return f + " must be a UUID"
	case "datetime":
		return f + " must be a date (YYYY-MM-DD)"
	case "email":
		return f + " must be a valid email address"
	case "gte", "min":
		return f + " must be at least " + fe.Param()
	case "lte", "max":
		return f + " must be at most " + fe.Param()
	}
	return f + " is invalid"
}
