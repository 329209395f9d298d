package crm

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var requestValidator = sync.OnceValue(newRequestValidator)

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	// Money validates as a float so numeric tags such as gte apply to it.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if money, ok := field.Interface().(Money); ok {
			return money.InexactFloat64()
		}

		return nil
	}, Money{})

	_ = v.RegisterValidation("enum", func(fl validator.FieldLevel) bool {
		value, ok := fl.Field().Interface().(interface{ Valid() bool })

		return ok && value.Valid()
	})

	return v
}

// FieldError describes one rejected field.
type FieldError struct {
	Field string `json:"field" yaml:"field"`
	Rule  string `json:"rule"  yaml:"rule"`
	Param string `json:"param" yaml:"param"`
}

// ValidationError is returned when a request is rejected before submission.
type ValidationError struct {
	Fields []FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))

	for _, field := range e.Fields {
		if field.Param != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", field.Field, field.Rule, field.Param))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", field.Field, field.Rule))
		}
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// Is makes validation failures match ErrInvalidInput like a 400 from the server.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Validate checks a request struct against its validate tags.
func Validate(request interface{}) error {
	err := requestValidator().Struct(request)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validating request: %w", err)
	}

	validationErr := &ValidationError{Fields: make([]FieldError, 0, len(fieldErrs))}
	for _, fieldErr := range fieldErrs {
		validationErr.Fields = append(validationErr.Fields, FieldError{
			Field: fieldErr.Field(),
			Rule:  fieldErr.Tag(),
			Param: fieldErr.Param(),
		})
	}

	return validationErr
}
