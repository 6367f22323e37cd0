// Package validate wires human-readable messages onto gin's struct validator.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/blogsphere/core/internal/pkg/apperr"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldLabel)
	}
}

// Struct validates v with its `binding` tags.
func Struct(v interface{}) error {
	return Translate(binding.Validator.ValidateStruct(v))
}

// Translate converts binding and validation failures into a validation
// error with one message per failed rule. Other errors pass through as a
// generic invalid-body validation error.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation("Invalid request body")
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, message(fe))
	}
	return apperr.Validation(messages...)
}

func message(fe validator.FieldError) string {
	name := fe.Field()
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "max":
		return fmt.Sprintf("%s cannot be more than %s characters", name, fe.Param())
	case "min":
		if fe.Param() == "1" {
			return name + " cannot be empty"
		}
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "email":
		return "Please provide a valid email"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, fe.Param())
	default:
		return name + " is invalid"
	}
}

func fieldLabel(f reflect.StructField) string {
	if label := strings.TrimSpace(f.Tag.Get("label")); label != "" {
		return label
	}
	if name := strings.Split(f.Tag.Get("json"), ",")[0]; name != "" && name != "-" {
		return name
	}
	return f.Name
}
