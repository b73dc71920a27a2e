// Package validation validates request structs with go-playground/validator
// and converts failures into INVALID_INPUT application errors.
package validation

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/lifemap/memorymap/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// FieldError describes one failing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// Validate checks s against its `validate` struct tags.
func Validate(s any) error {
	err := instance().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.New(errors.ErrCodeInvalidInput, "validation failed", http.StatusBadRequest).WithCause(err)
	}

	fields := make([]FieldError, 0, len(verrs))
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := message(fe)
		fields = append(fields, FieldError{Field: fe.Field(), Message: msg})
		messages = append(messages, fe.Field()+": "+msg)
	}
	return errors.New(errors.ErrCodeInvalidInput, strings.Join(messages, "; "), http.StatusBadRequest).
		WithDetail("fields", fields)
}

// Var validates a single value against a tag expression such as "min=1,max=10".
func Var(field string, value any, tag string) error {
	if err := instance().Var(value, tag); err != nil {
		return errors.InvalidInput(field, fmt.Sprintf("%s must satisfy %s", field, tag))
	}
	return nil
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "latitude":
		return "must be a valid latitude"
	case "longitude":
		return "must be a valid longitude"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "base64":
		return "must be base64 encoded"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
