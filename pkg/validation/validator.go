package validation

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// Validator plugs go-playground/validator into echo.Context.Validate.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return &Validator{v: v}
}

func (cv *Validator) Validate(i any) error {
	if err := cv.v.Struct(i); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return &FieldErrors{Fields: FormatValidationError(verrs)}
		}
		return err
	}
	return nil
}

type FieldErrors struct {
	Fields map[string]string
}

func (e *FieldErrors) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, msg := range e.Fields {
		parts = append(parts, msg)
	}
	return strings.Join(parts, "; ")
}

// HTTPError turns a validation failure into a 400 carrying per-field messages.
func HTTPError(err error) *echo.HTTPError {
	var fe *FieldErrors
	if errors.As(err, &fe) {
		return echo.NewHTTPError(http.StatusBadRequest, map[string]any{
			"message": "validation failed",
			"fields":  fe.Fields,
		})
	}
	return echo.NewHTTPError(http.StatusBadRequest, "validation failed")
}

func FormatValidationError(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, err := range verrs {
		field := err.Field()

		switch err.Tag() {
		case "required":
			out[field] = fmt.Sprintf("%s is required", field)
		case "min":
			out[field] = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max":
			out[field] = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "gt":
			out[field] = fmt.Sprintf("%s must be greater than %s", field, err.Param())
		case "gte":
			out[field] = fmt.Sprintf("%s must be greater than or equal to %s", field, err.Param())
		case "oneof":
			out[field] = fmt.Sprintf("%s must be one of [%s]", field, err.Param())
		case "email":
			out[field] = fmt.Sprintf("%s must be a valid email", field)
		default:
			out[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return out
}
