package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bookshelf/bookshelf-api/internal/core/domain"
)

// requestValidator plugs go-playground/validator into Echo's c.Validate.
// Field names in messages are the JSON names clients send.
type requestValidator struct {
	v *validator.Validate
}

// NewValidator returns the validator assigned to echo.Echo.Validator. Besides the
// built-in tags it understands "role", which accepts the enumerated user roles.
func NewValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
		return domain.ValidRole(fl.Field().String())
	})
	return &requestValidator{v: v}
}

// Validate reports every failing field in one error wrapping domain.ErrValidation.
func (rv *requestValidator) Validate(i any) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	msgs := make([]string, len(fields))
	for n, fe := range fields {
		msgs[n] = describe(fe)
	}
	return fmt.Errorf("%w: %s", domain.ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " is not an email address"
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "role":
		return fmt.Sprintf("%s %q is not a known role", field, fe.Value())
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}

func jsonFieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}
