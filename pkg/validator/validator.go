package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/healthtown-api/pkg/errors"
)

// Validator validates structs through `validate` tags and reports the first
// failing field as a validation AppError named after its json tag.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("notblank", notBlank)
	_ = v.RegisterValidation("has_nonblank", hasNonBlank)

	return &Validator{v: v}
}

// Struct validates s and returns nil or a *errors.AppError with code ErrValidation.
func (val *Validator) Struct(s interface{}) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.NewBadRequest("invalid input", err)
	}

	fe := verrs[0]
	return errors.NewValidation(fe.Field(), message(fe))
}

// Var validates a single value against a tag.
func (val *Validator) Var(field string, value interface{}, tag string) error {
	if err := val.v.Var(value, tag); err != nil {
		return errors.NewValidation(field, fmt.Sprintf("%s is invalid", field))
	}
	return nil
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", field)
	case "has_nonblank":
		return fmt.Sprintf("%s must contain at least one non-empty entry", field)
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func notBlank(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.String {
		return false
	}
	return strings.TrimSpace(f.String()) != ""
}

func hasNonBlank(fl validator.FieldLevel) bool {
	f := fl.Field()
	if f.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < f.Len(); i++ {
		item := f.Index(i)
		if item.Kind() == reflect.String && strings.TrimSpace(item.String()) != "" {
			return true
		}
	}
	return false
}
