package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/salonmate/internal/client/models"
	"github.com/go-playground/validator/v10"
)

// ErrValidation wraps every payload rejected before it reaches the network.
var ErrValidation = errors.New("validation failed")

var providerPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,31}$`)

// validate is shared; validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report wire names ("shopType") rather than Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})

	if err := v.RegisterValidation("provider", func(fl validator.FieldLevel) bool {
		return providerPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

func checkStruct(s any) error {
	return validationError(validate.Struct(s), "")
}

func checkVar(field string, value any, tag string) error {
	return validationError(validate.Var(value, tag), field)
}

func validationError(err error, field string) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, formatFieldError(fe, field))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(messages, "; "))
}

func formatFieldError(fe validator.FieldError, field string) string {
	if field == "" {
		field = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return field + " must be at least " + fe.Param() + " characters"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "oneof":
		return field + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return field + " is invalid"
	}
}

func validateProvider(provider string) error {
	return checkVar("provider", provider, "required,provider")
}

func validateSignup(req models.SignupRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	return checkStruct(req)
}

func validateLogin(req models.LoginRequest) error {
	return checkStruct(req)
}
