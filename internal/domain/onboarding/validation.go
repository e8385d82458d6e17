package onboarding

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var ErrValidation = errors.New("validation failed")

var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// ValidatePayload runs the required-field checks of a step. The returned error wraps
// ErrValidation and names the first failing field.
func ValidatePayload(ctx context.Context, payload StepPayload) error {
	if payload == nil {
		return fmt.Errorf("%w: payload is required", ErrValidation)
	}
	err := payloadValidator.StructCtx(ctx, payload)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return fmt.Errorf("%w: %s", ErrValidation, describeFieldError(fieldErrs[0]))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		if fe.Kind() == reflect.Bool {
			return field + " must be accepted"
		}
		return field + " is required"
	case "min":
		return field + " needs at least " + fe.Param() + " selection"
	case "len":
		return field + " must be " + fe.Param() + " characters"
	case "email":
		return field + " must be a valid email"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	default:
		return field + " is invalid"
	}
}
