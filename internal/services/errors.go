package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrEmailTaken is returned when registering an email that already exists.
	ErrEmailTaken = errors.New("user already exists")

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports input rejected before reaching the store. Its
// message is safe to return to the client.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(message string) error {
	return &ValidationError{Message: message}
}

var validate = validator.New()

// checkStruct runs the validator tags on v and turns the first failure into a
// ValidationError.
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return invalid("missing required fields")
		}
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "oneof":
		return invalid("invalid " + lowerFirst(fe.Field()))
	case "min":
		return invalid(lowerFirst(fe.Field()) + " cannot be empty")
	default:
		return invalid("invalid " + lowerFirst(fe.Field()))
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
