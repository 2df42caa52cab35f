package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("invalid login or password")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrOnboardingRequired = errors.New("onboarding is not complete")
)

// ValidationError reports a rejected input field. Code is the short
// machine-readable reason carried into form redirects (electricityError=reading).
type ValidationError struct {
	Field string
	Code  string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, code, format string, args ...any) error {
	return &ValidationError{Field: field, Code: code, Msg: fmt.Sprintf(format, args...)}
}

// ValidationCode returns the code of the first ValidationError in err's
// chain, or "" when there is none.
func ValidationCode(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}
