package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Shivanand-hulikatti/videotheek/internal/model"
	"github.com/Shivanand-hulikatti/videotheek/internal/repository"
)

var (
	// ErrNotFound is returned when the referenced film or account is absent.
	ErrNotFound = repository.ErrNotFound
	// ErrReferentialConflict is returned when a delete would orphan audit rows.
	ErrReferentialConflict = repository.ErrReferentialConflict

	// ErrInvalidInput wraps every validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidTransition is returned when reserve or return is not allowed
	// from the film's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadyReserved is the reserve-specific transition failure.
	ErrAlreadyReserved = errors.New("film is already reserved")
	// ErrNotReserved is the return-specific transition failure.
	ErrNotReserved = errors.New("film is not reserved")

	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError reports which input field was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Unwrap makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// TransitionError is returned when a reserve or return precondition fails.
// Film holds the state that caused the rejection.
type TransitionError struct {
	Film   model.Film
	Action model.Action
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot apply %q to film %d with status %q", e.Action, e.Film.ID, e.Film.Status)
}

// Unwrap exposes both the generic and the action-specific cause.
func (e *TransitionError) Unwrap() []error {
	if e.Action == model.ActionReserved {
		return []error{ErrInvalidTransition, ErrAlreadyReserved}
	}
	return []error{ErrInvalidTransition, ErrNotReserved}
}

// translateValidation turns validator errors into a ValidationError on the
// first offending field.
func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{
			Field:  strings.ToLower(fe.Field()),
			Reason: reasonFor(fe),
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "oneof":
		return "must be one of " + fe.Param()
	default:
		return "is invalid"
	}
}
