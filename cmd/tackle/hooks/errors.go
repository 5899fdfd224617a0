package hooks

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTypeAlreadyExists = errors.New("hook type already exists")
	ErrUnknownHookType   = errors.New("unknown hook type")
	ErrInvalidSpec       = errors.New("invalid hook spec")
	ErrFieldValidation   = errors.New("field validation failed")
	ErrMissingField      = errors.New("missing required field")
	ErrHookCall          = errors.New("hook call failed")
)

// HookCallError is the user-facing error of a hook invocation. It is either
// built by Decode for an unpermitted field, or returned by a hook through
// Failf.
type HookCallError struct {
	Key  string
	Type string

	// Field and Accepted are set for unpermitted-field errors.
	Field    string
	Accepted []string

	Msg string
}

func (e *HookCallError) Error() string {
	if e.Field != "" {
		accepted := "none"
		if len(e.Accepted) > 0 {
			accepted = strings.Join(e.Accepted, ", ")
		}
		return fmt.Sprintf("The field %q is not permitted in key=%q.\nOnly values accepted are --> %s, plus base fields --> %s.",
			e.Field, e.Key, accepted, strings.Join(BaseFields, ", "))
	}
	if e.Key == "" {
		return e.Msg
	}
	return fmt.Sprintf("key=%q type=%s: %s", e.Key, e.Type, e.Msg)
}

func (e *HookCallError) Is(target error) bool {
	return target == ErrHookCall
}

// Failf returns a HookCallError with a formatted message. The dispatcher
// fills in the key and type.
func Failf(format string, args ...any) error {
	return &HookCallError{Msg: fmt.Sprintf(format, args...)}
}

// FieldError reports a directive field that could not be decoded into the
// hook's schema: a missing required field or a value of the wrong type.
type FieldError struct {
	Key   string
	Type  string
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("key=%s type=%s field=%s: %v", e.Key, e.Type, e.Field, e.Err)
}

func (e *FieldError) Unwrap() []error {
	return []error{ErrFieldValidation, e.Err}
}
