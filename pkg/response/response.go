package response

import (
	"errors"
)

// Error pairs a sentinel error with the HTTP status it maps to. Domain
// packages declare their error vars with NewError and handlerUtil turns the
// code into the response status.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

// Is matches on code plus message so wrapped copies of the same sentinel
// compare equal under errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}
