// Package apierr carries the action tag a workflow step attaches to a fatal
// error before it leaves the service layer.
package apierr

import "errors"

// Error wraps an underlying failure with the action that produced it.
type Error struct {
	Action string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Action
	}
	return e.Action + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Tag annotates err with an action. A nil err stays nil.
func Tag(action string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Action: action, Err: err}
}

// ActionOf returns the action tag on err, or "" when err carries none.
func ActionOf(err error) string {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Action
	}
	return ""
}
