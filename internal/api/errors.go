package api

import "errors"

// Sentinel error kinds for API operations. Handlers map these to HTTP
// statuses; the Error wrapper carries the user-facing message.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

// Error ties a response message to one of the sentinel kinds.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Kind }

func validationErr(msg string) error { return &Error{Kind: ErrValidation, Message: msg} }
func notFoundErr(msg string) error   { return &Error{Kind: ErrNotFound, Message: msg} }
func conflictErr(msg string) error   { return &Error{Kind: ErrConflict, Message: msg} }
