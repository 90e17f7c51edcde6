package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrValidation      = errors.New("validation error")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrNotFound        = errors.New("not found")
	ErrRoomUnavailable = errors.New("room unavailable")
	ErrGateway         = errors.New("gateway error")
)

// Error is the error returned at the operation boundary of every core call.
type Error struct {
	Kind    error  // one of the Err* kinds above
	Op      string // operation that failed, e.g. "createTenant"
	Message string // user-visible message; falls back to Err, then Kind
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := []error{e.Kind}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Validation reports a missing or malformed field caught before any write.
func Validation(op, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NotAuthorized reports a failed role or ownership check.
func NotAuthorized(op, format string, args ...any) error {
	return &Error{Kind: ErrNotAuthorized, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports an id that does not resolve. entity is e.g. "room".
func NotFound(op, entity string) error {
	return &Error{Kind: ErrNotFound, Op: op, Message: entity + " not found"}
}

// RoomUnavailable reports an occupancy conflict.
func RoomUnavailable(op, roomID string) error {
	return &Error{Kind: ErrRoomUnavailable, Op: op, Message: fmt.Sprintf("room %s is already occupied", roomID)}
}

// Gateway wraps a backend failure; the backend message is passed through unchanged.
// Errors that already carry a kind are returned as is.
func Gateway(op string, err error) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}
	return &Error{Kind: ErrGateway, Op: op, Err: err}
}

// KindOf returns the kind name used in API responses.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrNotAuthorized):
		return "not_authorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRoomUnavailable):
		return "room_unavailable"
	case errors.Is(err, ErrGateway):
		return "gateway_error"
	default:
		return "internal_error"
	}
}
