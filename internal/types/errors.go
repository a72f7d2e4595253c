package types

import (
	"errors"
	"fmt"
)

// ErrorCode is the typed admission/application error code sent to clients
// in an `error` frame (§6 of the room spec) and used internally to decide
// retry/close behavior.
type ErrorCode string

const (
	ErrInvalidRoomID        ErrorCode = "INVALID_ROOM_ID"
	ErrInvalidJoinPayload   ErrorCode = "INVALID_JOIN_PAYLOAD"
	ErrJoinTimeout          ErrorCode = "JOIN_TIMEOUT"
	ErrRoomNotFound         ErrorCode = "ROOM_NOT_FOUND"
	ErrRoomFull             ErrorCode = "ROOM_FULL"
	ErrHostTokenInvalid     ErrorCode = "HOST_TOKEN_INVALID"
	ErrAuthTokenInvalid     ErrorCode = "AUTH_TOKEN_INVALID"
	ErrAccountAlreadyInRoom ErrorCode = "ACCOUNT_ALREADY_IN_ROOM"
	ErrRoomPasswordRequired ErrorCode = "ROOM_PASSWORD_REQUIRED"
	ErrRoomPasswordInvalid  ErrorCode = "ROOM_PASSWORD_INVALID"
)

// AppError is a typed, user-facing error. Admission errors always carry
// a Code; operational faults and invariant-violation no-ops never reach
// the client as an AppError (they're logged and swallowed per §7).
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Err.Error())
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func NewError(code ErrorCode, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

func WrapError(code ErrorCode, msg string, err error) *AppError {
	return &AppError{Code: code, Message: msg, Err: err}
}

func Is(err error, code ErrorCode) bool {
	var app *AppError
	if errors.As(err, &app) {
		return app.Code == code
	}
	return false
}
