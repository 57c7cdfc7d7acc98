package chat

import (
	"errors"
	"fmt"
	"strings"
)

// Error categories. Every operation error wraps exactly one of these, so
// callers classify with errors.Is and map to a transport status.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
)

// Operation errors.
var (
	ErrRoomNameEmpty    = fmt.Errorf("%w: room name cannot be empty", ErrInvalidInput)
	ErrRoomNameTooShort = fmt.Errorf("%w: room name too short (min 2 characters)", ErrInvalidInput)
	ErrRoomNameTooLong  = fmt.Errorf("%w: room name too long (max 100 characters)", ErrInvalidInput)
	ErrPasswordTooShort = fmt.Errorf("%w: password too short (min 4 characters)", ErrInvalidInput)
	ErrPasswordTooLong  = fmt.Errorf("%w: password too long (max 128 characters)", ErrInvalidInput)
	ErrUsernameEmpty    = fmt.Errorf("%w: username cannot be empty", ErrInvalidInput)
	ErrUsernameTooShort = fmt.Errorf("%w: username too short (min 2 characters)", ErrInvalidInput)
	ErrUsernameTooLong  = fmt.Errorf("%w: username too long (max 50 characters)", ErrInvalidInput)
	ErrUsernameInvalid  = fmt.Errorf("%w: username contains invalid characters (only letters, numbers, spaces, -, _ allowed)", ErrInvalidInput)
	ErrMessageEmpty     = fmt.Errorf("%w: message content cannot be empty", ErrInvalidInput)
	ErrMessageTooLong   = fmt.Errorf("%w: message too long (max 2000 characters)", ErrInvalidInput)

	ErrRoomNotFound  = fmt.Errorf("%w: room not found", ErrNotFound)
	ErrUserNotFound  = fmt.Errorf("%w: user not found in room", ErrNotFound)
	ErrWrongPassword = fmt.Errorf("%w: invalid room password", ErrUnauthorized)
	ErrUsernameTaken = fmt.Errorf("%w: username already exists in this room", ErrConflict)
)

// Stable wire codes for the error categories, used by the request-reply
// services so the category survives the JSON boundary between modules.
const (
	CodeInvalidInput = "invalid_input"
	CodeNotFound     = "not_found"
	CodeUnauthorized = "unauthorized"
	CodeConflict     = "conflict"
)

// ErrorCode returns the wire code for an operation error, or "" for errors
// outside the taxonomy.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return CodeInvalidInput
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrConflict):
		return CodeConflict
	default:
		return ""
	}
}

// ErrorFromCode rebuilds a categorized error from its wire form.
func ErrorFromCode(code, message string) error {
	var category error
	switch code {
	case CodeInvalidInput:
		category = ErrInvalidInput
	case CodeNotFound:
		category = ErrNotFound
	case CodeUnauthorized:
		category = ErrUnauthorized
	case CodeConflict:
		category = ErrConflict
	default:
		return errors.New(message)
	}
	// Services transmit err.Error(), which already carries the category
	// prefix; avoid doubling it when re-wrapping.
	message = strings.TrimPrefix(message, category.Error()+": ")
	return fmt.Errorf("%w: %s", category, message)
}
