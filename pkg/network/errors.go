package network

import "errors"

var (
	// ErrAlreadyRegistered is returned when a nickname is already taken.
	ErrAlreadyRegistered = errors.New("nickname already registered")
	// ErrUserNotFound is returned when a nickname resolves to no account.
	ErrUserNotFound = errors.New("user not found")
	// ErrPasswordMismatch is returned on a failed credential check.
	ErrPasswordMismatch = errors.New("password mismatch")
	// ErrInvalidStatus is returned when a user is online where offline is
	// required, or offline where online is required.
	ErrInvalidStatus = errors.New("invalid user status")
	// ErrSameUser is returned for operations that require two distinct users.
	ErrSameUser = errors.New("same user on both sides")
	// ErrInvalidLanguage is returned for a language code that is not a
	// two-letter ISO 639 code.
	ErrInvalidLanguage = errors.New("invalid language code")
)
