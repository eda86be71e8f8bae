package domain

import "errors"

// Sentinel errors for the chat core. Handlers map these onto HTTP codes.
var (
	// ErrNotFound referenced conversation/message/user absent
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden actor lacks ownership or participant rights
	ErrForbidden = errors.New("forbidden")
	// ErrValidation invalid caller input (blank body, empty group name ...)
	ErrValidation = errors.New("invalid input")
)
