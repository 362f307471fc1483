package support

import "errors"

var (
	ErrNotFound          = errors.New("conversation not found")
	ErrEmptyMessage      = errors.New("message text is empty")
	ErrInvalidStatus     = errors.New("invalid conversation status")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotSupported      = errors.New("operation not supported by backend")
	ErrUnauthorized      = errors.New("unauthorized")
)
