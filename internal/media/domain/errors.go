package domain

import "errors"

var (
	ErrInvalidMedia       = errors.New("invalid media type or size")
	ErrQuotaExceeded      = errors.New("image quota exceeded")
	ErrInvalidState       = errors.New("operation not allowed in current verification state")
	ErrForbidden          = errors.New("action forbidden")
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("resource already exists")
	ErrStorageUnavailable = errors.New("object storage unavailable")
)
