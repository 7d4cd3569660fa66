package domain

import "errors"

// Domain-level errors
var (
	ErrProductNotFound      = errors.New("product not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrValidation           = errors.New("validation failed")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrConflict             = errors.New("already exists")
	ErrUnsupportedMediaType = errors.New("only jpeg, jpg, png, gif and webp images are allowed")
	ErrPayloadTooLarge      = errors.New("file is too large")
)
