package models

import "errors"

// Domain errors shared by the repositories and services. Handlers map
// these to HTTP status codes; anything unrecognized becomes a generic
// server error so driver detail never reaches a client.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidID          = errors.New("invalid id format")
	ErrNotFound           = errors.New("record not found")
	ErrDuplicate          = errors.New("duplicate value")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrSelfAction         = errors.New("cannot perform this action on your own account")
	ErrUnsupportedImage   = errors.New("only image files are allowed")
	ErrImageTooLarge      = errors.New("image exceeds the maximum allowed size")
)
