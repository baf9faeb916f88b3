package demo

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrContactNotFound    = errors.New("contact not found")
	ErrUserNotFound       = errors.New("user not found")
)
