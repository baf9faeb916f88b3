package identity

import "errors"

var (
	// ErrEmptySigningKey is returned when a provider is built without a key.
	ErrEmptySigningKey = errors.New("token signing key cannot be empty")

	// ErrEmptyUsername is returned when encoding a token for no user.
	ErrEmptyUsername = errors.New("username cannot be empty")

	// ErrInvalidToken is returned for malformed, tampered, or expired tokens.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenRevoked is returned for tokens on the revocation list.
	ErrTokenRevoked = errors.New("token revoked")
)
