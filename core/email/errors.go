package email

import "errors"

// Email errors. Provider failures are joined with ErrFailedToSendEmail.
var (
	ErrFailedToSendEmail = errors.New("failed to send email")
	ErrInvalidConfig     = errors.New("invalid email configuration")
	ErrInvalidParams     = errors.New("invalid email parameters")
)
