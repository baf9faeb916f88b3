// Package email defines the transactional email abstraction used by deferred
// requests.
//
// EmailSender is implemented by integration/email/postmark for production and
// by DevSender, which logs and records messages, for development and tests.
//
//	sender := email.NewDevSender(log)
//	err := sender.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "user@example.com",
//		Subject:  "Contact saved",
//		BodyHTML: "<p>Your contact was saved.</p>",
//		Tag:      "contact-saved",
//	})
//
// SendEmailParams.Validate rejects messages without a valid recipient,
// subject or body with ErrInvalidParams. Provider failures wrap
// ErrFailedToSendEmail.
package email
