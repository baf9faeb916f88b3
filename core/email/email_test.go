package email_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/commander/core/email"
)

func TestSendEmailParams_Validate(t *testing.T) {
	t.Parallel()

	valid := email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Hello",
		BodyHTML: "<p>Hi</p>",
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(p *email.SendEmailParams)
	}{
		{"missing recipient", func(p *email.SendEmailParams) { p.SendTo = "" }},
		{"invalid recipient", func(p *email.SendEmailParams) { p.SendTo = "not-an-email" }},
		{"missing subject", func(p *email.SendEmailParams) { p.Subject = " " }},
		{"missing body", func(p *email.SendEmailParams) { p.BodyHTML = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := valid
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), email.ErrInvalidParams)
		})
	}
}

func TestDevSender(t *testing.T) {
	t.Parallel()

	sender := email.NewDevSender(nil)
	ctx := context.Background()

	require.NoError(t, sender.SendEmail(ctx, email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Contact saved",
		BodyHTML: "<p>saved</p>",
		Tag:      "contact-saved",
	}))
	assert.ErrorIs(t, sender.SendEmail(ctx, email.SendEmailParams{}), email.ErrInvalidParams)

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "contact-saved", sent[0].Tag)
}
