// Package postmark implements email.EmailSender with the Postmark
// transactional email API.
//
// Messages are sent with open tracking and HTML link tracking, and the
// support address as Reply-To.
//
//	client, err := postmark.New(cfg)
//	if err != nil {
//		return err
//	}
//	err = client.SendEmail(ctx, email.SendEmailParams{
//		SendTo:   "user@example.com",
//		Subject:  "Contact saved",
//		BodyHTML: "<p>Your contact was saved.</p>",
//	})
//
// # Configuration
//
//	type Config struct {
//		ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
//		AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
//		SenderEmail  string `env:"SENDER_EMAIL,required"`
//		SupportEmail string `env:"SUPPORT_EMAIL,required"`
//	}
//
// The tokens are optional so development environments can run without
// Postmark; Config.Enabled reports whether they are set. New rejects an
// incomplete configuration with email.ErrInvalidConfig.
package postmark
