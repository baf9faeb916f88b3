package postmark

// Config holds Postmark credentials and sender identity.
type Config struct {
	ServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	AccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail  string `env:"SENDER_EMAIL,required"`
	SupportEmail string `env:"SUPPORT_EMAIL,required"`
}

// Enabled reports whether tokens are configured. Without them callers fall
// back to a development sender.
func (c Config) Enabled() bool {
	return c.ServerToken != "" && c.AccountToken != ""
}
