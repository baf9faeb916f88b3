package postmark

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/mrz1836/postmark"

	"github.com/dmitrymomot/commander/core/email"
)

var _ email.EmailSender = (*Client)(nil)

// Client sends transactional email through the Postmark API.
type Client struct {
	client *postmark.Client
	config Config
}

// Option configures a Client.
type Option func(*postmark.Client)

// WithBaseURL points the client at another API endpoint.
func WithBaseURL(url string) Option {
	return func(c *postmark.Client) {
		if url != "" {
			c.BaseURL = url
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *postmark.Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// New validates cfg and creates a client.
func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.ServerToken == "" {
		return nil, fmt.Errorf("%w: ServerToken is required", email.ErrInvalidConfig)
	}
	if cfg.AccountToken == "" {
		return nil, fmt.Errorf("%w: AccountToken is required", email.ErrInvalidConfig)
	}
	if !email.IsValidAddress(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", email.ErrInvalidConfig)
	}
	if !email.IsValidAddress(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", email.ErrInvalidConfig)
	}

	pc := postmark.NewClient(cfg.ServerToken, cfg.AccountToken)
	for _, opt := range opts {
		opt(pc)
	}
	return &Client{client: pc, config: cfg}, nil
}

// SendEmail delivers params with open and HTML link tracking. Replies go to
// the support address.
func (c *Client) SendEmail(ctx context.Context, params email.SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	resp, err := c.client.SendEmail(ctx, postmark.Email{
		From:       c.config.SenderEmail,
		ReplyTo:    c.config.SupportEmail,
		To:         params.SendTo,
		Subject:    params.Subject,
		Tag:        params.Tag,
		HTMLBody:   params.BodyHTML,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return errors.Join(email.ErrFailedToSendEmail, err)
	}
	if resp.ErrorCode > 0 {
		return errors.Join(
			email.ErrFailedToSendEmail,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return nil
}
