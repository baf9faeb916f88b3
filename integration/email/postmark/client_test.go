package postmark_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/commander/core/email"
	"github.com/dmitrymomot/commander/integration/email/postmark"
)

var testConfig = postmark.Config{
	ServerToken:  "server-token",
	AccountToken: "account-token",
	SenderEmail:  "noreply@example.com",
	SupportEmail: "support@example.com",
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *postmark.Config)
	}{
		{"missing server token", func(c *postmark.Config) { c.ServerToken = "" }},
		{"missing account token", func(c *postmark.Config) { c.AccountToken = "" }},
		{"invalid sender", func(c *postmark.Config) { c.SenderEmail = "noreply" }},
		{"invalid support", func(c *postmark.Config) { c.SupportEmail = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := testConfig
			tt.mutate(&cfg)
			_, err := postmark.New(cfg)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
		})
	}

	assert.True(t, testConfig.Enabled())
	assert.False(t, postmark.Config{}.Enabled())
}

func TestClient_SendEmail(t *testing.T) {
	t.Parallel()

	params := email.SendEmailParams{
		SendTo:   "user@example.com",
		Subject:  "Contact saved",
		BodyHTML: "<p>saved</p>",
		Tag:      "contact-saved",
	}

	t.Run("delivers the message", func(t *testing.T) {
		t.Parallel()

		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/email", r.URL.Path)
			assert.Equal(t, "server-token", r.Header.Get("X-Postmark-Server-Token"))
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"To":"user@example.com","MessageID":"m-1","ErrorCode":0,"Message":"OK"}`))
		}))
		defer srv.Close()

		client, err := postmark.New(testConfig, postmark.WithBaseURL(srv.URL), postmark.WithHTTPClient(srv.Client()))
		require.NoError(t, err)

		require.NoError(t, client.SendEmail(context.Background(), params))
		assert.Equal(t, "noreply@example.com", got["From"])
		assert.Equal(t, "support@example.com", got["ReplyTo"])
		assert.Equal(t, "contact-saved", got["Tag"])
	})

	t.Run("api error code", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"ErrorCode":406,"Message":"Inactive recipient"}`))
		}))
		defer srv.Close()

		client, err := postmark.New(testConfig, postmark.WithBaseURL(srv.URL))
		require.NoError(t, err)

		err = client.SendEmail(context.Background(), params)
		require.ErrorIs(t, err, email.ErrFailedToSendEmail)
		assert.Contains(t, err.Error(), "Inactive recipient")
	})

	t.Run("invalid params are not sent", func(t *testing.T) {
		t.Parallel()

		client, err := postmark.New(testConfig, postmark.WithBaseURL("http://127.0.0.1:1"))
		require.NoError(t, err)
		assert.ErrorIs(t, client.SendEmail(context.Background(), email.SendEmailParams{}), email.ErrInvalidParams)
	})
}
