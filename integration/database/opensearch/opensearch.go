package opensearch

import (
	"context"
	"errors"
	"fmt"

	opensearchgo "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// New creates a client and verifies the cluster answers an info request.
func New(ctx context.Context, cfg Config) (*opensearchgo.Client, error) {
	client, err := opensearchgo.NewClient(opensearchgo.Config{
		Addresses:    cfg.Addresses,
		Username:     cfg.Username,
		Password:     cfg.Password,
		MaxRetries:   cfg.MaxRetries,
		DisableRetry: cfg.DisableRetry,
	})
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	if err := Healthcheck(client)(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// Healthcheck returns a function that requests cluster info.
func Healthcheck(client *opensearchgo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		resp, err := opensearchapi.InfoRequest{}.Do(ctx, client)
		if err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		defer resp.Body.Close()

		if resp.IsError() {
			return fmt.Errorf("%w: %s", ErrHealthcheckFailed, resp.Status())
		}
		return nil
	}
}
