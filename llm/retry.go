package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/wellcomeai/tgbotsaas/internal/retryutil"
)

// RetryingClient wraps a Client and an AgentRegistry with a bounded
// attempt loop. The rewrite pipeline itself never retries; this layer
// sits between it and the provider.
type RetryingClient struct {
	Client    Client
	Registry  AgentRegistry
	Attempts  int
	BaseDelay time.Duration
	Logger    *slog.Logger
}

func WithRetry(client Client, registry AgentRegistry, logger *slog.Logger) *RetryingClient {
	return &RetryingClient{
		Client:    client,
		Registry:  registry,
		Attempts:  3,
		BaseDelay: 1 * time.Second,
		Logger:    logger,
	}
}

func (c *RetryingClient) Respond(ctx context.Context, req Request) (Result, error) {
	var res Result
	err := retryutil.Do(ctx, c.Logger, "llm_respond", c.Attempts, c.BaseDelay, func(ctx context.Context) error {
		var callErr error
		res, callErr = c.Client.Respond(ctx, req)
		return callErr
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}

func (c *RetryingClient) CreateAgent(ctx context.Context, name, instructions string) (string, error) {
	var id string
	err := retryutil.Do(ctx, c.Logger, "llm_create_agent", c.Attempts, c.BaseDelay, func(ctx context.Context) error {
		var callErr error
		id, callErr = c.Registry.CreateAgent(ctx, name, instructions)
		return callErr
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (c *RetryingClient) DeleteAgent(ctx context.Context, externalID string) error {
	return retryutil.Do(ctx, c.Logger, "llm_delete_agent", c.Attempts, c.BaseDelay, func(ctx context.Context) error {
		return c.Registry.DeleteAgent(ctx, externalID)
	})
}
