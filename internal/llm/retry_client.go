package llm

import (
	"context"
	"strings"

	bantzerrors "bantz/internal/errors"
	"bantz/internal/logging"
)

// retryClient wraps a Client with transient-error retry logic.
type retryClient struct {
	underlying Client
	config     bantzerrors.RetryConfig
	logger     logging.Logger
}

// WrapWithRetry adds exponential-backoff retries for transient transport
// failures. Permanent errors (auth, bad request) pass through immediately.
func WrapWithRetry(client Client, config bantzerrors.RetryConfig) Client {
	return &retryClient{
		underlying: client,
		config:     config,
		logger:     logging.NewComponentLogger("llm-retry"),
	}
}

func (c *retryClient) Model() string { return c.underlying.Model() }

func (c *retryClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	return bantzerrors.RetryWithResult(ctx, c.config, func(ctx context.Context) (*CompletionResponse, error) {
		resp, err := c.underlying.Complete(ctx, req)
		if err != nil {
			return nil, classifyError(err)
		}
		return resp, nil
	}, c.logger)
}

// classifyError marks well-known permanent failures so the retry loop stops
// early; everything else keeps its default classification.
func classifyError(err error) error {
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "401"), strings.Contains(lower, "unauthorized"):
		return bantzerrors.NewPermanentError(err, "authentication failed, check the API key")
	case strings.Contains(lower, "403"), strings.Contains(lower, "forbidden"):
		return bantzerrors.NewPermanentError(err, "permission denied for this model")
	case strings.Contains(lower, "404"), strings.Contains(lower, "not found"):
		return bantzerrors.NewPermanentError(err, "model or endpoint not found")
	case strings.Contains(lower, "400"), strings.Contains(lower, "bad request"):
		return bantzerrors.NewPermanentError(err, "invalid request parameters")
	}
	return err
}
