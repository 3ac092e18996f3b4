// Package llm abstracts the two language-model tiers the pipeline consumes:
// a fast/cheap planner model and a quality finalizer model. Both sit behind
// the same Client contract; transport failures surface as errors and are
// classified by the retry wrapper.
package llm

import "context"

// CompletionRequest is one prompt sent to a model.
type CompletionRequest struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Usage reports token consumption for one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the model's reply.
type CompletionResponse struct {
	Content string
	Usage   Usage
}

// Client is the minimal completion contract. Implementations may block on the
// network; callers pass a context with whatever deadline they need.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Model() string
}

// Config holds the transport settings for one model tier.
type Config struct {
	BaseURL    string            `mapstructure:"base_url" yaml:"base_url"`
	APIKey     string            `mapstructure:"api_key" yaml:"api_key"`
	Model      string            `mapstructure:"model" yaml:"model"`
	Timeout    int               `mapstructure:"timeout" yaml:"timeout"` // seconds
	MaxRetries int               `mapstructure:"max_retries" yaml:"max_retries"`
	Headers    map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
}
