package agent

import (
	"context"

	"github.com/finsight/finchat/internal/model"
	"github.com/finsight/finchat/internal/resilience"
	"github.com/finsight/finchat/pkg/anthropic"
)

// Config holds the model settings shared by every agent invocation.
type Config struct {
	Model       string
	MaxTokens   int64
	Temperature *float64
}

// Runner executes agents against a reasoning-service client.
type Runner struct {
	client anthropic.Client
	cfg    Config
	retry  resilience.RetryConfig
}

// NewRunner creates a runner. Transient service errors are retried for
// non-streaming invocations.
func NewRunner(client anthropic.Client, cfg Config) *Runner {
	return &Runner{
		client: client,
		cfg:    cfg,
		retry:  resilience.DefaultRetryConfig(),
	}
}

// Run invokes the agent with the full message history and returns its
// sanitized final reply. onText, when non-nil, receives reply text
// incrementally as it streams; streamed invocations are not retried because
// a replay would duplicate text the caller already rendered.
func (r *Runner) Run(ctx context.Context, a *Agent, history []model.Message, onText func(string)) (string, error) {
	req := anthropic.MessageRequest{
		Model:       r.cfg.Model,
		MaxTokens:   r.cfg.MaxTokens,
		System:      anthropic.BuildCachedSystemBlocks(a.Instructions),
		Messages:    toClientMessages(history),
		Temperature: r.cfg.Temperature,
		Tools:       a.specs(),
	}

	var resp *anthropic.MessageResponse
	call := func(ctx context.Context) error {
		var err error
		resp, err = r.client.RunTools(ctx, req, a.handle, onText)
		return err
	}

	var err error
	if onText == nil {
		err = resilience.Do(ctx, r.retry, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", err
	}

	resp.Usage.LogCost(r.cfg.Model, a.Name)
	return SanitizeReply(resp.Text), nil
}

func toClientMessages(history []model.Message) []anthropic.Message {
	out := make([]anthropic.Message, len(history))
	for i, m := range history {
		out[i] = anthropic.Message{Role: string(m.Role), Content: m.Content}
	}
	return out
}
