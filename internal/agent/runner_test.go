package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finchat/internal/model"
	"github.com/finsight/finchat/internal/resilience"
	"github.com/finsight/finchat/pkg/anthropic"
)

type mockClient struct {
	lastReq anthropic.MessageRequest
	resp    *anthropic.MessageResponse
	errs    []error
	calls   int
}

func (m *mockClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	return m.RunTools(ctx, req, nil, nil)
}

func (m *mockClient) RunTools(ctx context.Context, req anthropic.MessageRequest, handler anthropic.ToolHandler, onText func(string)) (*anthropic.MessageResponse, error) {
	m.lastReq = req
	m.calls++
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	if onText != nil {
		onText(m.resp.Text)
	}
	return m.resp, nil
}

func newTestRunner(client anthropic.Client) *Runner {
	r := NewRunner(client, Config{Model: "claude-haiku-4-5-20251001", MaxTokens: 1024})
	// Keep retries instant in tests.
	r.retry.InitialBackoff = 1
	r.retry.MaxBackoff = 1
	return r
}

func TestRunnerRun(t *testing.T) {
	client := &mockClient{resp: &anthropic.MessageResponse{
		Text: "<think>scratch</think>The answer is 14.1%.",
	}}
	r := newTestRunner(client)

	a := NewMathAgent()
	history := []model.Message{
		{Role: model.RoleUser, Content: "question"},
		{Role: model.RoleAssistant, Content: "NEED_MATH_CALCULATION: 1+1"},
	}

	out, err := r.Run(context.Background(), a, history, nil)
	require.NoError(t, err)
	assert.Equal(t, "The answer is 14.1%.", out)

	req := client.lastReq
	assert.Equal(t, "claude-haiku-4-5-20251001", req.Model)
	require.Len(t, req.System, 1)
	assert.Equal(t, a.Instructions, req.System[0].Text)
	require.Len(t, req.Messages, 2)
	assert.Equal(t, "user", req.Messages[0].Role)
	assert.Equal(t, "assistant", req.Messages[1].Role)
	require.Len(t, req.Tools, 1)
	assert.Equal(t, "calculator", req.Tools[0].Name)
}

func TestRunnerRetriesTransientErrors(t *testing.T) {
	client := &mockClient{
		resp: &anthropic.MessageResponse{Text: "recovered"},
		errs: []error{resilience.NewTransientError(errors.New("overloaded"), 529)},
	}
	r := newTestRunner(client)

	out, err := r.Run(context.Background(), NewMathAgent(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
	assert.Equal(t, 2, client.calls)
}

func TestRunnerDoesNotRetryPermanentErrors(t *testing.T) {
	client := &mockClient{
		resp: &anthropic.MessageResponse{Text: "unused"},
		errs: []error{errors.New("invalid request")},
	}
	r := newTestRunner(client)

	_, err := r.Run(context.Background(), NewMathAgent(), nil, nil)
	require.Error(t, err)
	assert.Equal(t, 1, client.calls)
}

func TestRunnerStreamingSkipsRetry(t *testing.T) {
	client := &mockClient{
		resp: &anthropic.MessageResponse{Text: "streamed"},
		errs: []error{resilience.NewTransientError(errors.New("overloaded"), 529)},
	}
	r := newTestRunner(client)

	var streamed string
	_, err := r.Run(context.Background(), NewMathAgent(), nil, func(s string) { streamed += s })
	require.Error(t, err)
	assert.Equal(t, 1, client.calls)
	assert.Empty(t, streamed)
}

func TestRunnerStreamingDeliversText(t *testing.T) {
	client := &mockClient{resp: &anthropic.MessageResponse{Text: "chunked reply"}}
	r := newTestRunner(client)

	var streamed string
	out, err := r.Run(context.Background(), NewMathAgent(), nil, func(s string) { streamed += s })
	require.NoError(t, err)
	assert.Equal(t, "chunked reply", out)
	assert.Equal(t, "chunked reply", streamed)
}
