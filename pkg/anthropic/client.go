package anthropic

import (
	"context"
	"encoding/json"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// maxToolTurns bounds the tool-execution loop so a confused model cannot
// spin forever requesting tools.
const maxToolTurns = 8

// Client defines the reasoning-service operations used by the agents. The
// core treats the service as opaque: ordered message history plus declared
// tools in, final reply text out.
type Client interface {
	CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error)

	// RunTools drives the full tool-execution loop: send the request, execute
	// any tool invocations the model requests via handler, feed the results
	// back, and repeat until the model produces a final text reply. When
	// onText is non-nil, reply text is additionally delivered incrementally
	// as it streams; this is a presentation concern only, and the returned
	// response always carries the final assembled text.
	RunTools(ctx context.Context, req MessageRequest, handler ToolHandler, onText func(string)) (*MessageResponse, error)
}

// ToolHandler executes one tool invocation requested by the model and
// returns its textual result. A returned error is reported to the model as
// a failed tool result, not raised to the caller.
type ToolHandler func(ctx context.Context, name string, input json.RawMessage) (string, error)

// MessageRequest is our own request type for CreateMessage and RunTools.
type MessageRequest struct {
	Model       string
	MaxTokens   int64
	System      []SystemBlock
	Messages    []Message
	Temperature *float64
	Tools       []ToolSpec
}

// SystemBlock represents a system prompt block, optionally with cache control.
type SystemBlock struct {
	Text         string
	CacheControl *CacheControl
}

// CacheControl configures caching for a content block.
type CacheControl struct {
	TTL string // "5m" or "1h"
}

// Message represents a single conversational message.
type Message struct {
	Role    string // "user" or "assistant"
	Content string
}

// ToolSpec declares one invocable capability to the model. InputSchema is
// any JSON-marshalable value producing a JSON Schema object with
// "properties" and "required" keys.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema any
}

// MessageResponse is our own response type.
type MessageResponse struct {
	ID         string
	Model      string
	Text       string
	StopReason string
	Usage      TokenUsage
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// modelPricing holds per-million-token pricing for known models.
var modelPricing = map[string][2]float64{
	// model → {input $/MTok, output $/MTok}
	"claude-haiku-4-5-20251001":  {0.80, 4.00},
	"claude-sonnet-4-5-20250929": {3.00, 15.00},
}

// EstimateCost computes an estimated cost in USD from a TokenUsage and model ID.
// Returns 0 for unknown models.
func (u TokenUsage) EstimateCost(model string) float64 {
	pricing, ok := modelPricing[model]
	if !ok {
		return 0
	}
	inCost := (float64(u.InputTokens) / 1e6) * pricing[0]
	outCost := (float64(u.OutputTokens) / 1e6) * pricing[1]
	cacheWriteCost := (float64(u.CacheCreationInputTokens) / 1e6) * pricing[0] * 1.25
	cacheReadCost := (float64(u.CacheReadInputTokens) / 1e6) * pricing[0] * 0.1
	return inCost + outCost + cacheWriteCost + cacheReadCost
}

// Add accumulates usage from another response, for multi-turn tool loops.
func (u *TokenUsage) Add(other TokenUsage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CacheCreationInputTokens += other.CacheCreationInputTokens
	u.CacheReadInputTokens += other.CacheReadInputTokens
}

// LogCost logs token usage and estimated cost with structured zap fields.
func (u TokenUsage) LogCost(model, phase string) {
	cost := u.EstimateCost(model)
	zap.L().Info("cost attribution",
		zap.String("model", model),
		zap.String("phase", phase),
		zap.Int64("input_tokens", u.InputTokens),
		zap.Int64("output_tokens", u.OutputTokens),
		zap.Int64("cache_write_tokens", u.CacheCreationInputTokens),
		zap.Int64("cache_read_tokens", u.CacheReadInputTokens),
		zap.Float64("estimated_cost_usd", cost),
	)
}

// Option configures the SDK-backed client.
type Option func(*sdkClient)

// WithRateLimiter throttles outgoing API calls, including the individual
// turns of a tool loop.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *sdkClient) {
		c.limiter = l
	}
}

// WithBaseURL overrides the API base URL.
func WithBaseURL(url string) Option {
	return func(c *sdkClient) {
		c.requestOpts = append(c.requestOpts, option.WithBaseURL(url))
	}
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client      sdk.Client
	limiter     *rate.Limiter
	requestOpts []option.RequestOption
}

// NewClient creates a new Anthropic client backed by the SDK.
func NewClient(apiKey string, opts ...Option) Client {
	c := &sdkClient{}
	for _, o := range opts {
		o(c)
	}
	c.client = sdk.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, c.requestOpts...)...)
	return c
}

func (c *sdkClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *sdkClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "anthropic: rate limit wait")
	}

	params, err := toSDKParams(req)
	if err != nil {
		return nil, err
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, eris.Wrap(err, "anthropic: create message")
	}

	return fromSDKMessage(msg), nil
}

func (c *sdkClient) RunTools(ctx context.Context, req MessageRequest, handler ToolHandler, onText func(string)) (*MessageResponse, error) {
	params, err := toSDKParams(req)
	if err != nil {
		return nil, err
	}

	var usage TokenUsage
	var finalText strings.Builder

	for turn := 0; turn < maxToolTurns; turn++ {
		if err := c.wait(ctx); err != nil {
			return nil, eris.Wrap(err, "anthropic: rate limit wait")
		}

		var msg *sdk.Message
		if onText != nil {
			msg, err = c.createStreaming(ctx, params, onText)
		} else {
			msg, err = c.client.Messages.New(ctx, params)
		}
		if err != nil {
			return nil, eris.Wrap(err, "anthropic: create message")
		}

		resp := fromSDKMessage(msg)
		usage.Add(resp.Usage)
		if resp.Text != "" {
			if finalText.Len() > 0 {
				finalText.WriteString("\n")
			}
			finalText.WriteString(resp.Text)
		}

		toolUses := toolUseBlocks(msg)
		if resp.StopReason != "tool_use" || len(toolUses) == 0 {
			return &MessageResponse{
				ID:         resp.ID,
				Model:      resp.Model,
				Text:       finalText.String(),
				StopReason: resp.StopReason,
				Usage:      usage,
			}, nil
		}

		// Feed tool results back and go around again.
		params.Messages = append(params.Messages, msg.ToParam())
		results := make([]sdk.ContentBlockParamUnion, 0, len(toolUses))
		for _, tu := range toolUses {
			zap.L().Debug("tool invocation",
				zap.String("tool", tu.name),
				zap.String("input", string(tu.input)),
			)
			out, herr := handler(ctx, tu.name, tu.input)
			if herr != nil {
				results = append(results, sdk.NewToolResultBlock(tu.id, "tool error: "+herr.Error(), true))
				continue
			}
			results = append(results, sdk.NewToolResultBlock(tu.id, out, false))
		}
		params.Messages = append(params.Messages, sdk.NewUserMessage(results...))
	}

	return nil, eris.New("anthropic: tool loop exceeded max turns")
}

// createStreaming issues a streaming request, forwarding text deltas to
// onText as they arrive, and returns the fully accumulated message.
func (c *sdkClient) createStreaming(ctx context.Context, params sdk.MessageNewParams, onText func(string)) (*sdk.Message, error) {
	stream := c.client.Messages.NewStreaming(ctx, params)
	var msg sdk.Message
	for stream.Next() {
		event := stream.Current()
		if err := msg.Accumulate(event); err != nil {
			return nil, eris.Wrap(err, "anthropic: accumulate stream event")
		}
		if ev, ok := event.AsAny().(sdk.ContentBlockDeltaEvent); ok {
			if delta, ok := ev.Delta.AsAny().(sdk.TextDelta); ok {
				onText(delta.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return nil, eris.Wrap(err, "anthropic: stream")
	}
	return &msg, nil
}

// --- SDK type conversion helpers ---

func toSDKParams(req MessageRequest) (sdk.MessageNewParams, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages:  toSDKMessages(req.Messages),
	}
	if len(req.System) > 0 {
		params.System = toSDKSystemBlocks(req.System)
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}
	if len(req.Tools) > 0 {
		tools, err := toSDKTools(req.Tools)
		if err != nil {
			return sdk.MessageNewParams{}, err
		}
		params.Tools = tools
	}
	return params, nil
}

func toSDKMessages(msgs []Message) []sdk.MessageParam {
	out := make([]sdk.MessageParam, len(msgs))
	for i, m := range msgs {
		block := sdk.NewTextBlock(m.Content)
		switch m.Role {
		case "assistant":
			out[i] = sdk.NewAssistantMessage(block)
		default:
			out[i] = sdk.NewUserMessage(block)
		}
	}
	return out
}

func toSDKSystemBlocks(blocks []SystemBlock) []sdk.TextBlockParam {
	out := make([]sdk.TextBlockParam, len(blocks))
	for i, b := range blocks {
		out[i] = sdk.TextBlockParam{
			Text: b.Text,
		}
		if b.CacheControl != nil {
			cc := sdk.NewCacheControlEphemeralParam()
			if b.CacheControl.TTL != "" {
				cc.TTL = sdk.CacheControlEphemeralTTL(b.CacheControl.TTL)
			}
			out[i].CacheControl = cc
		}
	}
	return out
}

func toSDKTools(specs []ToolSpec) ([]sdk.ToolUnionParam, error) {
	out := make([]sdk.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		properties, required, err := schemaParts(spec.InputSchema)
		if err != nil {
			return nil, eris.Wrapf(err, "anthropic: tool %s schema", spec.Name)
		}
		out = append(out, sdk.ToolUnionParam{
			OfTool: &sdk.ToolParam{
				Name:        spec.Name,
				Description: sdk.String(spec.Description),
				InputSchema: sdk.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		})
	}
	return out, nil
}

// schemaParts extracts the "properties" and "required" members of a JSON
// Schema object, whatever concrete type produced it.
func schemaParts(schema any) (map[string]any, []string, error) {
	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, nil, err
	}
	var obj struct {
		Properties map[string]any `json:"properties"`
		Required   []string       `json:"required"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, nil, err
	}
	return obj.Properties, obj.Required, nil
}

type toolUse struct {
	id    string
	name  string
	input json.RawMessage
}

func toolUseBlocks(msg *sdk.Message) []toolUse {
	var uses []toolUse
	for _, block := range msg.Content {
		if v, ok := block.AsAny().(sdk.ToolUseBlock); ok {
			uses = append(uses, toolUse{
				id:    v.ID,
				name:  v.Name,
				input: json.RawMessage(v.JSON.Input.Raw()),
			})
		}
	}
	return uses
}

func fromSDKMessage(msg *sdk.Message) *MessageResponse {
	var text strings.Builder
	for _, b := range msg.Content {
		if v, ok := b.AsAny().(sdk.TextBlock); ok {
			text.WriteString(v.Text)
		}
	}

	return &MessageResponse{
		ID:         msg.ID,
		Model:      string(msg.Model),
		Text:       text.String(),
		StopReason: string(msg.StopReason),
		Usage: TokenUsage{
			InputTokens:              msg.Usage.InputTokens,
			OutputTokens:             msg.Usage.OutputTokens,
			CacheCreationInputTokens: msg.Usage.CacheCreationInputTokens,
			CacheReadInputTokens:     msg.Usage.CacheReadInputTokens,
		},
	}
}
