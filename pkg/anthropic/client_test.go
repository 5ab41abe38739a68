package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateCost(t *testing.T) {
	usage := TokenUsage{
		InputTokens:  1_000_000,
		OutputTokens: 1_000_000,
	}

	assert.InDelta(t, 4.80, usage.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
	assert.InDelta(t, 18.00, usage.EstimateCost("claude-sonnet-4-5-20250929"), 1e-9)
	assert.Zero(t, usage.EstimateCost("unknown-model"))
}

func TestEstimateCostCacheTokens(t *testing.T) {
	usage := TokenUsage{
		CacheCreationInputTokens: 1_000_000,
		CacheReadInputTokens:     1_000_000,
	}

	// Cache writes cost 1.25x input, cache reads 0.1x.
	assert.InDelta(t, 0.80*1.25+0.80*0.1, usage.EstimateCost("claude-haiku-4-5-20251001"), 1e-9)
}

func TestTokenUsageAdd(t *testing.T) {
	u := TokenUsage{InputTokens: 10, OutputTokens: 20}
	u.Add(TokenUsage{InputTokens: 5, OutputTokens: 7, CacheReadInputTokens: 3})

	assert.Equal(t, int64(15), u.InputTokens)
	assert.Equal(t, int64(27), u.OutputTokens)
	assert.Equal(t, int64(3), u.CacheReadInputTokens)
}

func TestBuildCachedSystemBlocks(t *testing.T) {
	blocks := BuildCachedSystemBlocks("you are a helpful assistant")

	require.Len(t, blocks, 1)
	assert.Equal(t, "you are a helpful assistant", blocks[0].Text)
	require.NotNil(t, blocks[0].CacheControl)
	assert.Equal(t, "1h", blocks[0].CacheControl.TTL)
}

func TestSchemaParts(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string"},
		},
		"required": []string{"query"},
	}

	props, required, err := schemaParts(schema)
	require.NoError(t, err)
	assert.Contains(t, props, "query")
	assert.Equal(t, []string{"query"}, required)
}

func TestSchemaPartsEmptySchema(t *testing.T) {
	props, required, err := schemaParts(map[string]any{"type": "object"})
	require.NoError(t, err)
	assert.Empty(t, props)
	assert.Empty(t, required)
}

func TestSchemaPartsUnmarshalable(t *testing.T) {
	_, _, err := schemaParts(make(chan int))
	assert.Error(t, err)
}

func TestToSDKParams(t *testing.T) {
	temp := 0.2
	req := MessageRequest{
		Model:       "claude-haiku-4-5-20251001",
		MaxTokens:   1024,
		System:      BuildCachedSystemBlocks("instructions"),
		Temperature: &temp,
		Messages: []Message{
			{Role: "user", Content: "question"},
			{Role: "assistant", Content: "answer"},
		},
		Tools: []ToolSpec{{
			Name:        "calculator",
			Description: "evaluate expressions",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{"expression": map[string]any{"type": "string"}},
				"required":   []string{"expression"},
			},
		}},
	}

	params, err := toSDKParams(req)
	require.NoError(t, err)

	assert.Equal(t, "claude-haiku-4-5-20251001", string(params.Model))
	assert.Equal(t, int64(1024), params.MaxTokens)
	require.Len(t, params.System, 1)
	assert.Equal(t, "instructions", params.System[0].Text)
	assert.Len(t, params.Messages, 2)
	require.Len(t, params.Tools, 1)
	require.NotNil(t, params.Tools[0].OfTool)
	assert.Equal(t, "calculator", params.Tools[0].OfTool.Name)
	assert.Equal(t, []string{"expression"}, params.Tools[0].OfTool.InputSchema.Required)
}
