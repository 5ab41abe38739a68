package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finchat/internal/corpus"
	"github.com/finsight/finchat/internal/retrieval"
	"github.com/finsight/finchat/internal/similarity"
)

func TestAgentHandleDispatch(t *testing.T) {
	var seen json.RawMessage
	a := &Agent{
		Name: "tester",
		Tools: []Tool{
			{Name: "alpha", Run: func(ctx context.Context, input json.RawMessage) (string, error) {
				seen = input
				return "alpha result", nil
			}},
			{Name: "beta", Run: func(ctx context.Context, input json.RawMessage) (string, error) {
				return "beta result", nil
			}},
		},
	}

	out, err := a.handle(context.Background(), "alpha", json.RawMessage(`{"x":1}`))
	require.NoError(t, err)
	assert.Equal(t, "alpha result", out)
	assert.JSONEq(t, `{"x":1}`, string(seen))

	out, err = a.handle(context.Background(), "beta", nil)
	require.NoError(t, err)
	assert.Equal(t, "beta result", out)

	_, err = a.handle(context.Background(), "gamma", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool gamma")
}

func TestSchemaForInlinesProperties(t *testing.T) {
	raw, err := json.Marshal(schemaFor(&lookupInput{}))
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok, "schema must carry inline properties, got %s", raw)
	require.Contains(t, props, "query")

	query := props["query"].(map[string]any)
	assert.Equal(t, "string", query["type"])
	assert.NotEmpty(t, query["description"])

	required, ok := schema["required"].([]any)
	require.True(t, ok)
	assert.Contains(t, required, "query")
}

func TestResearchAgentLookupTool(t *testing.T) {
	svc := retrieval.NewService(corpus.New(corpus.SampleRecords()), similarity.Matcher{})
	a := NewResearchAgent(svc)

	require.Len(t, a.Tools, 1)
	assert.Equal(t, "financial_context_lookup", a.Tools[0].Name)

	out, err := a.handle(context.Background(), "financial_context_lookup",
		json.RawMessage(`{"query":"percentage change in net cash from operating activities"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "206588")

	_, err = a.handle(context.Background(), "financial_context_lookup", json.RawMessage(`{broken`))
	assert.Error(t, err)
}

func TestMathAgentCalculatorTool(t *testing.T) {
	a := NewMathAgent()

	require.Len(t, a.Tools, 1)
	assert.Equal(t, "calculator", a.Tools[0].Name)

	out, err := a.handle(context.Background(), "calculator",
		json.RawMessage(`{"expression":"(206588 - 181001) / 181001 * 100"}`))
	require.NoError(t, err)
	assert.Equal(t, "14.13638599", out)

	// Evaluation failures come back as result text, not tool errors.
	out, err = a.handle(context.Background(), "calculator",
		json.RawMessage(`{"expression":"1/0"}`))
	require.NoError(t, err)
	assert.Equal(t, "Error: Division by zero.", out)
}

func TestSpecs(t *testing.T) {
	a := NewResearchAgent(retrieval.NewService(corpus.New(nil), similarity.Matcher{}))
	specs := a.specs()
	require.Len(t, specs, 1)
	assert.Equal(t, "financial_context_lookup", specs[0].Name)
	assert.NotEmpty(t, specs[0].Description)
	assert.NotNil(t, specs[0].InputSchema)
}
