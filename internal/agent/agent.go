// Package agent defines the reasoning stages: prompt, declared tools, and
// the runner that drives them through the reasoning-service boundary. The
// stages themselves are opaque model-backed collaborators; everything here
// is declaration and glue.
package agent

import (
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"

	"github.com/finsight/finchat/pkg/anthropic"
)

// Tool is one capability an agent may invoke: a name and description the
// model sees, a JSON input schema, and the function that executes it.
type Tool struct {
	Name        string
	Description string
	InputSchema any
	Run         func(ctx context.Context, input json.RawMessage) (string, error)
}

// Agent pairs a system prompt with the tools available to it.
type Agent struct {
	Name         string
	Instructions string
	Tools        []Tool
}

// specs converts the agent's tools into the client's declaration format.
func (a *Agent) specs() []anthropic.ToolSpec {
	specs := make([]anthropic.ToolSpec, len(a.Tools))
	for i, t := range a.Tools {
		specs[i] = anthropic.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		}
	}
	return specs
}

// handle dispatches a tool invocation requested by the model.
func (a *Agent) handle(ctx context.Context, name string, input json.RawMessage) (string, error) {
	for _, t := range a.Tools {
		if t.Name == name {
			return t.Run(ctx, input)
		}
	}
	return "", eris.Errorf("agent %s: unknown tool %s", a.Name, name)
}

// schemaFor reflects a JSON schema for a tool's input struct, inlined so the
// declaration carries plain "properties" and "required" members.
func schemaFor(v any) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return r.Reflect(v)
}
