package agent

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/finsight/finchat/internal/calc"
)

// MathAgentName identifies the computation stage in logs and error turns.
const MathAgentName = "math_expert"

type calcInput struct {
	Expression string `json:"expression" jsonschema:"description=A mathematical expression such as '2 + 3 * 4' or 'sqrt(16)' or '((206588 - 181001) / 181001) * 100'."`
}

const mathInstructions = `You are a math expert with access to a calculator tool.

The conversation ends with a research reply containing a line of the form "NEED_MATH_CALCULATION: <expression>". Take that expression, pass it to the calculator tool exactly as written (numbers must not contain $ signs or thousands separators), and report the result.

Use the calculator tool for every computation; never do arithmetic in your head. The calculator handles basic arithmetic (+, -, *, /), exponentiation (** or ^), parentheses, and functions such as sqrt, sin, cos, tan, log, log10, exp, floor, ceil, abs, round, min, max and sum, plus the constants pi and e.

Present the final answer clearly: state the computed value and briefly restate the numbers it was derived from, as given in the research reply. If the calculator returns an error, report the error instead of guessing a result.`

// NewMathAgent builds the computation stage around the sandboxed expression
// evaluator.
func NewMathAgent() *Agent {
	return &Agent{
		Name:         MathAgentName,
		Instructions: mathInstructions,
		Tools: []Tool{
			{
				Name:        "calculator",
				Description: "Calculate mathematical expressions safely. Supports basic arithmetic, exponentiation, parentheses, and common math functions. Examples: \"2 + 3 * 4\", \"(10 + 5) / 3\", \"sqrt(16)\", \"sin(pi/2)\", \"2**3\".",
				InputSchema: schemaFor(&calcInput{}),
				Run: func(ctx context.Context, input json.RawMessage) (string, error) {
					var in calcInput
					if err := json.Unmarshal(input, &in); err != nil {
						return "", eris.Wrap(err, "math: decode calculator input")
					}
					// Evaluate reports failures as descriptive strings, so the
					// model sees them as results rather than tool faults.
					return calc.Evaluate(in.Expression), nil
				},
			},
		},
	}
}
