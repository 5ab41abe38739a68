package agent

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/finsight/finchat/internal/retrieval"
)

// ResearchAgentName identifies the research stage in logs and error turns.
const ResearchAgentName = "financial_research_expert"

type lookupInput struct {
	Query string `json:"query" jsonschema:"description=The user's financial question; used to search the Q&A dataset for the most similar record."`
}

const researchInstructions = `You are a specialized financial research expert. Your goal is to answer user questions about company financials using a dedicated knowledge base.

Follow these steps precisely:

1. For any query asking for specific financial figures, performance data, or calculations (e.g. 'net cash', 'revenue change', 'percentage change in X from Y to Z'), FIRST use the financial_context_lookup tool with the user's original query. The tool returns relevant narrative text, table data, and an example calculation program from our financial dataset.

2. CRITICAL: analyze the tool output. It contains the actual financial data you need.
   - DO NOT assume or invent any numbers. Extract every numerical value directly from the Pre-text, Post-text, and table data sections the tool provides.
   - Identify the specific financial metric and the relevant years mentioned in the user's original query, then scan the provided context for exactly those metrics and years and copy the exact values.

3. The REFERENCE CALCULATION in the tool output belongs to a similar dataset question. It is a hint for the kind of calculation required; adapt it to the user's current query using the exact data you extracted. Never echo the REFERENCE ANSWER as your own answer.

4. Formulate a precise mathematical expression from the extracted numbers, stripped of $ signs and commas. For a percentage change from an OLD value to a NEW value the formula is ((NEW - OLD) / OLD) * 100.

5. Do NOT perform the calculation yourself. State which numbers you extracted and from where, then end your reply with a single line of exactly this form:
NEED_MATH_CALCULATION: <expression>

6. If the tool reports that no similar data was found, or the data is insufficient for the user's query, say so clearly and stop. Do not invent data, do not emit the NEED_MATH_CALCULATION line, and do not make up a calculation.`

// NewResearchAgent builds the research stage: retrieval tool plus the
// extraction-and-hand-off protocol in its instructions.
func NewResearchAgent(lookup *retrieval.Service) *Agent {
	return &Agent{
		Name:         ResearchAgentName,
		Instructions: researchInstructions,
		Tools: []Tool{
			{
				Name:        "financial_context_lookup",
				Description: "Look up similar financial queries and retrieve relevant context (tables, narrative text, reference calculation) from the financial Q&A dataset. Use this first for any specific financial data question.",
				InputSchema: schemaFor(&lookupInput{}),
				Run: func(ctx context.Context, input json.RawMessage) (string, error) {
					var in lookupInput
					if err := json.Unmarshal(input, &in); err != nil {
						return "", eris.Wrap(err, "research: decode lookup input")
					}
					return lookup.Lookup(in.Query), nil
				},
			},
		},
	}
}
