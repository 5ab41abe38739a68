// Package retrieval is the callable surface the research stage uses to pull
// context for a query: similarity search over the corpus plus formatting of
// the best match into a text block. The interface is text-in/text-out
// because the consumer is a language-model stage, not a typed caller.
package retrieval

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/finsight/finchat/internal/corpus"
	"github.com/finsight/finchat/internal/similarity"
)

// NoDataSentinel is returned when no similar record exists. The research
// stage is instructed to detect it and decline to fabricate figures.
const NoDataSentinel = "No similar queries found in the financial dataset."

// topK is fixed at 3: enough matches to log for inspection without the
// extras ever reaching the prompt; only the best match is formatted.
const topK = 3

// Service performs context lookups against a fixed corpus.
type Service struct {
	corpus  *corpus.Corpus
	matcher similarity.Matcher
}

// NewService builds a lookup service over the given corpus.
func NewService(c *corpus.Corpus, matcher similarity.Matcher) *Service {
	return &Service{corpus: c, matcher: matcher}
}

// Lookup finds the record most similar to query and assembles the context
// block for the research stage. It never returns an error and never panics:
// any internal failure is converted into a textual error message, because
// the caller has no structured exception handling.
func (s *Service) Lookup(query string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("retrieval: lookup panic", zap.Any("panic", r))
			out = fmt.Sprintf("Error in financial context lookup: %v", r)
		}
	}()

	matches := s.matcher.TopK(s.corpus, query, topK)
	if len(matches) == 0 {
		zap.L().Debug("retrieval: no match", zap.String("query", query))
		return NoDataSentinel
	}

	for i, m := range matches {
		zap.L().Debug("retrieval: candidate",
			zap.Int("rank", i+1),
			zap.Float64("score", m.Score),
			zap.String("question", truncate(m.Record.QA.Question, 70)),
		)
	}

	best := matches[0]
	bundle := FormatRecord(*best.Record)
	zap.L().Info("retrieval: best match",
		zap.Float64("score", best.Score),
		zap.String("source", bundle.SourceID),
	)

	return assemble(query, bundle)
}

// assemble builds the text block handed to the research stage. The reference
// answer and program are labeled as hints so the stage does not echo them as
// the final answer; the extraction rules exist because small models invent
// numbers without them.
func assemble(query string, b ContextBundle) string {
	var sb strings.Builder

	sb.WriteString("CRITICAL DATA EXTRACTION TASK\n\n")
	fmt.Fprintf(&sb, "REFERENCE ANSWER (hint only, for a similar dataset question): %s\n", b.Answer)
	fmt.Fprintf(&sb, "REFERENCE CALCULATION (hint only): %s\n\n", b.Program)

	sb.WriteString("EXACT TABLE DATA TO EXTRACT FROM:\n")
	if len(b.TableRows) == 0 {
		sb.WriteString("No table data available.\n")
	} else {
		for _, row := range b.TableRows {
			fmt.Fprintf(&sb, "  - %s\n", row)
		}
	}
	if b.YearMapping != "" {
		fmt.Fprintf(&sb, "YEAR MAPPING FROM TABLE HEADERS: %s\n", b.YearMapping)
	}

	sb.WriteString("\nEXTRACTION RULES:\n")
	sb.WriteString("1. Find the row containing your target metric.\n")
	sb.WriteString("2. Copy the EXACT text from that row, including $ signs and commas.\n")
	sb.WriteString("3. Do NOT invent, round, or estimate any numbers.\n")
	sb.WriteString("4. Table values are in columns, typically ordered by year; use the year mapping to align them.\n\n")

	sb.WriteString("SUPPORTING CONTEXT:\n")
	fmt.Fprintf(&sb, "Pre-text: %s\n", b.PreText)
	fmt.Fprintf(&sb, "Post-text: %s\n\n", b.PostText)

	fmt.Fprintf(&sb, "USER QUERY: %q\n\n", query)
	sb.WriteString("BEFORE YOU ANSWER: copy the exact row from the table that contains your metric and state which column corresponds to which year.")

	return sb.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
