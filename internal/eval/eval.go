// Package eval measures retrieval and end-to-end answer quality over the
// loaded corpus: a fast offline check that self-queries rank their own
// record first, and an optional live run through the full workflow.
package eval

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/finsight/finchat/internal/corpus"
	"github.com/finsight/finchat/internal/similarity"
)

// Case is one evaluation question with its expected answer.
type Case struct {
	Question string `yaml:"question" json:"question"`
	Expected string `yaml:"expected" json:"expected"`
}

// Result is the outcome of one live case.
type Result struct {
	Case      Case          `json:"case"`
	SessionID string        `json:"session_id"`
	Response  string        `json:"response"`
	Extracted string        `json:"extracted"`
	Match     bool          `json:"match"`
	Elapsed   time.Duration `json:"elapsed"`
	Err       string        `json:"error,omitempty"`
}

// RetrievalResult is the outcome of one offline retrieval self-match check.
type RetrievalResult struct {
	Question string  `json:"question"`
	TopScore float64 `json:"top_score"`
	SelfHit  bool    `json:"self_hit"`
}

// SampleCases draws up to n cases from the corpus at an even stride, so the
// sample is deterministic and spread across the dataset.
func SampleCases(c *corpus.Corpus, n int) []Case {
	records := c.Records()
	var eligible []Case
	for _, rec := range records {
		if rec.QA.Question != "" && rec.QA.Answer != "" {
			eligible = append(eligible, Case{Question: rec.QA.Question, Expected: rec.QA.Answer})
		}
	}
	if n <= 0 || n >= len(eligible) {
		return eligible
	}
	stride := len(eligible) / n
	cases := make([]Case, 0, n)
	for i := 0; i < len(eligible) && len(cases) < n; i += stride {
		cases = append(cases, eligible[i])
	}
	return cases
}

// LoadCases reads evaluation cases from a YAML file: a list of
// {question, expected} entries.
func LoadCases(path string) ([]Case, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "eval: read cases")
	}
	var cases []Case
	if err := yaml.Unmarshal(raw, &cases); err != nil {
		return nil, eris.Wrap(err, "eval: parse cases")
	}
	return cases, nil
}

// Retrieval runs the offline check: querying the matcher with a record's own
// question must rank that record first with score 1.0.
func Retrieval(c *corpus.Corpus, matcher similarity.Matcher, cases []Case) []RetrievalResult {
	results := make([]RetrievalResult, 0, len(cases))
	for _, cs := range cases {
		matches := matcher.TopK(c, cs.Question, 1)
		r := RetrievalResult{Question: cs.Question}
		if len(matches) > 0 {
			r.TopScore = matches[0].Score
			r.SelfHit = matches[0].Record.QA.Question == cs.Question
		}
		results = append(results, r)
	}
	return results
}

// RunFunc executes one question through the workflow under a fresh session
// and returns the final reply text.
type RunFunc func(ctx context.Context, sessionID, question string) (string, error)

// Live runs cases through the workflow with bounded concurrency. Every case
// gets its own session so histories never cross-contaminate. A failed case
// becomes a Result with Err set; Live itself only fails on context
// cancellation.
func Live(ctx context.Context, run RunFunc, newSessionID func() string, cases []Case, concurrency int, tolerance float64) []Result {
	if concurrency <= 0 {
		concurrency = 1
	}

	results := make([]Result, len(cases))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, cs := range cases {
		g.Go(func() error {
			sessionID := newSessionID()
			start := time.Now()
			reply, err := run(gctx, sessionID, cs.Question)
			r := Result{
				Case:      cs,
				SessionID: sessionID,
				Response:  reply,
				Elapsed:   time.Since(start),
			}
			if err != nil {
				r.Err = err.Error()
			} else {
				r.Extracted = ExtractPercentage(reply)
				r.Match = ValidatePercentage(r.Extracted, cs.Expected, tolerance)
			}
			mu.Lock()
			results[i] = r
			mu.Unlock()

			zap.L().Info("eval case complete",
				zap.String("session", sessionID),
				zap.Bool("match", r.Match),
				zap.Duration("elapsed", r.Elapsed),
			)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Summary aggregates live results.
type Summary struct {
	Total   int     `json:"total"`
	Matched int     `json:"matched"`
	Failed  int     `json:"failed"`
	Rate    float64 `json:"rate"`
}

// Summarize computes the match rate over live results.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Err != "" {
			s.Failed++
			continue
		}
		if r.Match {
			s.Matched++
		}
	}
	if s.Total > 0 {
		s.Rate = float64(s.Matched) / float64(s.Total)
	}
	return s
}
