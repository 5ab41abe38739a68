package eval

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/finsight/finchat/internal/corpus"
	"github.com/finsight/finchat/internal/model"
	"github.com/finsight/finchat/internal/similarity"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func evalCorpus(n int) *corpus.Corpus {
	records := make([]model.Record, n)
	for i := range records {
		records[i].QA.Question = fmt.Sprintf("question number %d about net cash", i)
		records[i].QA.Answer = fmt.Sprintf("%d.0%%", i)
	}
	return corpus.New(records)
}

func TestSampleCases(t *testing.T) {
	c := evalCorpus(10)

	cases := SampleCases(c, 3)
	require.Len(t, cases, 3)
	// Deterministic even stride across the dataset.
	assert.Equal(t, "question number 0 about net cash", cases[0].Question)
	assert.Equal(t, "question number 3 about net cash", cases[1].Question)
	assert.Equal(t, "question number 6 about net cash", cases[2].Question)

	// Same inputs, same sample.
	assert.Equal(t, cases, SampleCases(c, 3))
}

func TestSampleCasesBounds(t *testing.T) {
	c := evalCorpus(4)

	assert.Len(t, SampleCases(c, 0), 4)
	assert.Len(t, SampleCases(c, 10), 4)
	assert.Len(t, SampleCases(c, 4), 4)
}

func TestSampleCasesSkipsIncompleteRecords(t *testing.T) {
	records := []model.Record{
		{QA: model.QA{Question: "has both", Answer: "1%"}},
		{QA: model.QA{Question: "no answer"}},
		{QA: model.QA{Answer: "no question"}},
	}

	cases := SampleCases(corpus.New(records), 10)
	require.Len(t, cases, 1)
	assert.Equal(t, "has both", cases[0].Question)
}

func TestLoadCases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- question: what was the change
  expected: "14.1%"
- question: what was the margin
  expected: "8%"
`), 0o644))

	cases, err := LoadCases(path)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "what was the change", cases[0].Question)
	assert.Equal(t, "8%", cases[1].Expected)
}

func TestLoadCasesErrors(t *testing.T) {
	_, err := LoadCases(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("question: [not a list"), 0o644))
	_, err = LoadCases(path)
	assert.Error(t, err)
}

func TestRetrievalSelfHit(t *testing.T) {
	c := evalCorpus(5)
	cases := SampleCases(c, 5)

	results := Retrieval(c, similarity.Matcher{}, cases)
	require.Len(t, results, 5)
	for _, r := range results {
		assert.True(t, r.SelfHit, "question %q must retrieve its own record", r.Question)
		assert.InDelta(t, 1.0, r.TopScore, 1e-9)
	}
}

func TestRetrievalMiss(t *testing.T) {
	c := evalCorpus(2)

	results := Retrieval(c, similarity.Matcher{}, []Case{{Question: "unrelated query text"}})
	require.Len(t, results, 1)
	assert.False(t, results[0].SelfHit)
}

func TestLive(t *testing.T) {
	cases := []Case{
		{Question: "q1", Expected: "14.1%"},
		{Question: "q2", Expected: "10%"},
		{Question: "q3", Expected: "5%"},
	}

	var mu sync.Mutex
	sessions := map[string]bool{}
	run := func(ctx context.Context, sessionID, question string) (string, error) {
		mu.Lock()
		sessions[sessionID] = true
		mu.Unlock()
		switch question {
		case "q1":
			return "The answer is 14.14%.", nil
		case "q2":
			return "The answer is 55%.", nil
		default:
			return "", errors.New("service unavailable")
		}
	}

	seq := 0
	newSessionID := func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("session-%d", seq)
	}

	results := Live(context.Background(), run, newSessionID, cases, 2, 0.1)
	require.Len(t, results, 3)

	// Results stay aligned with case order despite concurrency.
	assert.Equal(t, "q1", results[0].Case.Question)
	assert.True(t, results[0].Match)
	assert.Equal(t, "14.14%", results[0].Extracted)

	assert.False(t, results[1].Match)
	assert.Equal(t, "55%", results[1].Extracted)

	assert.Equal(t, "service unavailable", results[2].Err)
	assert.False(t, results[2].Match)

	// One fresh session per case.
	assert.Len(t, sessions, 3)

	s := Summarize(results)
	assert.Equal(t, Summary{Total: 3, Matched: 1, Failed: 1, Rate: 1.0 / 3.0}, s)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}
