package retrieval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight/finchat/internal/corpus"
	"github.com/finsight/finchat/internal/model"
	"github.com/finsight/finchat/internal/similarity"
)

func sampleService() *Service {
	return NewService(corpus.New(corpus.SampleRecords()), similarity.Matcher{})
}

func TestLookupVerbatimQuestion(t *testing.T) {
	svc := sampleService()

	out := svc.Lookup("what was the percentage change in the net cash from operating activities from 2008 to 2009")

	assert.Contains(t, out, "REFERENCE ANSWER (hint only, for a similar dataset question): 14.1%")
	assert.Contains(t, out, "REFERENCE CALCULATION (hint only): subtract(206588, 181001), divide(#0, 181001)")
	assert.Contains(t, out, "$ 206588")
	assert.Contains(t, out, "$ 181001")
	assert.Contains(t, out, "YEAR MAPPING FROM TABLE HEADERS:")
	assert.Contains(t, out, "EXTRACTION RULES:")
	assert.Contains(t, out, `USER QUERY: "what was the percentage change in the net cash from operating activities from 2008 to 2009"`)
}

func TestLookupEmptyCorpus(t *testing.T) {
	svc := NewService(corpus.New(nil), similarity.Matcher{})
	assert.Equal(t, NoDataSentinel, svc.Lookup("anything"))
}

func TestLookupBelowMinScore(t *testing.T) {
	svc := NewService(corpus.New(corpus.SampleRecords()), similarity.Matcher{MinScore: 0.95})
	assert.Equal(t, NoDataSentinel, svc.Lookup("zzzz qqqq completely unrelated"))
}

func TestLookupRecordWithoutTable(t *testing.T) {
	c := corpus.New([]model.Record{{
		QA:      model.QA{Question: "how many widgets", Answer: "5"},
		PreText: []string{"widget counts follow ."},
	}})
	svc := NewService(c, similarity.Matcher{})

	out := svc.Lookup("how many widgets")
	assert.Contains(t, out, "No table data available.")
	assert.NotContains(t, out, "YEAR MAPPING")
}

func TestLookupNeverErrors(t *testing.T) {
	svc := sampleService()

	for _, q := range []string{"", "   ", "????", string([]byte{0xff, 0xfe})} {
		require.NotPanics(t, func() {
			out := svc.Lookup(q)
			assert.NotEmpty(t, out)
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc...", truncate("abcdef", 3))
}
