// Package similarity scores free-text queries against corpus questions using
// a character-level matching-blocks ratio. It is deliberately lexical, not
// semantic: the corpus is small, loaded once, and deterministic ranking
// matters more than recall.
package similarity

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/finsight/finchat/internal/corpus"
	"github.com/finsight/finchat/internal/model"
)

// Matcher ranks corpus records against a query. MinScore suppresses
// low-confidence matches; zero keeps every match, however weak, which
// mirrors the historical behavior.
type Matcher struct {
	MinScore float64
}

// Ratio returns the matching-blocks similarity of a and b in [0, 1]:
// twice the number of matching characters in the optimal common-subsequence
// alignment, divided by the combined length of both strings. Comparison is
// case-insensitive and NFKC-normalized. Identical strings score 1.0.
func Ratio(a, b string) float64 {
	ra := []rune(canonical(a))
	rb := []rune(canonical(b))
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingChars(ra, rb)) / float64(total)
}

func canonical(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// matchingChars counts characters in the recursive longest-matching-block
// decomposition: find the longest common substring, then recurse on the
// pieces to its left and right.
func matchingChars(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	ai, bi, size := longestMatch(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingChars(a[:ai], b[:bi]) +
		matchingChars(a[ai+size:], b[bi+size:])
}

// longestMatch finds the longest common substring of a and b. Ties resolve
// to the earliest position in a, then the earliest in b.
func longestMatch(a, b []rune) (ai, bi, size int) {
	// prev[j] holds the run length ending at a[i-1], b[j-1].
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > size {
					size = cur[j]
					ai = i - size
					bi = j - size
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return ai, bi, size
}

// TopK scores every record whose question is non-empty against query and
// returns up to k matches in descending score order. Equal scores keep
// corpus order. An empty corpus, or one with no questions, yields an empty
// slice; callers must treat that as "no match", not an error.
func (m Matcher) TopK(c *corpus.Corpus, query string, k int) []model.Match {
	if c == nil || k <= 0 {
		return nil
	}

	records := c.Records()
	matches := make([]model.Match, 0, len(records))
	for i := range records {
		rec := &records[i]
		if rec.QA.Question == "" {
			continue
		}
		score := Ratio(query, rec.QA.Question)
		if score < m.MinScore {
			continue
		}
		matches = append(matches, model.Match{Record: rec, Score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
