// Package score ranks scan hits by how often expansion terms occur in them.
package score

import (
	"sort"

	"github.com/ppiankov/activearchive/internal/model"
	"github.com/ppiankov/activearchive/internal/query"
)

// Ranker orders hits by term occurrence count
type Ranker struct {
	maxResults int
}

// NewRanker creates a ranker. maxResults <= 0 keeps every result.
func NewRanker(maxResults int) *Ranker {
	if maxResults < 0 {
		maxResults = 0
	}
	return &Ranker{maxResults: maxResults}
}

// Rank scores every hit and sorts by score descending. Hits with equal
// scores keep their input order.
func (r *Ranker) Rank(hits []model.Hit, terms model.ExpansionSet) []model.RankedResult {
	matchers := query.CompileTerms(terms)

	results := make([]model.RankedResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, model.RankedResult{
			Document: h.Document,
			Excerpt:  h.Excerpt,
			Score:    Score(h.Excerpt, matchers),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if r.maxResults > 0 && len(results) > r.maxResults {
		results = results[:r.maxResults]
	}

	return results
}

// Score sums the case-insensitive occurrence counts of every term in text
func Score(text string, matchers []query.TermMatcher) int {
	total := 0
	for _, m := range matchers {
		total += m.Count(text)
	}
	return total
}
