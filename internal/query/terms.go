package query

import (
	"regexp"

	"github.com/ppiankov/activearchive/internal/model"
)

// TermMatcher finds case-insensitive literal occurrences of one term
type TermMatcher struct {
	Term string
	re   *regexp.Regexp
}

// NewTermMatcher compiles a matcher for term
func NewTermMatcher(term string) TermMatcher {
	return TermMatcher{
		Term: term,
		re:   regexp.MustCompile(`(?i)` + regexp.QuoteMeta(term)),
	}
}

// CompileTerms returns one matcher per term, in expansion order
func CompileTerms(terms model.ExpansionSet) []TermMatcher {
	matchers := make([]TermMatcher, 0, len(terms))
	for _, term := range terms {
		matchers = append(matchers, NewTermMatcher(term))
	}
	return matchers
}

// MatchString reports whether s contains the term
func (m TermMatcher) MatchString(s string) bool {
	return m.re.MatchString(s)
}

// Count returns the number of non-overlapping occurrences of the term in s
func (m TermMatcher) Count(s string) int {
	return len(m.re.FindAllStringIndex(s, -1))
}

// Pattern returns the regular expression source of the term, without flags
func (m TermMatcher) Pattern() string {
	return regexp.QuoteMeta(m.Term)
}
