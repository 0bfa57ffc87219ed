// Package query turns a raw query into linked entities and an expansion set.
package query

import "regexp"

// tokenPattern matches words: letters, digits, marks, underscores and apostrophes
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}\p{M}_']+`)

// Tokenize splits a raw query into tokens in order of appearance.
// Duplicates are kept; they are removed when the expansion set is built.
func Tokenize(raw string) []string {
	tokens := tokenPattern.FindAllString(raw, -1)
	if tokens == nil {
		return []string{}
	}
	return tokens
}
