package extract

import (
	"strings"
	"unicode"
)

// SplitSentences splits text after '.', '!' or '?' followed by whitespace.
// Sentences are trimmed; empty ones are dropped.
func SplitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i+1 >= len(runes) || !unicode.IsSpace(runes[i+1]) {
			continue
		}

		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()

		for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			i++
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// Passages returns up to max sentences of text that mention any keyword,
// ignoring case. max <= 0 means no limit.
func Passages(text string, keywords []string, max int) []string {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			lowered = append(lowered, strings.ToLower(k))
		}
	}
	if len(lowered) == 0 {
		return nil
	}

	var passages []string
	for _, sentence := range SplitSentences(text) {
		lower := strings.ToLower(sentence)
		for _, k := range lowered {
			if strings.Contains(lower, k) {
				passages = append(passages, sentence)
				break
			}
		}
		if max > 0 && len(passages) >= max {
			break
		}
	}

	return passages
}

// Truncate cuts text to at most max runes. max <= 0 returns text unchanged.
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
