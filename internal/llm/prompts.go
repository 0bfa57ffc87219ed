package llm

import (
	"fmt"
	"strings"
)

// DefaultSystem is the system prompt shared by every curation task
const DefaultSystem = "You are an ESG archivist assistant."

// excerptsHeader introduces the passages in the metadata prompt
const excerptsHeader = "Document excerpts:"

// Fact is an external statement about an entity
type Fact struct {
	Entity      string
	Description string
}

// BuildMetadataPrompt fuses passages and facts into the extraction prompt.
// Each passage is written on its own line.
func BuildMetadataPrompt(passages []string, facts []Fact) string {
	var b strings.Builder

	b.WriteString(DefaultSystem)
	b.WriteString("\nContext facts:\n")
	for _, f := range facts {
		if strings.TrimSpace(f.Description) == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", f.Entity, oneLine(f.Description))
	}

	b.WriteString("\n")
	b.WriteString(excerptsHeader)
	b.WriteString("\n")
	for _, p := range passages {
		if p = oneLine(p); p != "" {
			b.WriteString(p)
			b.WriteString("\n")
		}
	}

	b.WriteString("\nBased on the evidence above, extract YEAR, METRIC NAME, and VALUE (with unit).\n")
	b.WriteString("Return a JSON dictionary with keys: year, metric, value, unit, cited_passage.")

	return b.String()
}

// BuildSummaryPrompt asks for a short summary of text
func BuildSummaryPrompt(text string) string {
	return "Summarize in 100 words:\n\n" + text
}

// BuildTagsPrompt asks for five ESG tags as a JSON list
func BuildTagsPrompt(text string) string {
	return "Extract 5 key ESG tags as a JSON list of strings:\n\n" + text
}

// promptBody returns the text after the first blank line of a prompt
func promptBody(prompt string) string {
	if _, body, ok := strings.Cut(prompt, "\n\n"); ok {
		return body
	}
	return prompt
}

// excerptLines returns the passage lines of a metadata prompt
func excerptLines(prompt string) []string {
	_, rest, ok := strings.Cut(prompt, excerptsHeader+"\n")
	if !ok {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(rest, "\n") {
		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	return lines
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
