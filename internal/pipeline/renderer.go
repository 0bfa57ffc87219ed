package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/activearchive/internal/model"
)

// Renderer writes explorations as text, JSON or Markdown
type Renderer struct{}

// NewRenderer creates a renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderText writes the subgraph edges followed by the ranked results
func (r *Renderer) RenderText(w io.Writer, exp *model.Exploration) error {
	var b strings.Builder

	b.WriteString("\n=== Semantic Subgraph (node -- uri) ===\n")
	for _, e := range exp.Graph.Edges {
		fmt.Fprintf(&b, "%s -- %s\n", e.From, e.To)
	}

	b.WriteString("\n=== Top Results ===\n")
	if len(exp.Results) == 0 {
		b.WriteString("\n(no matching documents)\n")
	}
	for _, res := range exp.Results {
		fmt.Fprintf(&b, "\n%s:\n  ...%s...\n", res.Document, res.Excerpt)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderJSON writes the exploration as indented JSON
func (r *Renderer) RenderJSON(w io.Writer, exp *model.Exploration) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(exp); err != nil {
		return fmt.Errorf("encode exploration: %w", err)
	}
	return nil
}

// RenderMarkdown writes a Markdown report of the exploration
func (r *Renderer) RenderMarkdown(w io.Writer, exp *model.Exploration) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Exploration: %s\n\n", exp.Query)

	b.WriteString("## Expanded Terms\n\n")
	if len(exp.Terms) == 0 {
		b.WriteString("_none_\n")
	}
	for _, t := range exp.Terms {
		fmt.Fprintf(&b, "- `%s`\n", t)
	}

	b.WriteString("\n## Semantic Subgraph\n\n")
	if len(exp.Links) == 0 {
		b.WriteString("_no linked entities_\n")
	} else {
		b.WriteString("| Token | Entity | Reference |\n")
		b.WriteString("|-------|--------|-----------|\n")
		for _, l := range exp.Links {
			fmt.Fprintf(&b, "| %s | %s | %s |\n", l.Token, l.Entity.ID, l.Entity.Ref())
		}
	}

	fmt.Fprintf(&b, "\n## Results (%d of %d documents)\n\n", len(exp.Results), exp.Scanned)
	if len(exp.Results) == 0 {
		b.WriteString("_no matching documents_\n")
	}
	for i, res := range exp.Results {
		fmt.Fprintf(&b, "%d. **%s** (score %d)\n\n   > %s\n\n", i+1, res.Document, res.Score, oneLine(res.Excerpt))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteFile renders into path, creating parent directories
func (r *Renderer) WriteFile(path string, exp *model.Exploration, render func(io.Writer, *model.Exploration) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()

	return render(f, exp)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
