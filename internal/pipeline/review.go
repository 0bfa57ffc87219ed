package pipeline

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/activearchive/internal/model"
)

// Reviewer decides whether a curated record is approved
type Reviewer interface {
	Review(ctx context.Context, record *model.MetadataRecord) (bool, error)
}

// AutoApprove approves every record
type AutoApprove struct{}

// Review always approves
func (AutoApprove) Review(context.Context, *model.MetadataRecord) (bool, error) {
	return true, nil
}

// PromptReviewer shows the record and asks for a y/n answer
type PromptReviewer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptReviewer creates an interactive reviewer reading answers from in
func NewPromptReviewer(in io.Reader, out io.Writer) *PromptReviewer {
	return &PromptReviewer{in: bufio.NewReader(in), out: out}
}

// Review prints the record and reads one answer line. End of input counts
// as rejection.
func (r *PromptReviewer) Review(ctx context.Context, record *model.MetadataRecord) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return false, fmt.Errorf("marshal record: %w", err)
	}

	if _, err := fmt.Fprintf(r.out, "%s\nApprove this record? [y/N]: ", data); err != nil {
		return false, fmt.Errorf("write prompt: %w", err)
	}

	line, err := r.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
