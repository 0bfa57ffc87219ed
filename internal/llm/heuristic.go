package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Heuristic metadata constants
const (
	HeuristicMetric = "Scope 1 CO₂ Emissions"
	HeuristicUnit   = "metric tonnes (tCO₂e)"
)

var (
	yearPattern  = regexp.MustCompile(`\b(20\d{2})\b`)
	valuePattern = regexp.MustCompile(`(?i)(\d+[.,]?\d*)\s*(?:Mt|tonnes|t)\b`)
)

// esgVocabulary drives heuristic tagging, in priority order
var esgVocabulary = []string{
	"CO2", "Scope 1", "Scope 2", "Scope 3", "emissions", "greenhouse gas",
	"climate", "energy", "renewable", "sustainability", "governance",
	"CSR", "waste", "water", "biodiversity",
}

// HeuristicProvider answers prompts with rules instead of a model.
// It works offline and is the default provider.
type HeuristicProvider struct {
	summaryWords int
}

// NewHeuristicProvider creates the rule-based provider
func NewHeuristicProvider() *HeuristicProvider {
	return &HeuristicProvider{summaryWords: 100}
}

// Name returns the provider name
func (p *HeuristicProvider) Name() string {
	return "heuristic"
}

// IsAvailable always reports true
func (p *HeuristicProvider) IsAvailable(context.Context) bool {
	return true
}

// Generate answers the prompt according to its task
func (p *HeuristicProvider) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	var text string
	switch req.Task {
	case TaskMetadata, "":
		out, err := p.metadata(req.Prompt)
		if err != nil {
			return nil, err
		}
		text = out
	case TaskSummary:
		text = p.summary(promptBody(req.Prompt))
	case TaskTags:
		out, err := json.Marshal(p.tags(promptBody(req.Prompt)))
		if err != nil {
			return nil, err
		}
		text = string(out)
	default:
		return nil, fmt.Errorf("heuristic provider: unsupported task %q", req.Task)
	}

	return &GenerateResponse{Text: text, Model: p.Name()}, nil
}

type heuristicMetadata struct {
	Year         *int    `json:"year"`
	Metric       string  `json:"metric"`
	Value        *string `json:"value"`
	Unit         string  `json:"unit"`
	CitedPassage string  `json:"cited_passage"`
}

func (p *HeuristicProvider) metadata(prompt string) (string, error) {
	lines := excerptLines(prompt)
	evidence := strings.Join(lines, "\n")
	if evidence == "" {
		evidence = prompt
	}

	out := heuristicMetadata{
		Metric: HeuristicMetric,
		Unit:   HeuristicUnit,
	}
	if len(lines) > 0 {
		out.CitedPassage = lines[0]
	}

	if m := yearPattern.FindStringSubmatch(evidence); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil {
			out.Year = &year
		}
	}
	if m := valuePattern.FindStringSubmatch(evidence); m != nil {
		value := m[1]
		out.Value = &value
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

func (p *HeuristicProvider) summary(text string) string {
	words := strings.Fields(text)
	if len(words) > p.summaryWords {
		return strings.Join(words[:p.summaryWords], " ") + " ..."
	}
	return strings.Join(words, " ")
}

func (p *HeuristicProvider) tags(text string) []string {
	lower := strings.ToLower(text)

	var tags []string
	for _, term := range esgVocabulary {
		if strings.Contains(lower, strings.ToLower(term)) {
			tags = append(tags, term)
		}
		if len(tags) == 5 {
			break
		}
	}
	if len(tags) == 0 {
		return append([]string(nil), DefaultTags...)
	}
	return tags
}
