package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/activearchive/internal/corpus"
	"github.com/ppiankov/activearchive/internal/extract"
	"github.com/ppiankov/activearchive/internal/kg"
	"github.com/ppiankov/activearchive/internal/llm"
	"github.com/ppiankov/activearchive/internal/model"
	"github.com/ppiankov/activearchive/internal/store"
)

func exampleLookup(t *testing.T) kg.Lookup {
	t.Helper()
	table := kg.Table{Entities: []kg.Entry{{
		Entity:  model.Entity{ID: "CO2", URI: "dbr:Carbon_dioxide"},
		Related: []string{"greenhouse gas", "footprint"},
	}}}
	lookup, err := kg.NewStaticLookup(table, model.MatchExact)
	if err != nil {
		t.Fatalf("NewStaticLookup: %v", err)
	}
	return lookup
}

func exampleExplorer(t *testing.T, maxResults int) *Explorer {
	t.Helper()
	provider := corpus.NewMemoryProvider(
		model.Document{Name: "a.txt", Text: "high CO2 levels"},
		model.Document{Name: "b.txt", Text: "CO2 greenhouse gas footprint"},
		model.Document{Name: "c.txt", Text: "unrelated text"},
	)
	cfg := ExplorerConfig{
		Scan:       corpus.ScannerConfig{Window: model.DefaultWindow, Mode: model.ExcerptWindow, Workers: 2},
		MaxResults: maxResults,
	}
	e, err := NewExplorer(provider, exampleLookup(t), cfg, nil)
	if err != nil {
		t.Fatalf("NewExplorer: %v", err)
	}
	return e
}

func TestExplorer_Explore(t *testing.T) {
	exp, err := exampleExplorer(t, 0).Explore(context.Background(), "CO2")
	if err != nil {
		t.Fatalf("Explore: %v", err)
	}

	wantTerms := model.ExpansionSet{"CO2", "greenhouse gas", "footprint"}
	if !reflect.DeepEqual(exp.Terms, wantTerms) {
		t.Errorf("terms = %v, want %v", exp.Terms, wantTerms)
	}

	want := []model.RankedResult{
		{Document: "b.txt", Excerpt: "CO2 greenhouse gas footprint", Score: 3},
		{Document: "a.txt", Excerpt: "high CO2 levels", Score: 1},
	}
	if !reflect.DeepEqual(exp.Results, want) {
		t.Errorf("results = %+v, want %+v", exp.Results, want)
	}

	if exp.Scanned != 3 {
		t.Errorf("scanned = %d, want 3", exp.Scanned)
	}
	if len(exp.Graph.Edges) != 1 || exp.Graph.Edges[0] != (model.Edge{From: "CO2", To: "dbr:Carbon_dioxide"}) {
		t.Errorf("unexpected graph: %+v", exp.Graph)
	}
}

func TestExplorer_MaxResults(t *testing.T) {
	exp, err := exampleExplorer(t, 1).Explore(context.Background(), "CO2")
	if err != nil {
		t.Fatalf("Explore: %v", err)
	}
	if len(exp.Results) != 1 || exp.Results[0].Document != "b.txt" {
		t.Errorf("expected only b.txt, got %+v", exp.Results)
	}
}

func TestExplorer_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "?!"} {
		exp, err := exampleExplorer(t, 0).Explore(context.Background(), q)
		if err != nil {
			t.Fatalf("Explore(%q): %v", q, err)
		}
		if len(exp.Tokens) != 0 || len(exp.Terms) != 0 || len(exp.Results) != 0 {
			t.Errorf("Explore(%q) = %+v, want empty", q, exp)
		}
		if exp.Results == nil || exp.Links == nil {
			t.Errorf("Explore(%q) returned nil slices", q)
		}
	}
}

func TestExplorer_Idempotent(t *testing.T) {
	e := exampleExplorer(t, 0)

	first, err := e.Explore(context.Background(), "CO2 emissions CO2")
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Explore(context.Background(), "CO2 emissions CO2")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("runs differ:\n%+v\n%+v", first, second)
	}
}

type failingProvider struct{}

func (failingProvider) ListDocuments(context.Context) ([]model.Document, error) {
	return nil, errors.New("disk gone")
}

func TestExplorer_Errors(t *testing.T) {
	if _, err := NewExplorer(nil, exampleLookup(t), ExplorerConfig{}, nil); !errors.Is(err, corpus.ErrNilProvider) {
		t.Errorf("expected ErrNilProvider, got %v", err)
	}
	if _, err := NewExplorer(corpus.NewMemoryProvider(), nil, ExplorerConfig{}, nil); !errors.Is(err, kg.ErrNilLookup) {
		t.Errorf("expected ErrNilLookup, got %v", err)
	}

	e, err := NewExplorer(failingProvider{}, exampleLookup(t), ExplorerConfig{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Explore(context.Background(), "CO2"); err == nil || !strings.Contains(err.Error(), "disk gone") {
		t.Errorf("expected provider error, got %v", err)
	}
}

func TestRenderer(t *testing.T) {
	exp, err := exampleExplorer(t, 0).Explore(context.Background(), "CO2")
	if err != nil {
		t.Fatal(err)
	}
	r := NewRenderer()

	var text bytes.Buffer
	if err := r.RenderText(&text, exp); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"=== Semantic Subgraph (node -- uri) ===\nCO2 -- dbr:Carbon_dioxide\n",
		"=== Top Results ===\n\nb.txt:\n  ...CO2 greenhouse gas footprint...\n\na.txt:\n  ...high CO2 levels...\n",
	} {
		if !strings.Contains(text.String(), want) {
			t.Errorf("text output missing %q:\n%s", want, text.String())
		}
	}

	var js bytes.Buffer
	if err := r.RenderJSON(&js, exp); err != nil {
		t.Fatal(err)
	}
	var decoded model.Exploration
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(decoded.Results) != 2 || decoded.Results[0].Score != 3 {
		t.Errorf("unexpected decoded results: %+v", decoded.Results)
	}

	path := filepath.Join(t.TempDir(), "out", "report.md")
	if err := r.WriteFile(path, exp, r.RenderMarkdown); err != nil {
		t.Fatal(err)
	}
	md, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# Exploration: CO2", "- `footprint`", "| CO2 | CO2 | dbr:Carbon_dioxide |", "1. **b.txt** (score 3)"} {
		if !strings.Contains(string(md), want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}

const reportText = "In 2022 our Scope 1 emissions were 1,234 tonnes of CO2. The weather was nice. Emissions fell in the second half!"

func newTestCurator(t *testing.T, generator llm.Provider, cfg CuratorConfig, opts ...CuratorOption) (*Curator, *store.JSONStore, string) {
	t.Helper()

	dir := t.TempDir()
	doc := filepath.Join(dir, "report.txt")
	if err := os.WriteFile(doc, []byte(reportText), 0o644); err != nil {
		t.Fatal(err)
	}

	st, err := store.NewJSONStore(filepath.Join(dir, "outputs", "metadata.json"))
	if err != nil {
		t.Fatal(err)
	}

	lookup, err := kg.NewStaticLookup(kg.DefaultTable(), model.MatchExact)
	if err != nil {
		t.Fatal(err)
	}

	c, err := NewCurator(extract.NewAutoExtractor(), lookup, generator, st, cfg, opts...)
	if err != nil {
		t.Fatalf("NewCurator: %v", err)
	}
	return c, st, doc
}

func fixedNow(t *testing.T) {
	t.Helper()
	orig := nowFunc
	nowFunc = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600)) }
	t.Cleanup(func() { nowFunc = orig })
}

func defaultCuration() CuratorConfig {
	return CuratorConfigFromModel(model.DefaultConfig().Curation)
}

func TestCurator_Curate(t *testing.T) {
	fixedNow(t)
	c, st, doc := newTestCurator(t, llm.NewHeuristicProvider(), defaultCuration())

	record, err := c.Curate(context.Background(), doc)
	if err != nil {
		t.Fatalf("Curate: %v", err)
	}

	if record.Year == nil || *record.Year != 2022 {
		t.Errorf("year = %v, want 2022", record.Year)
	}
	if record.Value == nil || *record.Value != "1,234" {
		t.Errorf("value = %v, want 1,234", record.Value)
	}
	if record.Metric != llm.HeuristicMetric || record.Unit != llm.HeuristicUnit {
		t.Errorf("unexpected metric/unit: %q %q", record.Metric, record.Unit)
	}
	if record.CitedPassage != "In 2022 our Scope 1 emissions were 1,234 tonnes of CO2." {
		t.Errorf("cited passage = %q", record.CitedPassage)
	}
	if !record.CuratorApproved || record.CuratorTimestamp != "2025-03-01T11:00:00Z" {
		t.Errorf("unexpected review fields: %v %q", record.CuratorApproved, record.CuratorTimestamp)
	}
	if record.Summary != "" || record.Tags != nil {
		t.Errorf("enrichment must be off by default: %+v", record)
	}

	for _, id := range []string{"CO2", "Scope 1", "Scope", "emissions"} {
		if record.Facts[id] == "" {
			t.Errorf("missing fact for %q in %v", id, record.Facts)
		}
	}

	records, err := st.Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ID == "" || records[0].ID != record.ID {
		t.Errorf("unexpected stored records: %+v", records)
	}
}

func TestCurator_Enrich(t *testing.T) {
	cfg := defaultCuration()
	cfg.Enrich = true
	c, _, doc := newTestCurator(t, llm.NewHeuristicProvider(), cfg)

	record, err := c.Curate(context.Background(), doc)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(record.Summary, "In 2022 our Scope 1") {
		t.Errorf("unexpected summary %q", record.Summary)
	}
	if len(record.Tags) == 0 {
		t.Error("expected tags")
	}
}

type stubGenerator struct {
	text string
	err  error
}

func (s stubGenerator) Name() string                     { return "stub" }
func (s stubGenerator) IsAvailable(context.Context) bool { return true }
func (s stubGenerator) Generate(context.Context, llm.GenerateRequest) (*llm.GenerateResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.GenerateResponse{Text: s.text, Model: "stub"}, nil
}

func TestCurator_GeneratorOutput(t *testing.T) {
	tests := []struct {
		name      string
		generator stubGenerator
		metric    string
	}{
		{
			name:      "json answer",
			generator: stubGenerator{text: "```json\n{\"year\": 2021, \"metric\": \"Scope 1\", \"value\": 12, \"unit\": \"Mt\", \"cited_passage\": \"x\"}\n```"},
			metric:    "Scope 1",
		},
		{
			name:      "unparseable answer falls back",
			generator: stubGenerator{text: "I cannot help with that."},
			metric:    llm.HeuristicMetric,
		},
		{
			name:      "provider error falls back",
			generator: stubGenerator{err: errors.New("rate limited")},
			metric:    llm.HeuristicMetric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, doc := newTestCurator(t, tt.generator, defaultCuration())
			record, err := c.Curate(context.Background(), doc)
			if err != nil {
				t.Fatalf("Curate: %v", err)
			}
			if record.Metric != tt.metric {
				t.Errorf("metric = %q, want %q", record.Metric, tt.metric)
			}
		})
	}
}

func TestCurator_PromptReviewer(t *testing.T) {
	tests := []struct {
		answer   string
		approved bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.answer), func(t *testing.T) {
			var out bytes.Buffer
			reviewer := NewPromptReviewer(strings.NewReader(tt.answer), &out)
			c, st, doc := newTestCurator(t, llm.NewHeuristicProvider(), defaultCuration(), WithReviewer(reviewer))

			record, err := c.Curate(context.Background(), doc)
			if err != nil {
				t.Fatal(err)
			}
			if record.CuratorApproved != tt.approved {
				t.Errorf("approved = %v, want %v", record.CuratorApproved, tt.approved)
			}
			if !strings.Contains(out.String(), "Approve this record?") {
				t.Errorf("prompt not shown: %q", out.String())
			}

			records, err := st.Load(context.Background())
			if err != nil || len(records) != 1 {
				t.Errorf("expected the record to be stored, got %v %v", records, err)
			}
		})
	}
}

func TestCurator_Errors(t *testing.T) {
	st, err := store.NewJSONStore(filepath.Join(t.TempDir(), "m.json"))
	if err != nil {
		t.Fatal(err)
	}
	gen := llm.NewHeuristicProvider()
	ext := extract.NewAutoExtractor()

	if _, err := NewCurator(nil, nil, gen, st, CuratorConfig{}); !errors.Is(err, ErrNilExtractor) {
		t.Errorf("expected ErrNilExtractor, got %v", err)
	}
	if _, err := NewCurator(ext, nil, nil, st, CuratorConfig{}); !errors.Is(err, ErrNilGenerator) {
		t.Errorf("expected ErrNilGenerator, got %v", err)
	}
	if _, err := NewCurator(ext, nil, gen, nil, CuratorConfig{}); !errors.Is(err, ErrNilStore) {
		t.Errorf("expected ErrNilStore, got %v", err)
	}

	c, err := NewCurator(ext, nil, gen, st, defaultCuration())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Curate(context.Background(), filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("expected error for missing document")
	}
}
