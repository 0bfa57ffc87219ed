package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/activearchive/internal/extract"
	"github.com/ppiankov/activearchive/internal/logger"
	"github.com/ppiankov/activearchive/internal/model"
	"github.com/ppiankov/activearchive/internal/pipeline"
	"github.com/ppiankov/activearchive/internal/store"
	"github.com/spf13/cobra"
)

var (
	storePath     string
	keywords      []string
	entities      []string
	maxPassages   int
	llmProvider   string
	llmModel      string
	enrich        bool
	review        bool
	curateTimeout time.Duration
)

// curateCmd represents the curate command
var curateCmd = &cobra.Command{
	Use:   "curate <file>",
	Short: "Curate one document into a metadata record",
	Long: `Curate turns a document into a structured metadata record:
- Extract text (PDF, HTML, Markdown or plain text)
- Select passages that mention the curation keywords
- Add knowledge graph facts for the configured and linked entities
- Generate year, metric, value and unit with the LLM provider
- Optionally add a summary and tags
- Review the record and append it to the JSON store

Example:
  activearchive curate report.pdf
  activearchive curate report.pdf --enrich --review
  activearchive curate report.pdf --llm-provider openai --llm-model gpt-4o-mini`,
	Args: cobra.ExactArgs(1),
	RunE: runCurate,
}

func init() {
	rootCmd.AddCommand(curateCmd)
	addCurationFlags(curateCmd)
	curateCmd.Flags().BoolVar(&review, "review", false, "review the record interactively before storing")
	curateCmd.Flags().DurationVar(&curateTimeout, "timeout", 2*time.Minute, "overall timeout")
}

// addCurationFlags registers the flags shared by curate and batch
func addCurationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&storePath, "store", "", "metadata store path (default from config: outputs/metadata.json)")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "passage keywords (default: CO2, Scope 1, emissions)")
	cmd.Flags().StringSliceVar(&entities, "entities", nil, "entities always described (default: CO2, Scope 1)")
	cmd.Flags().IntVar(&maxPassages, "max-passages", 5, "maximum passages in the prompt")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "heuristic", "LLM provider (heuristic, openai, anthropic, ollama)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name")
	cmd.Flags().BoolVar(&enrich, "enrich", false, "generate a summary and tags")
	cmd.Flags().StringVar(&kgTable, "kg-table", "", "YAML entity table (default: built-in ESG table)")
	cmd.Flags().StringVar(&kgURL, "kg-url", "", "remote entity lookup service")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the lookup cache")
}

// applyCurationFlags copies explicitly set flags over the loaded config
func applyCurationFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("store") {
		cfg.Curation.Store = storePath
	}
	if flags.Changed("keywords") {
		cfg.Curation.Keywords = keywords
	}
	if flags.Changed("entities") {
		cfg.Curation.Entities = entities
	}
	if flags.Changed("max-passages") {
		cfg.Curation.MaxPassages = maxPassages
	}
	if flags.Changed("llm-provider") {
		cfg.LLM.Provider = llmProvider
	}
	if flags.Changed("llm-model") {
		cfg.LLM.Model = llmModel
	}
	if enrich {
		cfg.Curation.Enrich = true
	}
	if flags.Changed("kg-table") {
		cfg.KG.Table = kgTable
	}
	if flags.Changed("kg-url") {
		cfg.KG.URL = kgURL
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
}

// newCurator builds a curator and its store from the config
func newCurator(cmd *cobra.Command, cfg *model.Config, opts ...pipeline.CuratorOption) (*pipeline.Curator, *store.JSONStore, error) {
	log := logger.FromContext(cmd.Context())

	lookup, err := buildLookup(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	generator, err := buildGenerator(cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("init LLM provider: %w", err)
	}

	st, err := store.NewJSONStore(cfg.Curation.Store)
	if err != nil {
		return nil, nil, err
	}

	opts = append(opts, pipeline.WithCuratorLogger(log))
	curator, err := pipeline.NewCurator(extract.NewAutoExtractor(), lookup, generator, st,
		pipeline.CuratorConfigFromModel(cfg.Curation), opts...)
	if err != nil {
		return nil, nil, err
	}

	return curator, st, nil
}

func runCurate(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg := *appConfig
	applyCurationFlags(cmd, &cfg)
	if review {
		cfg.Curation.AutoApprove = false
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), curateTimeout)
	defer cancel()

	var opts []pipeline.CuratorOption
	if !cfg.Curation.AutoApprove {
		opts = append(opts, pipeline.WithReviewer(pipeline.NewPromptReviewer(os.Stdin, os.Stderr)))
	}

	curator, st, err := newCurator(cmd, &cfg, opts...)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Curating: %s\n", file)
		fmt.Fprintf(os.Stderr, "LLM:      %s\n", cfg.LLM.Provider)
		fmt.Fprintf(os.Stderr, "Store:    %s\n", st.Path())
		fmt.Fprintln(os.Stderr)
	}

	record, err := curator.Curate(ctx, file)
	if err != nil {
		return fmt.Errorf("curate failed: %w", err)
	}

	status := "approved"
	if !record.CuratorApproved {
		status = "rejected"
	}
	fmt.Fprintf(os.Stderr, "✓ Metadata appended to %s (%s, id %s)\n", st.Path(), status, record.ID)

	return nil
}
