package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/activearchive/internal/corpus"
	"github.com/ppiankov/activearchive/internal/kg"
	"github.com/ppiankov/activearchive/internal/logger"
	"github.com/ppiankov/activearchive/internal/model"
	"github.com/ppiankov/activearchive/internal/pipeline"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	corpusDir      string
	corpusGlobs    []string
	window         int
	excerptMode    string
	maxResults     int
	outJSON        string
	outMD          string
	kgTable        string
	kgURL          string
	matchPolicy    string
	noCache        bool
	exploreTimeout time.Duration
	corpusURLs     []string
	urlFile        string
)

// exploreCmd represents the explore command
var exploreCmd = &cobra.Command{
	Use:   "explore <query>",
	Short: "Expand a query through the knowledge graph and rank matching documents",
	Long: `Explore runs a query through the retrieval pipeline:
- Tokenize the query
- Link tokens to knowledge graph entities
- Expand the query with related terms
- Scan the corpus for the expanded terms
- Rank the excerpts by term occurrences
- Print the semantic subgraph and the top results

Example:
  activearchive explore "CO2 emissions"
  activearchive explore "Scope 1" --corpus ./reports --glob '*.txt' --glob '*.pdf'
  activearchive explore "CO2" --kg-url http://localhost:8080 --json out.json
  activearchive explore "GHG" --url https://example.com/esg-report.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExplore,
}

func init() {
	rootCmd.AddCommand(exploreCmd)

	// Corpus flags
	exploreCmd.Flags().StringVar(&corpusDir, "corpus", "", "corpus directory (default from config: data)")
	exploreCmd.Flags().StringSliceVar(&corpusGlobs, "glob", nil, "corpus glob pattern, repeatable (default *.txt)")
	exploreCmd.Flags().StringSliceVar(&corpusURLs, "url", nil, "remote corpus document URL, repeatable")
	exploreCmd.Flags().StringVar(&urlFile, "url-file", "", "file with one corpus URL per line")

	// Scan flags
	exploreCmd.Flags().IntVar(&window, "window", model.DefaultWindow, "characters kept on each side of a match")
	exploreCmd.Flags().StringVar(&excerptMode, "excerpt", string(model.ExcerptWindow), "excerpt mode: window or prefix")
	exploreCmd.Flags().IntVar(&maxResults, "max-results", 0, "maximum number of results (0 = all)")

	// Output flags
	exploreCmd.Flags().StringVar(&outJSON, "json", "", "write the exploration as JSON to this path (- for stdout)")
	exploreCmd.Flags().StringVar(&outMD, "md", "", "write a Markdown report to this path")

	// Knowledge graph flags
	exploreCmd.Flags().StringVar(&kgTable, "kg-table", "", "YAML entity table (default: built-in ESG table)")
	exploreCmd.Flags().StringVar(&kgURL, "kg-url", "", "remote entity lookup service")
	exploreCmd.Flags().StringVar(&matchPolicy, "match", string(model.MatchExact), "entity match policy: exact or substring")
	exploreCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the lookup cache")
	exploreCmd.Flags().DurationVar(&exploreTimeout, "timeout", 2*time.Minute, "overall timeout")
}

func runExplore(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	log := logger.FromContext(cmd.Context())

	cfg := *appConfig
	applyExploreFlags(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	urls := corpusURLs
	if urlFile != "" {
		fromFile, err := corpus.ReadURLList(urlFile)
		if err != nil {
			return err
		}
		urls = append(urls, fromFile...)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), exploreTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Query:   %s\n", query)
		if len(urls) > 0 {
			fmt.Fprintf(os.Stderr, "Corpus:  %d URLs\n", len(urls))
		} else {
			fmt.Fprintf(os.Stderr, "Corpus:  %s %v\n", cfg.Corpus.Dir, cfg.Corpus.Patterns)
		}
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", exploreTimeout)
		fmt.Fprintln(os.Stderr)
	}

	lookup, err := buildLookup(&cfg, log)
	if err != nil {
		return err
	}

	explorer, err := pipeline.NewExplorer(buildProvider(&cfg, urls, log), lookup, pipeline.ExplorerConfigFromModel(&cfg), log)
	if err != nil {
		return err
	}

	exp, err := explorer.Explore(ctx, query)
	if err != nil {
		return fmt.Errorf("explore failed: %w", err)
	}

	log.Debug("exploration finished",
		zap.Int("scanned", exp.Scanned),
		zap.Int("results", len(exp.Results)))
	if cached, ok := lookup.(*kg.CachedLookup); ok {
		if stats, ok := cached.Stats(); ok {
			log.Debug("lookup cache", zap.Int64("hits", stats.Hits), zap.Int64("misses", stats.Misses))
		}
	}

	renderer := pipeline.NewRenderer()

	if outJSON == "-" {
		return renderer.RenderJSON(os.Stdout, exp)
	}

	if err := renderer.RenderText(os.Stdout, exp); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	if outJSON != "" {
		if err := renderer.WriteFile(outJSON, exp, renderer.RenderJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", outJSON)
	}

	if outMD != "" {
		if err := renderer.WriteFile(outMD, exp, renderer.RenderMarkdown); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", outMD)
	}

	return nil
}

// applyExploreFlags copies explicitly set flags over the loaded config
func applyExploreFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("corpus") {
		cfg.Corpus.Dir = corpusDir
	}
	if flags.Changed("glob") {
		cfg.Corpus.Patterns = corpusGlobs
	}
	if flags.Changed("window") {
		cfg.Scan.Window = window
	}
	if flags.Changed("excerpt") {
		cfg.Scan.ExcerptMode = model.ExcerptMode(excerptMode)
	}
	if flags.Changed("max-results") {
		cfg.Explore.MaxResults = maxResults
	}
	if flags.Changed("kg-table") {
		cfg.KG.Table = kgTable
	}
	if flags.Changed("kg-url") {
		cfg.KG.URL = kgURL
	}
	if flags.Changed("match") {
		cfg.KG.MatchPolicy = model.MatchPolicy(matchPolicy)
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
}
