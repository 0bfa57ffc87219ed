package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/activearchive/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency   int
	batchPatterns []string
	batchTimeout  time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Curate every matching document of a directory in parallel",
	Long: `Batch curates many documents concurrently:
- Match files in the directory against the curation patterns
- Curate files in parallel with a configurable worker count
- Append one record per document to the shared JSON store
- Report failures per file without stopping the batch

Records are approved automatically; use curate --review for interactive review.

Example:
  activearchive batch ./reports
  activearchive batch ./reports --pattern '*.pdf' --pattern '*.html' --concurrency 8
  activearchive batch ./reports --enrich --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addCurationFlags(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config: CPU count)")
	batchCmd.Flags().StringSliceVar(&batchPatterns, "pattern", nil, "file pattern, repeatable (default *.pdf)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	cfg := *appConfig
	applyCurationFlags(cmd, &cfg)
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	if cmd.Flags().Changed("pattern") {
		cfg.Curation.Patterns = batchPatterns
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	curator, st, err := newCurator(cmd, &cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Active Archives Batch Curation\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input dir:    %s\n", dir)
	fmt.Fprintf(os.Stderr, "  Patterns:     %v\n", cfg.Curation.Patterns)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  LLM:          %s\n", cfg.LLM.Provider)
	fmt.Fprintf(os.Stderr, "  Store:        %s\n", st.Path())
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	fmt.Fprintf(os.Stderr, "\n")

	processor := worker.NewBatchCurator(curator, cfg.Concurrency.Workers)
	results, err := processor.ProcessDir(ctx, dir, cfg.Curation.Patterns)
	if err != nil {
		return fmt.Errorf("process directory: %w", err)
	}

	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%s)\n", result.Path, describeRecordValue(result.Record.Value, result.Record.Unit))
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d files\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Store:     %s\n", st.Path())
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// describeRecordValue formats a record value for progress output
func describeRecordValue(value *string, unit string) string {
	if value == nil {
		return "no value found"
	}
	return *value + " " + unit
}
