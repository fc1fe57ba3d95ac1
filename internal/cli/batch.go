package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/manueljhc/healthcare-data-explorer/internal/export"
	"github.com/manueljhc/healthcare-data-explorer/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Run multiple SQL statements from a file in parallel",
	Long: `Batch reads SQL statements from a file (one per line) and runs them
concurrently with a configurable worker count. Each statement is validated and
governed exactly like an interactive query, and each gets its own conversation
so they never supersede one another.

Results are written to the output directory, one file per statement.

Example:
  hdx batch queries.sql
  hdx batch queries.sql --concurrency 4 --output-dir ./results --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./hdx-results", "output directory for results")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().StringVarP(&outputFormat, "format", "f", "csv", "output format for result files (csv, json, markdown)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	cfg := loadConfig()
	format, err := export.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.close()

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Input file:  %s\n", file)
	fmt.Fprintf(os.Stderr, "Workers:     %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "Output dir:  %s\n\n", outputDir)

	processor := worker.NewBatchProcessor(sess.pipe, concurrency)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0
	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "FAIL query %d: %v\n", result.Index+1, result.Error)
			continue
		}
		if result.Report.Rejected() {
			failureCount++
			fmt.Fprintf(os.Stderr, "REJECTED query %d: %s\n", result.Index+1, rejectionText(result.Report.Verdict.Reason))
			continue
		}

		path := filepath.Join(outputDir, fmt.Sprintf("query-%03d.%s", result.Index+1, extension(format)))
		f, err := os.Create(path)
		if err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "FAIL query %d: write result: %v\n", result.Index+1, err)
			continue
		}
		writeErr := export.Write(f, result.Report.Result, format)
		closeErr := f.Close()
		if writeErr != nil || closeErr != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "FAIL query %d: write result: %v\n", result.Index+1, writeErr)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "OK query %d: %d rows -> %s\n", result.Index+1, len(result.Report.Result.Rows), path)
	}

	fmt.Fprintf(os.Stderr, "\nTotal: %d, success: %d, failures: %d\n", len(results), successCount, failureCount)
	if failureCount > 0 {
		return fmt.Errorf("%d of %d statements failed", failureCount, len(results))
	}
	return nil
}

func extension(format export.Format) string {
	switch format {
	case export.FormatJSON:
		return "json"
	case export.FormatMarkdown:
		return "md"
	default:
		return "csv"
	}
}
