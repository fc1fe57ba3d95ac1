package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// validateCmd represents the validate command
var validateCmd = &cobra.Command{
	Use:   "validate <sql>",
	Short: "Check a SQL statement without executing it",
	Long: `Validate runs a statement through the safety validator only: read-only check,
single-statement check, function denylist, known-table check, and row-bound
normalization. Nothing is executed.

Example:
  hdx validate "SELECT country, deaths FROM disease_burden LIMIT 50"`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := loadConfig()
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.close()

	verdict, err := sess.pipe.Validate(ctx, args[0])
	if err != nil {
		return err
	}

	if !verdict.Accepted {
		fmt.Fprintf(os.Stdout, "REJECTED: %s\n", rejectionText(verdict.Reason))
		if verdict.Detail != "" {
			fmt.Fprintf(os.Stdout, "  %s\n", verdict.Detail)
		}
		os.Exit(1)
	}

	fmt.Fprintln(os.Stdout, "OK")
	fmt.Fprintf(os.Stdout, "Normalized: %s\n", verdict.Normalized)
	switch {
	case verdict.Injected:
		fmt.Fprintln(os.Stdout, "Note: a row bound was added")
	case verdict.Clamped:
		fmt.Fprintln(os.Stdout, "Note: the row bound was clamped to the configured limit")
	}
	return nil
}
