package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var queryTimeout time.Duration

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query <sql>",
	Short: "Run a SQL query under the execution governor",
	Long: `Query validates and executes a SQL statement directly, without translation.

The statement must be a single read-only SELECT against known tables. A missing
row bound is added automatically; an oversized one is clamped.

Example:
  hdx query "SELECT country, SUM(deaths) FROM disease_burden WHERE year = 2022 GROUP BY country"
  hdx query "SELECT * FROM immunization_coverage" --format csv`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().DurationVar(&queryTimeout, "timeout", time.Minute, "overall command timeout")
	queryCmd.Flags().StringVar(&conversationID, "conversation", "default", "conversation id (a new query supersedes the previous one in the same conversation)")
	queryCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (table, csv, json, markdown)")
}

func runQuery(cmd *cobra.Command, args []string) error {
	sql := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	cfg := loadConfig()
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.close()

	report, err := sess.pipe.RunSQL(ctx, conversationID, sql)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	return renderReport(os.Stdout, report, cfg)
}
