package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/manueljhc/healthcare-data-explorer/internal/dictionary"
)

var (
	dictFormat  string
	dictRefresh bool
)

// dictionaryCmd represents the dictionary command
var dictionaryCmd = &cobra.Command{
	Use:   "dictionary",
	Short: "Show the data dictionary",
	Long: `Dictionary prints the schema artifact shared by every component: table and
column metadata, descriptions, sample values, and row counts. Generated from
the live database on first use and cached afterwards.

Example:
  hdx dictionary
  hdx dictionary --format json
  hdx dictionary --refresh`,
	RunE: runDictionary,
}

func init() {
	rootCmd.AddCommand(dictionaryCmd)

	dictionaryCmd.Flags().StringVarP(&dictFormat, "format", "f", "markdown", "output format (markdown, json, llm)")
	dictionaryCmd.Flags().BoolVar(&dictRefresh, "refresh", false, "regenerate from the live database, ignoring the cache")
}

func runDictionary(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := loadConfig()
	if cfg.Database.DSN == "" {
		return fmt.Errorf("no database configured: set database.dsn in ~/.hdx/config.yaml or HDX_DATABASE_DSN")
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	store := dictionary.NewStore(dictionary.NewInspector(pool), cfg.Cache)

	var dict *dictionary.Dictionary
	if dictRefresh {
		dict, err = store.Refresh(ctx)
	} else {
		dict, err = store.Get(ctx)
	}
	if err != nil {
		return err
	}

	switch dictFormat {
	case "json":
		data, err := dict.MarshalBinary()
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(data))
	case "llm":
		fmt.Fprint(os.Stdout, dict.LLMContext())
	default:
		fmt.Fprint(os.Stdout, dict.Markdown())
	}
	return nil
}
