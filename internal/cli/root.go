package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manueljhc/healthcare-data-explorer/internal/dictionary"
	"github.com/manueljhc/healthcare-data-explorer/internal/executor"
	"github.com/manueljhc/healthcare-data-explorer/internal/model"
	"github.com/manueljhc/healthcare-data-explorer/internal/pipeline"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "hdx",
	Short: "hdx - conversational analytics over a global health database",
	Long: `hdx explores aggregated global health data through plain questions or SQL.

Every statement, whether typed by you or proposed by a language model, passes
the same safety validator and runs under the same execution governor: read-only,
time-bounded, row-bounded. Results are classified by column role, paired with a
chart suggestion, and annotated with baseline-aware insights.

hdx never modifies data and never trusts generated SQL.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for hdx.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("hdx v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.hdx/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".hdx"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match HDX_*
	viper.SetEnvPrefix("HDX")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// loadConfig merges defaults, the config file, environment variables, and the
// API key from the environment into a complete configuration.
func loadConfig() *model.Config {
	cfg := model.DefaultConfig()
	// Viper has already read the file and env; unmarshal over the defaults.
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid configuration, using defaults: %v\n", err)
		cfg = model.DefaultConfig()
	}

	if dsn := os.Getenv("HDX_DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if cfg.Cache.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Cache.Dir = filepath.Join(home, ".hdx", "cache")
		}
	}
	cfg.Output.Verbose = cfg.Output.Verbose || verbose
	return cfg
}

// session bundles the backends one command invocation needs.
type session struct {
	cfg  *model.Config
	exec *executor.Executor
	pipe *pipeline.Pipeline
}

// openSession connects to the database and wires the pipeline.
func openSession(ctx context.Context, cfg *model.Config) (*session, error) {
	if cfg.Database.DSN == "" {
		return nil, fmt.Errorf("no database configured: set database.dsn in ~/.hdx/config.yaml or HDX_DATABASE_DSN")
	}

	pool, err := pgxpool.New(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	exec := executor.New(pool, cfg.Database)
	if err := exec.Ping(ctx); err != nil {
		exec.Close()
		return nil, err
	}

	store := dictionary.NewStore(dictionary.NewInspector(pool), cfg.Cache)
	return &session{
		cfg:  cfg,
		exec: exec,
		pipe: pipeline.New(cfg, exec, store),
	}, nil
}

func (s *session) close() {
	s.exec.Close()
}
