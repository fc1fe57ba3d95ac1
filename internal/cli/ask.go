package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	askTimeout     time.Duration
	conversationID string
	llmProvider    string
	llmModel       string
	outputFormat   string
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question in plain language",
	Long: `Ask translates a natural-language question into SQL, validates it, runs it
under the execution governor, and presents the result with a chart suggestion
and baseline-aware insights.

The generated SQL is never trusted: it passes the same safety validator as SQL
typed directly.

Example:
  hdx ask "How did malaria deaths trend in Kenya since 2018?"
  hdx ask "Which countries have the lowest measles vaccination coverage?" --format markdown`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "overall turn timeout including translation")
	askCmd.Flags().StringVar(&conversationID, "conversation", "default", "conversation id (a new query supersedes the previous one in the same conversation)")
	askCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "translation provider")
	askCmd.Flags().StringVar(&llmModel, "llm-model", "", "translation model (default from config)")
	askCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "output format (table, csv, json, markdown)")
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), askTimeout)
	defer cancel()

	cfg := loadConfig()
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}
	cfg.LLM.Provider = llmProvider
	if llmModel != "" {
		cfg.LLM.Model = llmModel
	}
	// Get API key from environment
	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic":
		cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.LLM.BaseURL = baseURL
		}
	}

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.close()

	if verbose {
		fmt.Fprintf(os.Stderr, "Question: %s\n", question)
		fmt.Fprintf(os.Stderr, "Conversation: %s\n\n", conversationID)
	}

	report, err := sess.pipe.Ask(ctx, conversationID, question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	return renderReport(os.Stdout, report, cfg)
}
