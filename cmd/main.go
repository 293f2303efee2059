package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"usage-mail-llm/internal/config"
	"usage-mail-llm/internal/llm"
	"usage-mail-llm/internal/logging"
	"usage-mail-llm/internal/models"

	"github.com/spf13/cobra"
)

var (
	configPath string
	cfg        *models.Config
)

var rootCmd = &cobra.Command{
	Use:           "usage-mail-llm",
	Short:         "Local LLM tools: usage report inbox monitor, direct prompts and document Q&A",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("error reading configuration file: %w", err)
		}
		logging.Configure(loaded.Logging.Level, loaded.Logging.Format)
		cfg = loaded
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.AddCommand(
		newMonitorCmd(),
		newAskCmd(),
		newChatCmd(),
		newRAGCmd(),
		newReportCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		logging.Log.Fatalf("%v", err)
	}
}

// newLLMClient builds the Ollama client of the mail tools, model overrides llm.model when set
func newLLMClient(model string) (*llm.OllamaClient, error) {
	if model == "" {
		model = cfg.LLM.Model
	}
	return llm.NewOllamaClient(cfg.LLM.Host, model, cfg.LLM.Temperature, cfg.LLM.Timeout)
}
