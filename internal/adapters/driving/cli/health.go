package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
)

const healthCheckTimeout = 10 * time.Second

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check AI provider connectivity",
	Long: `Probe the configured LLM and embedding providers with a lightweight
request and report whether each is reachable.`,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, _ []string) error {
	if llmProvider == nil && embeddingService == nil {
		return errors.New("no AI providers configured")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), healthCheckTimeout)
	defer cancel()

	healthy := true

	if llmProvider != nil {
		cmd.Printf("LLM (%s): ", llmProvider.ModelName())
		if err := llmProvider.HealthCheck(ctx); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			healthy = false
		} else {
			cmd.Println("OK")
		}
	}

	if embeddingService != nil {
		cmd.Printf("Embedding (%s): ", embeddingService.ModelName())
		if err := embeddingService.HealthCheck(ctx); err != nil {
			cmd.Printf("FAILED: %v\n", err)
			healthy = false
		} else {
			cmd.Println("OK")
		}
	}

	if !healthy {
		cmd.Println("\nRun 'ansa settings wizard' to fix configuration issues.")
		return errors.New("one or more providers are unreachable")
	}

	return nil
}
