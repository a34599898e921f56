// Package cli provides the cobra-based command line interface.
// Commands talk to the core exclusively through driving ports; services
// are injected once at startup via SetServices.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ansa/internal/core/ports/driven"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
	"github.com/custodia-labs/ansa/internal/logger"
)

// version is overridden at build time via -ldflags.
var version = "dev"

// Persistent flags shared by all commands.
var (
	verbose  bool
	tenantID string
	userID   string
)

// Injected services. Nil services cause the commands that need them to
// fail with a clear message instead of panicking.
var (
	queryService     driving.QueryService
	documentService  driving.DocumentService
	settingsService  driving.SettingsService
	llmProvider      driven.LLMProvider
	embeddingService driven.EmbeddingService
)

// Services aggregates everything the CLI commands depend on.
type Services struct {
	Query    driving.QueryService
	Document driving.DocumentService
	Settings driving.SettingsService

	// LLM and Embedding are the live provider handles, used by the
	// health command for connectivity probes.
	LLM       driven.LLMProvider
	Embedding driven.EmbeddingService
}

// SetServices injects the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		return
	}
	queryService = s.Query
	documentService = s.Document
	settingsService = s.Settings
	llmProvider = s.LLM
	embeddingService = s.Embedding
}

var rootCmd = &cobra.Command{
	Use:   "ansa",
	Short: "Question answering over your documents",
	Long: `Ansa answers questions over a tenant's document collection using
retrieval-augmented generation. Simple questions take a single
retrieve-and-generate pass; harder ones are routed through
self-consistency sampling or multi-hop decomposition.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&tenantID, "tenant", "default", "tenant scope for all operations")
	rootCmd.PersistentFlags().StringVar(&userID, "user", "", "user identifier recorded in query history")
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
