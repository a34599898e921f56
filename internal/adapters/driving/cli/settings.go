package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/ansa/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, retrieval parameters, and other options.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure AI providers step by step.`,
	RunE:  runSettingsWizard,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider used for answer generation and query decomposition.`,
	RunE:  runSettingsLLM,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider used for retrieval.`,
	RunE:  runSettingsEmbedding,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// LLM settings
	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.Provider.IsLocal() && settings.LLM.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		if settings.LLM.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.LLM.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	if settings.LLM.RequestsPerSecond > 0 {
		cmd.Printf("  Rate Limit: %.1f req/s\n", settings.LLM.RequestsPerSecond)
	}
	status := "configured"
	if !settings.LLM.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	// Embedding settings
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	if settings.Embedding.Provider.IsLocal() && settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status = "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	// Planner settings
	cmd.Println("[Planner]")
	cmd.Printf("  Max Hops: %d\n", settings.Planner.MaxHops)
	cmd.Printf("  Complexity Thresholds: medium >= %d, complex >= %d\n",
		settings.Planner.MediumThreshold, settings.Planner.ComplexThreshold)
	cmd.Println()

	// Retrieval settings
	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Top N: %d\n", settings.Retrieval.TopN)
	cmd.Printf("  Similarity Threshold: %.2f\n", settings.Retrieval.SimilarityThreshold)
	cmd.Println()

	// Self-consistency settings
	cmd.Println("[Consistency]")
	cmd.Printf("  Samples: %d (max %d)\n", settings.Consistency.Samples, settings.Consistency.MaxSamples)
	cmd.Printf("  Temperature: %.2f + %.2f per sample\n",
		settings.Consistency.BaseTemperature, settings.Consistency.TemperatureStep)
	cmd.Println()

	if !settings.LLM.IsConfigured() || !settings.Embedding.IsConfigured() {
		cmd.Println("Run 'ansa settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Println("Ansa Settings Wizard")
	cmd.Println("====================")
	cmd.Println()

	reader := bufio.NewReader(os.Stdin)

	// Step 1: LLM Provider
	cmd.Println("Step 1: Configure LLM Provider")
	cmd.Println("------------------------------")
	cmd.Println("The LLM generates answers and decomposes complex questions.")
	cmd.Println()

	if err := configureLLMProvider(cmd, reader); err != nil {
		return err
	}

	// Step 2: Embedding Provider
	cmd.Println("Step 2: Configure Embedding Provider")
	cmd.Println("------------------------------------")
	cmd.Println("The embedding provider powers semantic retrieval over your documents.")
	cmd.Println()

	if err := configureEmbeddingProvider(cmd, reader); err != nil {
		return err
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	cmd.Println("All settings are valid and saved.")

	return nil
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)
	return configureLLMProvider(cmd, reader)
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)
	return configureEmbeddingProvider(cmd, reader)
}

// providerFlow parametrises the interactive provider setup so the LLM
// and embedding steps share one prompt sequence.
type providerFlow struct {
	label     string
	providers []domain.AIProvider
	defaults  map[domain.AIProvider]string
	save      func(provider domain.AIProvider, model, apiKey string) error
	validate  func() error
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	return configureProvider(cmd, reader, providerFlow{
		label:     "LLM",
		providers: domain.AllLLMProviders(),
		defaults:  domain.DefaultLLMModels(),
		save:      settingsService.SetLLMProvider,
		validate:  settingsService.ValidateLLMConfig,
	})
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	return configureProvider(cmd, reader, providerFlow{
		label:     "Embedding",
		providers: domain.AllEmbeddingProviders(),
		defaults:  domain.DefaultEmbeddingModels(),
		save:      settingsService.SetEmbeddingProvider,
		validate:  settingsService.ValidateEmbeddingConfig,
	})
}

func configureProvider(cmd *cobra.Command, reader *bufio.Reader, flow providerFlow) error {
	cmd.Printf("Select %s Provider\n", flow.label)
	for i, p := range flow.providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	choice := parseChoice(readLine(reader), len(flow.providers), 1)
	provider := flow.providers[choice-1]

	defaultModel := flow.defaults[provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	var apiKey string
	if provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := flow.save(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", flow.label, err)
	}

	// Ping the freshly configured provider before declaring success.
	cmd.Print("Validating configuration... ")
	if err := flow.validate(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("%s configuration validation failed: %w", flow.label, err)
	}
	cmd.Println("OK")

	cmd.Printf("%s provider configured: %s (%s)\n\n", flow.label, provider.Description(), model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
