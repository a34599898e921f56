package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ansa/internal/core/domain"
	"github.com/custodia-labs/ansa/internal/core/ports/driving"
)

var (
	askStrategy string
	askCoT      bool
	askSamples  int
	askMaxHops  int
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over the tenant's documents",
	Long: `Answers a question using retrieval-augmented generation.

The planner classifies the question's complexity and picks a strategy:
  single_hop       - one retrieve-and-generate pass (simple questions)
  self_consistency - several sampled reasoning traces with majority voting
  multi_hop        - sequential sub-question decomposition

Use --strategy to override the planner's choice.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askStrategy, "strategy", "s", "", "force a strategy (single_hop, self_consistency, multi_hop)")
	askCmd.Flags().BoolVar(&askCoT, "cot", false, "request chain-of-thought prompting")
	askCmd.Flags().IntVar(&askSamples, "samples", 0, "self-consistency sample count override")
	askCmd.Flags().IntVar(&askMaxHops, "max-hops", 0, "multi-hop decomposition ceiling override")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	req := driving.QueryRequest{
		TenantID: tenantID,
		UserID:   userID,
		Question: args[0],
		Options: domain.QueryOptions{
			ForceStrategy: domain.Strategy(askStrategy),
			UseCoT:        askCoT,
			SampleCount:   askSamples,
			MaxHops:       askMaxHops,
		},
	}

	resp, err := queryService.Answer(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAskJSON(cmd, resp)
	}
	return outputAskText(cmd, resp)
}

func outputAskJSON(cmd *cobra.Command, resp domain.Response) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAskText(cmd *cobra.Command, resp domain.Response) error {
	if resp.IsError() {
		cmd.Printf("Error (%s): %s\n", resp.ErrorType, resp.Error)
		return nil
	}

	cmd.Println(resp.Answer)
	cmd.Println()
	cmd.Printf("Confidence: %.2f    Strategy: %s", resp.Confidence, resp.Strategy)
	if resp.HopCount > 0 {
		cmd.Printf("    Hops: %d", resp.HopCount)
	}
	if resp.AgreementScore > 0 {
		cmd.Printf("    Agreement: %.2f", resp.AgreementScore)
	}
	cmd.Println()

	if resp.Degraded {
		cmd.Println("Warning: answer is degraded; some steps failed.")
	}

	if len(resp.Sources) > 0 {
		cmd.Println("\nSources:")
		for i, src := range resp.Sources {
			excerpt := src.Snippet
			if excerpt == "" {
				excerpt = truncateText(src.Text, 120)
			}
			cmd.Printf("  [%d] %s (%.2f)\n", i+1, src.DocumentID, src.Score)
			if excerpt != "" {
				cmd.Printf("      %s\n", excerpt)
			}
		}
	}

	if verbose && len(resp.ReasoningTraces) > 0 {
		cmd.Println("\nReasoning traces:")
		for _, trace := range resp.ReasoningTraces {
			cmd.Printf("  %s (vote %.2f): %s\n", trace.TraceID, trace.VoteScore, truncateText(trace.Answer, 100))
		}
	}

	return nil
}

// truncateText shortens text to at most n runes on a word boundary.
func truncateText(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	cut := string(runes[:n])
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
