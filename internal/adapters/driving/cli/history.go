package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show query history",
	Long:  `Lists the tenant's past queries, newest first. Use --user to filter by user.`,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of entries")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output entries as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	queries, err := queryService.History(cmd.Context(), tenantID, userID, historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list history: %w", err)
	}

	if historyJSON {
		data, err := json.MarshalIndent(queries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(queries) == 0 {
		cmd.Println("No queries yet.")
		return nil
	}

	for i := range queries {
		q := &queries[i]
		cmd.Printf("  %s  [%s]  %s\n", q.CreatedAt.Format("2006-01-02 15:04"), q.Status, truncateText(q.Question, 80))
		if q.Answer != "" {
			cmd.Printf("      %s\n", truncateText(q.Answer, 100))
		}
		cmd.Printf("      id=%s confidence=%.2f hops=%d took=%s\n", q.ID, q.Confidence, q.HopCount, q.ProcessingTime)
		cmd.Println()
	}

	cmd.Printf("Total: %d queries\n", len(queries))
	return nil
}
