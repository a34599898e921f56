package cli

import (
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ansa/internal/adapters/driving/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive chat interface",
	Long: `Chat with your document collection in the terminal.

Controls:
  Enter    ask the typed question
  Up/Down  scroll the transcript
  Tab      toggle source citations
  Esc, q   quit (q only while the input is empty)`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	// A panic inside the alt screen would otherwise vanish with it.
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n%s\n", r, debug.Stack())
		}
	}()

	app, err := tui.NewApp(&tui.Ports{
		Query:    queryService,
		Document: documentService,
	}, tenantID, userID)
	if err != nil {
		return fmt.Errorf("creating TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
