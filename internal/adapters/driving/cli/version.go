package cli

import "github.com/spf13/cobra"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the ansa version",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("ansa version %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
