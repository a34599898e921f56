package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/ansa/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol integration",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the query pipeline over MCP",
	Long: `Expose question answering and document listings to MCP clients.

Without flags the server speaks JSON-RPC over stdio, which is how Claude
Desktop and similar assistants launch it. Pass --port to serve streamable
HTTP instead, for the MCP Inspector or remote clients.

Examples:
  ansa mcp serve              # stdio, for assistant configs
  ansa mcp serve --port 8080  # HTTP, for the MCP Inspector

Claude Desktop configuration (claude_desktop_config.json):
  {
    "mcpServers": {
      "ansa": {
        "command": "/path/to/ansa",
        "args": ["mcp", "serve"]
      }
    }
  }`,
	RunE: runMCPServe,
}

var mcpPort int

func init() {
	mcpServeCmd.Flags().IntVarP(&mcpPort, "port", "p", 0, "HTTP port (0 = use stdio)")
	mcpCmd.AddCommand(mcpServeCmd)
	rootCmd.AddCommand(mcpCmd)
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Query:    queryService,
		Document: documentService,
	})
	if err != nil {
		return err
	}

	if mcpPort > 0 {
		addr := fmt.Sprintf(":%d", mcpPort)
		fmt.Fprintf(cmd.OutOrStdout(), "MCP server listening on http://localhost%s\n", addr)
		return server.RunHTTP(cmd.Context(), addr)
	}
	return server.Run(cmd.Context())
}
