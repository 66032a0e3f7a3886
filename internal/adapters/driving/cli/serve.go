package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/clausewise/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/clausewise/internal/adapters/driving/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start a JSON HTTP API over the policy operations.

Routes:
  GET    /healthz
  GET    /api/v1/sessions
  POST   /api/v1/sessions               {"ref": "..."} or multipart "file"
  GET    /api/v1/sessions/:id
  DELETE /api/v1/sessions/:id
  GET    /api/v1/sessions/:id/clauses
  GET    /api/v1/sessions/:id/terms
  POST   /api/v1/sessions/:id/analysis
  POST   /api/v1/sessions/:id/query     {"query": "...", "k": 5}
  GET    /api/v1/sessions/:id/report

With --mcp the streamable MCP endpoint is also mounted at /mcp.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", httpapi.DefaultAddr, "Listen address")
	serveCmd.Flags().Bool("mcp", false, "Also serve MCP at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := requirePolicy(); err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	withMCP, _ := cmd.Flags().GetBool("mcp")

	var opts []httpapi.Option
	if withMCP {
		mcpServer, err := mcp.NewServer(&mcp.Ports{Policy: policyService})
		if err != nil {
			return err
		}
		opts = append(opts, httpapi.WithMCPHandler(mcpServer.Handler()))
	}

	server, err := httpapi.NewServer(policyService, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "HTTP API listening on http://%s\n", addr)
	return server.Run(cmd.Context(), addr)
}
