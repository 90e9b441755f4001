package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/mcp"
	"github.com/felixgeelhaar/spacecheck/internal/infrastructure/wiring"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server (stdio by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		httpAddr, _ := cmd.Flags().GetString("http")

		cwd, _ := os.Getwd()
		engine, err := wiring.BuildEngine(cwd)
		if err != nil {
			return err
		}

		server := mcp.NewServer(engine.Orchestrator, engine.Analyzer, engine.Optimizer, engine.Store, engine.Fetcher, engine.Repo)

		if httpAddr != "" {
			return server.ServeHTTP(cmd.Context(), httpAddr)
		}
		return server.ServeStdio(cmd.Context())
	},
}

func init() {
	mcpCmd.Flags().String("http", "", "Serve MCP over HTTP on this address instead of stdio")
	RootCmd.AddCommand(mcpCmd)
}
