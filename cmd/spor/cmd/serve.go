package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/spor/internal/mcp"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve anchors to AI clients over MCP",
		Long: `Run a Model Context Protocol server on stdin/stdout for the enclosing
repository. Logs go to ~/.local/state/spor/logs/spor.log because stdout
carries the protocol.`,
		Example: `  # Register with an MCP client
  {"command": "spor", "args": ["serve"], "cwd": "/path/to/project"}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			server, err := mcp.NewServer(ws)
			if err != nil {
				return err
			}
			return server.Serve(cmd.Context())
		},
	}
}
