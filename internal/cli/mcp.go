package cli

import (
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	appLog "propcal/internal/log"
)

func newMCPCmd(root *rootOptions) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the scheduling tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := root.openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			appLog.Info("serving MCP on stdio", "actor", actor)
			return server.ServeStdio(a.MCP(actor).MCPServer())
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "Name recorded on timeline entries (default Assistant)")
	return cmd
}
