// Package cli holds the propcal command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"propcal/internal/app"
	"propcal/internal/config"
	appLog "propcal/internal/log"
)

const version = "0.3.0"

type rootOptions struct {
	configPath string
	debug      bool
}

// NewRootCmd builds the command tree. Each call returns fresh flag state.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "propcal",
		Short: "Scheduling core for residential property management",
		Long: `propcal keeps one calendar of work orders, messages, lease
renewals and community events for a property, finds open slots, and
serves the result over HTTP, MCP and ICS.

Run 'propcal help <command>' for more information on a command.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Path to config file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newServeCmd(opts),
		newSlotCmd(),
		newExportCmd(opts),
		newSnapshotCmd(),
		newMCPCmd(opts),
	)
	return cmd
}

// Execute runs the command tree against os.Args.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// loadConfig reads the config and applies the --debug override.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.debug {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func (o *rootOptions) openApp(ctx context.Context) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", o.configPath)
		return nil, err
	}
	return app.New(ctx, cfg)
}
