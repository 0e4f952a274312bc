package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"propcal/internal/ics"
	appLog "propcal/internal/log"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var (
		out       string
		community bool
	)

	cmd := &cobra.Command{
		Use:   "export-ics",
		Short: "Write the scheduled calendar as an ICS file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := root.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if community {
				if err := a.RefreshCommunity(ctx); err != nil {
					appLog.Warn("community refresh incomplete", "err", err)
				}
			}

			body := ics.Export(a.Store.List(nil), a.Config.Location(), a.Store.Now())
			if out == "" || out == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), body)
				return err
			}
			return writeFile(out, []byte(body))
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "-", "Output path; - writes to stdout")
	cmd.Flags().BoolVar(&community, "community", true, "Refresh community calendars before exporting")
	return cmd
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	appLog.Info("file written", "path", path, "bytes", len(data))
	return nil
}
