package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"propcal/internal/capture"
	"propcal/internal/view"
)

func newSnapshotCmd() *cobra.Command {
	var (
		opts capture.Options
		out  string
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render the printable calendar of a running server to PNG",
		Long: `snapshot loads /calendar from a running propcal server in headless
Chromium and saves a full-page screenshot once the grid is ready.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return errors.New("--out is required")
			}
			if opts.Span != "" {
				if _, err := view.ParseSpan(opts.Span); err != nil {
					return err
				}
			}
			return capture.SnapshotToFile(cmd.Context(), opts, out)
		},
	}
	cmd.Flags().StringVar(&opts.BaseURL, "url", "http://127.0.0.1:8080", "Base URL of the propcal server")
	cmd.Flags().StringVar(&opts.Date, "date", "", "Anchor date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&opts.Span, "view", "", "day, 3day, week or month (default day)")
	cmd.Flags().StringVar(&opts.Token, "token", "", "API token for the calendar page")
	cmd.Flags().IntVar(&opts.Width, "width", capture.DefaultWidth, "Viewport width")
	cmd.Flags().IntVar(&opts.Height, "height", capture.DefaultHeight, "Viewport height")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", capture.DefaultTimeout, "Give up after this long")
	cmd.Flags().StringVar(&opts.ExecPath, "chrome", "", "Chromium binary (default: search PATH)")
	cmd.Flags().BoolVar(&opts.NoSandbox, "no-sandbox", false, "Run Chromium without its sandbox (containers)")
	cmd.Flags().StringVarP(&out, "out", "o", "calendar.png", "Output PNG path")
	return cmd
}
