package cli

import (
	"github.com/spf13/cobra"

	appLog "propcal/internal/log"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with the background jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := root.openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			// CLI --listen overrides the config file.
			if listen != "" {
				a.Config.Listen = listen
			}
			appLog.Info("effective config",
				"listen", a.Config.Listen,
				"timezone", a.Config.Timezone,
				"week_start", a.Config.WeekStart,
				"day_boundary", a.Config.DayBoundary,
				"overdue_sweep", a.Config.OverdueSweep,
				"community_refresh", a.Config.CommunityRefresh,
				"ics_count", len(a.Config.CommunityCalendars),
			)

			srv, err := a.Server()
			if err != nil {
				return err
			}

			if err := a.RefreshCommunity(ctx); err != nil {
				appLog.Warn("initial community refresh incomplete", "err", err)
			}
			a.SweepOverdue()

			sched := a.Scheduler(ctx)
			sched.Start()
			defer func() {
				<-sched.Stop().Done()
			}()

			if err := srv.ListenAndServe(ctx); err != nil {
				return err
			}
			appLog.Info("propcal exiting")
			return nil
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config if set)")
	return cmd
}
