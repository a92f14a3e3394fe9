package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tazhate/trackbot/internal/scheduler"
)

func newSyncCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Keep reminders refreshed until interrupted",
		Long: `Run the refresh job on REFRESH_SCHEDULE. With the local backend the
promote job also runs on PROMOTE_SCHEDULE, turning due reminders pending.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := a.open(ctx); err != nil {
				return err
			}

			sched := scheduler.New(a.cfg, a.coord, a.logger)
			if a.localReminders != nil {
				sched.SetPromoter(a.localReminders)
			}

			err := sched.Start(ctx)
			sched.Stop()
			if err != nil && ctx.Err() == nil {
				return err
			}
			a.logger.Info("shutting down")
			return nil
		},
	}
}
