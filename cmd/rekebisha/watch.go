package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jkaninda/rekebisha/internal/scheduler"
)

var watchSchedule string

var watchCmd = &cobra.Command{
	Use:   "watch <target-dir>",
	Short: "Re-run remediation on a cron schedule until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shared, err := initShared(ctx)
		if err != nil {
			return err
		}
		defer shared.Cleanup(context.Background())

		sched := scheduler.New(shared.Logger)
		err = sched.Add(ctx, watchSchedule, func(ctx context.Context) error {
			_, err := remediate(ctx, shared, args[0], shared.Config.Loop.MaxIterations)
			return err
		})
		if err != nil {
			return err
		}

		sched.Start()
		defer sched.Stop()

		<-ctx.Done()
		return nil
	},
}

func init() {
	watchCmd.Flags().StringVarP(&watchSchedule, "schedule", "s", "@hourly", "cron schedule for remediation runs")
}
