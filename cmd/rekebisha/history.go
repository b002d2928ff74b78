package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent remediation runs from the history store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		shared, err := initShared(ctx)
		if err != nil {
			return err
		}
		defer shared.Cleanup(ctx)

		if shared.History == nil {
			return fmt.Errorf("history is not enabled in the configuration")
		}

		runs, err := shared.History.Runs(ctx, historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no runs recorded")
			return nil
		}

		for _, run := range runs {
			fmt.Printf("%s  %-14s  iter=%-3d  pylint %.2f -> %.2f  tests %d/%d  %s\n",
				run.StartedAt.Format("2006-01-02 15:04:05"),
				run.Status, run.Iterations,
				run.PylintBefore, run.PylintAfter,
				run.TestsPassed, run.TestsPassed+run.TestsFailed,
				run.TargetDir)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "maximum number of runs to show")
}
