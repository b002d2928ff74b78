package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jkaninda/rekebisha/internal/engine"
)

var runMaxIterations int

var runCmd = &cobra.Command{
	Use:   "run <target-dir>",
	Short: "Run one remediation pass over a Python project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		shared, err := initShared(ctx)
		if err != nil {
			return err
		}
		defer shared.Cleanup(ctx)

		if runMaxIterations > 0 {
			shared.Config.Loop.MaxIterations = runMaxIterations
		}

		state, err := remediate(ctx, shared, args[0], shared.Config.Loop.MaxIterations)
		if err != nil {
			return err
		}
		if state.Status != engine.StatusSuccess {
			return fmt.Errorf("remediation finished with status %s", state.Status)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().IntVarP(&runMaxIterations, "max-iterations", "n", 0, "override the iteration budget")
}
