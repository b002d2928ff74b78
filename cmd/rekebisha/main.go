// Rekebisha — LLM-driven iterative code remediation.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "rekebisha",
	Short: "Rekebisha — LLM-driven iterative code remediation for Python projects.",
	Long: `Rekebisha audits a Python codebase, generates tests that pin down its
bugs, and then iterates LLM-proposed fixes against those tests until
they pass or the iteration budget runs out.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var configFile string

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "rekebisha.yml", "path to the configuration file")
	rootCmd.AddCommand(runCmd, watchCmd, historyCmd, versionCmd)
	_ = godotenv.Load()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}
