// Command sculptvis applies sculpt-mode visibility operations to STL models
// from scripted pipelines and renders the visible geometry for inspection.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	flagLogLevel string
	flagLogFile  string
)

var rootCmd = &cobra.Command{
	Use:   "sculptvis",
	Short: "Mesh visibility toolbox",
	Long: `sculptvis loads a triangle mesh, runs sculpt-mode visibility
operations over it (hide/show, masking, grow/shrink, gestures) and writes
the surviving geometry back out.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogger(flagLogLevel, flagLogFile)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		syncLogger()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "also log to this file, with rotation")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
