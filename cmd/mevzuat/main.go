// Package main provides the mevzuat command line tool, which splits Turkish
// statute texts into per-article chunks and indexes them.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mevzuatgpt/mevzuat/internal/pkg/errors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI with args and returns the process exit code.
func run(args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return errors.ExitCode(err)
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mevzuat",
		Short: "Mevzuat - Turkish statute chunker",
		Long: `Mevzuat splits plain-text Turkish statutes into one chunk per article
(MADDE), tagged with the part (KISIM), section (BÖLÜM) and clause structure
around it, and feeds the chunks to JSON files, Redis, Qdrant or an event bus.

Run 'mevzuat parse kanun.txt' to print the chunks of one statute.
Run 'mevzuat --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("format", "text", "output format for reports (text, json)")
	rootCmd.PersistentFlags().String("metrics-file", "", "write Prometheus metrics to this textfile on exit")

	rootCmd.AddCommand(
		parseCmd(),
		indexCmd(),
		watchCmd(),
		searchCmd(),
		showCmd(),
		eventsCmd(),
		versionCmd(),
	)

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mevzuat %s\n", version)
			fmt.Fprintf(out, "  commit: %s\n", commit)
			fmt.Fprintf(out, "  built:  %s\n", date)
		},
	}
}
