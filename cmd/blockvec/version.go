package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Build metadata, overridden with
// -ldflags "-X main.version=v0.2.0 -X main.commit=abc123 -X main.date=2026-01-01".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		writeVersion(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.SetVersionTemplate("blockvec {{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
}

// writeVersion prints the same version `blockvec --version` reports, plus
// the commit and build date.
func writeVersion(w io.Writer) {
	fmt.Fprintf(w, "blockvec %s\n", rootCmd.Version)
	fmt.Fprintf(w, "  commit: %s\n", commit)
	fmt.Fprintf(w, "  built:  %s\n", date)
}
