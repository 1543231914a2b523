package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X .../cmd.version=...".
var version = "dev"

var helloCmd = &cobra.Command{
	Use:   "hello",
	Short: "Show information about tpc",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Hello World!")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "I am tpc. Simple command-line time-tracking.")
		fmt.Fprintf(out, "Current Version: %s\n", version)
	},
}
