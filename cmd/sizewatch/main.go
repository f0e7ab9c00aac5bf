package main

import (
	"os"

	"github.com/spf13/cobra"

	errs "github.com/vango-dev/sizewatch/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sizewatch",
		Short: "Watch element sizes in connected browsers",
		Long: `sizewatch serves a small probe script to browsers and reports
every size change of elements marked with data-sizewatch.

Listeners are registered race-free: a resize that happens while the
probe is being attached is never lost.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var noColor bool
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", os.Getenv("NO_COLOR") != "", "Disable colored error output")
	rootCmd.PersistentPreRun = func(*cobra.Command, []string) {
		errs.SetColor(!noColor)
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
		explainCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		errs.Print(os.Stderr, errs.FromError(err, "E181"))
		os.Exit(1)
	}
}
