package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/replayview/replayview/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ╦═╗┌─┐┌─┐┬  ┌─┐┬ ┬╦  ╦┬┌─┐┬ ┬
  ╠╦╝├┤ ├─┘│  ├─┤└┬┘╚╗╔╝│├┤ │││
  ╩╚═└─┘┴  ┴─┘┴ ┴ ┴  ╚╝ ┴└─┘└┴┘
`

func main() {
	rootCmd := &cobra.Command{
		Use:   "replayview",
		Short: "Frontend toolchain for the web archive replay app",
		Long: `ReplayView builds and serves the replay frontend.

The dev server watches the source tree, rebuilds the bundle on
change, and pushes updates to connected browser tabs. Production
builds emit fingerprinted assets plus a manifest, and deploys sync
that output to S3.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		devCmd(),
		buildCmd(),
		deployCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		var rerr *errors.ReplayError
		if stderrors.As(err, &rerr) {
			fmt.Fprint(os.Stderr, rerr.Format())
		} else {
			fmt.Fprintf(os.Stderr, "\033[31mError:\033[0m %s\n", err)
		}
		os.Exit(1)
	}
}

// printBanner prints the ReplayView ASCII art banner.
func printBanner() {
	fmt.Print(banner)
}

// newLogger builds the operator-facing log stream.
func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// success prints a success message.
func success(format string, args ...any) {
	fmt.Printf("\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(format string, args ...any) {
	fmt.Printf("  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(format string, args ...any) {
	fmt.Printf("\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
