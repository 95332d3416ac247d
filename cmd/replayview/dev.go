package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/replayview/replayview/internal/config"
	"github.com/replayview/replayview/internal/dev"
)

func devCmd() *cobra.Command {
	var (
		port    int
		host    string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Start the development server",
		Long: `Start the development server with hot reload.

The dev server watches the source tree, rebuilds the bundle when
files change, and pushes updates to connected browser tabs over
the reload channel. Build failures are non-fatal: the error is
pushed to the browser and cleared by the next good build.

The bind port comes from FRONTEND_PORT, replayview.json, or
--port, in rising precedence. FRONTEND_PORT names the app port;
the dev server binds one above it.

Examples:
  replayview dev
  replayview dev --port=8096
  replayview dev --host=0.0.0.0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(port, host, verbose)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to bind (default from replayview.json or FRONTEND_PORT)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind (default from replayview.json or APP_HOST)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	return cmd
}

func runDev(port int, host string, verbose bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}
	cfg.ApplyEnv(config.ParseEnv())

	if port > 0 {
		cfg.Dev.Port = port
	}
	if host != "" {
		cfg.Dev.Host = host
	}

	printBanner()
	fmt.Println("  dev")
	fmt.Println()

	server := dev.NewServer(dev.ServerOptions{
		Config: cfg,
		Logger: newLogger(verbose),
		OnBuildComplete: func(result dev.BuildResult) {
			if result.Success {
				success("Built in %s (%d changed)", result.Duration.Round(time.Millisecond), len(result.Changed))
			} else {
				errorMsg("Build failed: %s", result.Output)
			}
		},
		OnReload: func(clients int) {
			if clients > 0 {
				success("Reloaded %d browsers", clients)
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\n\n  Shutting down...")
		cancel()
		server.Stop()
	}()

	info("Serving %s on %s", cfg.Name, cfg.DevURL())
	return server.Start(ctx)
}
