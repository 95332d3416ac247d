package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/replayview/replayview/internal/build"
	"github.com/replayview/replayview/internal/config"
)

func buildCmd() *cobra.Command {
	var (
		player bool
		origin string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the production bundle",
		Long: `Build the production bundle.

The build writes fingerprinted assets under dist/public and a
manifest.json mapping source names to their fingerprinted files.
The manifest carries the build hash; clients resolve all asset
URLs through it.

The player variant can also be selected with REPLAYVIEW_BUILD=player.

Examples:
  replayview build
  replayview build --player
  replayview build --origin=https://assets.example.org`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(player, origin)
		},
	}

	cmd.Flags().BoolVar(&player, "player", false, "Build the restricted player variant")
	cmd.Flags().StringVar(&origin, "origin", "", "Absolute origin written into the manifest")

	return cmd
}

func runBuild(player bool, origin string) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	env := config.ParseEnv()
	if !player && env.PlayerMode() {
		player = true
	}

	printBanner()
	if player {
		info("build (player)")
	} else {
		info("build")
	}

	builder := build.New(cfg, build.Options{
		Player:     player,
		Origin:     origin,
		OnProgress: func(step string) { info("%s", step) },
	})

	result, err := builder.Build(context.Background())
	if err != nil {
		return err
	}

	success("Built in %s", result.Duration.Round(time.Millisecond))
	info("Entry:  %s (%d bytes)", result.Entry, result.BundleSize)
	info("Hash:   %.8s", result.Hash)
	info("Assets: %d", result.Assets)
	info("Output: %s", result.Public)
	return nil
}
