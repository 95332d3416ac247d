package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/replayview/replayview/internal/config"
	"github.com/replayview/replayview/internal/deploy"
)

func deployCmd() *cobra.Command {
	var (
		bucket  string
		prefix  string
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Upload the build output to S3",
		Long: `Upload the build output to an S3 bucket.

Credentials come from the default AWS chain (environment,
shared config, instance role). Fingerprinted objects are
uploaded with immutable cache headers; the manifest goes last
so clients never resolve a name that is not in the bucket yet.

Examples:
  replayview deploy --bucket=replay-assets
  replayview deploy --bucket=replay-assets --prefix=frontend/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(bucket, prefix, verbose)
		},
	}

	cmd.Flags().StringVarP(&bucket, "bucket", "b", "", "Target S3 bucket (required)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Key prefix for uploaded objects")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
	cmd.MarkFlagRequired("bucket")

	return cmd
}

func runDeploy(bucket, prefix string, verbose bool) error {
	cfg, err := config.LoadFromWorkingDir()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	printBanner()
	info("deploy")

	deployer, err := deploy.New(ctx, cfg, deploy.Options{
		Bucket: bucket,
		Prefix: prefix,
		Logger: newLogger(verbose),
	})
	if err != nil {
		return err
	}

	result, err := deployer.Deploy(ctx)
	if err != nil {
		return err
	}

	success("Deployed %d objects (%d bytes) in %s", result.Uploaded, result.Bytes, result.Duration.Round(time.Millisecond))
	return nil
}
