package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/image-analysis-gateway/internal/adapters/cli"
	"github.com/mikey/image-analysis-gateway/internal/core"
	"github.com/mikey/image-analysis-gateway/internal/di"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "tumor-detector",
		Short:        "Classify histopathology images with a remote model",
		SilenceUsage: true,
	}

	flags := di.RegisterFlags(root)

	root.AddCommand(&cobra.Command{
		Use:   "analyze <image-file>",
		Short: "Analyse a single JPG, PNG or TIFF image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := di.BuildCLIContainer(flags)
			if err != nil {
				return fmt.Errorf("failed to build dependency container: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return container.Invoke(func(logger *zap.Logger, analyzer *cli.Analyzer, classifier core.Classifier) error {
				return analyze(ctx, logger, analyzer, classifier, flags, args[0])
			})
		},
	})

	return root
}

func analyze(
	ctx context.Context,
	logger *zap.Logger,
	analyzer *cli.Analyzer,
	classifier core.Classifier,
	flags *di.CLIFlags,
	path string,
) error {
	defer logger.Sync()

	// Close any resources that need closing
	defer func() {
		if closer, ok := classifier.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close classifier", zap.Error(err))
			}
		}
	}()

	if !classifier.Configured() {
		return fmt.Errorf("classifier API token not configured; pass --token or set HF_TOKEN")
	}

	var err error
	if flags.JSONOutput {
		_, err = analyzer.AnalyzeFileJSON(ctx, path)
	} else {
		_, err = analyzer.AnalyzeFile(ctx, path)
	}
	if msg := core.MessageOf(err); msg != "" {
		return errors.New(msg)
	}
	return err
}
