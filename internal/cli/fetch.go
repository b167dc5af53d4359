package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ytget/playlist-bot/internal/download"
	"github.com/ytget/playlist-bot/internal/model"
	"github.com/ytget/playlist-bot/internal/pipeline"
	"github.com/ytget/playlist-bot/internal/platform"
)

func newFetchCmd(v *viper.Viper) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "fetch <playlist-url>",
		Short: "Download a playlist from the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd.Context(), v, args[0], outDir, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", ".", "directory the tracks are copied to")
	return cmd
}

func runFetch(ctx context.Context, v *viper.Viper, reference, outDir string, out io.Writer) error {
	cfg, log, err := loadConfig(v, false)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ensureTools(ctx, log); err != nil {
		return err
	}
	p, err := newPipeline(ctx, cfg, log, download.NewYTDLPIndex())
	if err != nil {
		return err
	}

	summary := p.Run(ctx, reference, printProgress(out), copyDelivery(outDir, out))
	return summaryError(summary)
}

// printProgress writes each notice on its own line
func printProgress(out io.Writer) pipeline.ProgressFunc {
	return func(_ context.Context, message string) error {
		_, err := fmt.Fprintln(out, message)
		return err
	}
}

// copyDelivery copies each artifact into dir before the pipeline removes it
func copyDelivery(dir string, out io.Writer) pipeline.DeliveryFunc {
	return func(_ context.Context, artifact model.AudioArtifact) error {
		dst, err := platform.CopyFile(artifact.Path, dir)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "saved %s\n", dst)
		return nil
	}
}

// summaryError turns a failed run into a non-zero exit
func summaryError(summary model.RunSummary) error {
	switch {
	case summary.ResolutionFailed:
		return fmt.Errorf("could not resolve playlist")
	case summary.Cancelled:
		return fmt.Errorf("cancelled after %d of %d tracks", summary.Attempted(), summary.Total)
	case summary.Total > 0 && summary.Delivered == 0:
		return fmt.Errorf("none of the %d tracks could be saved", summary.Total)
	}
	return nil
}
