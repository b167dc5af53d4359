package cli

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/playlist-bot/internal/config"
	"github.com/ytget/playlist-bot/internal/download"
	"github.com/ytget/playlist-bot/internal/messages"
	"github.com/ytget/playlist-bot/internal/metrics"
	"github.com/ytget/playlist-bot/internal/server"
	"github.com/ytget/playlist-bot/internal/telegram"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the status server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	flags := cmd.Flags()
	flags.String("metrics-addr", config.DefaultMetricsAddr, "listen address of the status server (empty disables it)")
	flags.Int("max-concurrent-runs", config.DefaultMaxConcurrentRuns, "playlists processed at the same time")
	bindFlags(v, flags)
	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	cfg, log, err := loadConfig(v, true)
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("version", Version).Str("commit", Commit).Msg("playlist bot starting")
	metrics.SetAppInfo(Version, Commit, runtime.Version())

	if err := ensureTools(ctx, log); err != nil {
		return err
	}
	p, err := newPipeline(ctx, cfg, log, download.NewYTDLPIndex())
	if err != nil {
		return err
	}

	client, err := telegram.NewClient(log, cfg.TelegramToken)
	if err != nil {
		return err
	}
	bot := telegram.NewBot(log, client, p, messages.NewCatalog(cfg.Language), cfg.MaxConcurrentRuns)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return bot.Run(ctx)
	})
	if cfg.MetricsAddr != "" {
		srv := server.New(log, cfg.MetricsAddr, server.BuildInfo{
			Version:   Version,
			Commit:    Commit,
			BuildTime: BuildTime,
		}, bot.ActiveRuns)
		g.Go(func() error {
			return srv.Run(ctx)
		})
	}

	err = g.Wait()
	log.Info().Msg("playlist bot stopped")
	return err
}
