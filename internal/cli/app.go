package cli

import (
	"context"
	"fmt"

	"github.com/lrstanley/go-ytdlp"
	"github.com/rs/zerolog"

	"github.com/ytget/playlist-bot/internal/catalog/spotify"
	"github.com/ytget/playlist-bot/internal/catalog/youtube"
	"github.com/ytget/playlist-bot/internal/config"
	"github.com/ytget/playlist-bot/internal/download"
	"github.com/ytget/playlist-bot/internal/messages"
	"github.com/ytget/playlist-bot/internal/metrics"
	"github.com/ytget/playlist-bot/internal/pipeline"
	"github.com/ytget/playlist-bot/internal/platform"
	"github.com/ytget/playlist-bot/internal/resolver"
)

// newPipeline wires the resolver and downloader into a pipeline
func newPipeline(ctx context.Context, cfg *config.Config, log zerolog.Logger, index download.MediaIndex) (*pipeline.Pipeline, error) {
	if err := platform.CreateDirectoryIfNotExists(cfg.DownloadDir); err != nil {
		return nil, fmt.Errorf("failed to ensure downloads dir: %w", err)
	}

	spotifyCatalog, err := spotify.New(ctx, log, spotify.Credentials{
		ClientID:     cfg.SpotifyClientID,
		ClientSecret: cfg.SpotifyClientSecret,
	})
	if err != nil {
		return nil, err
	}

	// YouTube first: the Spotify catalog accepts any reference
	res := resolver.NewResolver(log, youtube.New(log), spotifyCatalog)
	res.SetTimeout(cfg.ResolveTimeout)

	dl := download.NewService(log, index)
	dl.SetTimeout(cfg.DownloadTimeout)
	dl.SetRetryPolicy(cfg.DownloadRetries, download.DefaultBackoff)

	return pipeline.NewPipeline(log, res, dl, pipeline.Options{
		WorkDir:  cfg.DownloadDir,
		Messages: messages.NewCatalog(cfg.Language),
		Observer: metrics.NewPipelineObserver(),
	}), nil
}

// installTools fetches yt-dlp, ffmpeg and ffprobe when they are missing or
// outdated. ffmpeg and ffprobe do the mp3 conversion.
var installTools = ytdlp.InstallAll

// ensureTools makes sure every binary the downloader runs is available
func ensureTools(ctx context.Context, log zerolog.Logger) error {
	installs, err := installTools(ctx)
	if err != nil {
		return fmt.Errorf("failed to install yt-dlp and ffmpeg: %w", err)
	}
	for _, resolved := range installs {
		if resolved == nil {
			continue
		}
		log.Info().
			Str("executable", resolved.Executable).
			Str("version", resolved.Version).
			Msg("tool ready")
	}
	return nil
}
