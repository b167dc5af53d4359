// Package cli holds the command tree shared by both binaries.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ytget/playlist-bot/internal/config"
	"github.com/ytget/playlist-bot/internal/logging"
)

// Build information, set by the binaries from -ldflags
var (
	Version   = "dev"
	Commit    = "none"
	BuildTime = "unknown"
)

var (
	flagEnvFile string
)

// Execute runs the command tree and exits non-zero on failure
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "playlist-bot",
		Short:         "Send every track of a playlist to a chat as an mp3",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagEnvFile, "env-file", config.DefaultEnvFile, "dotenv file with settings (optional)")
	flags.String("download-dir", config.DefaultDownloadDir, "directory for temporary downloads")
	flags.String("language", config.DefaultLanguage, "language of chat notices (en, fa, ru)")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.Bool("log-pretty", false, "human-readable log output")
	flags.Duration("resolve-timeout", config.DefaultResolveTimeout, "timeout for fetching a playlist")
	flags.Duration("download-timeout", config.DefaultDownloadTimeout, "timeout for downloading one track")
	flags.Int("download-retries", config.DefaultDownloadRetries, "retries of a failed track download")
	bindFlags(v, flags)

	rootCmd.AddCommand(
		newServeCmd(v),
		newFetchCmd(v),
		newVersionCmd(),
	)
	return rootCmd
}

// bindFlags binds every flag to the settings key of the same name with
// dashes turned into underscores
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "env-file" {
			return
		}
		_ = v.BindPFlag(flagKey(f.Name), f)
	})
}

func flagKey(name string) string {
	key := []byte(name)
	for i, c := range key {
		if c == '-' {
			key[i] = '_'
		}
	}
	return string(key)
}

// loadConfig reads and validates the settings and builds the root logger
func loadConfig(v *viper.Viper, needTelegram bool) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(v, flagEnvFile)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if err := cfg.Validate(needTelegram); err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, log, nil
}
