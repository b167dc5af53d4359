// Package config loads the bot settings from flags, environment variables
// and an optional dotenv file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"
)

// Settings keys. Each one is read from the upper-case environment variable
// of the same name.
const (
	KeyTelegramToken       = "telegram_token"
	KeySpotifyClientID     = "spotify_client_id"
	KeySpotifyClientSecret = "spotify_client_secret"
	KeyDownloadDir         = "download_dir"
	KeyLanguage            = "language"
	KeyLogLevel            = "log_level"
	KeyLogPretty           = "log_pretty"
	KeyMetricsAddr         = "metrics_addr"
	KeyMaxConcurrentRuns   = "max_concurrent_runs"
	KeyResolveTimeout      = "resolve_timeout"
	KeyDownloadTimeout     = "download_timeout"
	KeyDownloadRetries     = "download_retries"
)

// Default values
const (
	DefaultEnvFile           = ".env"
	DefaultDownloadDir       = "downloads"
	DefaultLanguage          = "en"
	DefaultLogLevel          = "info"
	DefaultMetricsAddr       = ":9090"
	DefaultMaxConcurrentRuns = 2
	DefaultResolveTimeout    = 30 * time.Second
	DefaultDownloadTimeout   = 5 * time.Minute
	DefaultDownloadRetries   = 1
	MaxConcurrentRunsLimit   = 10
)

// Config holds the effective settings
type Config struct {
	TelegramToken       string
	SpotifyClientID     string
	SpotifyClientSecret string
	DownloadDir         string
	Language            string
	LogLevel            string
	LogPretty           bool
	MetricsAddr         string
	MaxConcurrentRuns   int
	ResolveTimeout      time.Duration
	DownloadTimeout     time.Duration
	DownloadRetries     int
}

// SetDefaults registers every key with its default value
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyTelegramToken, "")
	v.SetDefault(KeySpotifyClientID, "")
	v.SetDefault(KeySpotifyClientSecret, "")
	v.SetDefault(KeyDownloadDir, DefaultDownloadDir)
	v.SetDefault(KeyLanguage, DefaultLanguage)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogPretty, false)
	v.SetDefault(KeyMetricsAddr, DefaultMetricsAddr)
	v.SetDefault(KeyMaxConcurrentRuns, DefaultMaxConcurrentRuns)
	v.SetDefault(KeyResolveTimeout, DefaultResolveTimeout)
	v.SetDefault(KeyDownloadTimeout, DefaultDownloadTimeout)
	v.SetDefault(KeyDownloadRetries, DefaultDownloadRetries)
}

// Load reads envFile when it exists and returns the merged settings.
// A missing envFile is not an error.
func Load(v *viper.Viper, envFile string) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		TelegramToken:       strings.TrimSpace(v.GetString(KeyTelegramToken)),
		SpotifyClientID:     strings.TrimSpace(v.GetString(KeySpotifyClientID)),
		SpotifyClientSecret: strings.TrimSpace(v.GetString(KeySpotifyClientSecret)),
		DownloadDir:         v.GetString(KeyDownloadDir),
		Language:            strings.ToLower(v.GetString(KeyLanguage)),
		LogLevel:            v.GetString(KeyLogLevel),
		LogPretty:           v.GetBool(KeyLogPretty),
		MetricsAddr:         v.GetString(KeyMetricsAddr),
		MaxConcurrentRuns:   v.GetInt(KeyMaxConcurrentRuns),
		ResolveTimeout:      v.GetDuration(KeyResolveTimeout),
		DownloadTimeout:     v.GetDuration(KeyDownloadTimeout),
		DownloadRetries:     v.GetInt(KeyDownloadRetries),
	}
	if cfg.MaxConcurrentRuns > MaxConcurrentRunsLimit {
		cfg.MaxConcurrentRuns = MaxConcurrentRunsLimit
	}
	return cfg, nil
}

// Validate reports every problem at once. The Telegram token is only
// checked when needTelegram is set.
func (c *Config) Validate(needTelegram bool) error {
	var result *multierror.Error

	if needTelegram && c.TelegramToken == "" {
		result = multierror.Append(result, missing(KeyTelegramToken))
	}
	if c.SpotifyClientID == "" {
		result = multierror.Append(result, missing(KeySpotifyClientID))
	}
	if c.SpotifyClientSecret == "" {
		result = multierror.Append(result, missing(KeySpotifyClientSecret))
	}
	if c.DownloadDir == "" {
		result = multierror.Append(result, missing(KeyDownloadDir))
	}
	if c.MaxConcurrentRuns < 1 {
		result = multierror.Append(result, fmt.Errorf("%s must be at least 1, got %d", envName(KeyMaxConcurrentRuns), c.MaxConcurrentRuns))
	}
	if c.ResolveTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("%s must be positive", envName(KeyResolveTimeout)))
	}
	if c.DownloadTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("%s must be positive", envName(KeyDownloadTimeout)))
	}
	if c.DownloadRetries < 0 {
		result = multierror.Append(result, fmt.Errorf("%s must not be negative", envName(KeyDownloadRetries)))
	}

	return result.ErrorOrNil()
}

func missing(key string) error {
	return fmt.Errorf("%s is not set", envName(key))
}

func envName(key string) string {
	return strings.ToUpper(key)
}
