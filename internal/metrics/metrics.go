// Package metrics defines the Prometheus metrics of the bot and an observer
// that feeds them from pipeline events.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run metrics
var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_bot_runs_total",
			Help: "Total number of finished playlist runs",
		},
		[]string{"result"}, // "completed", "cancelled", "resolution_failed"
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playlist_bot_run_duration_seconds",
			Help:    "Playlist run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200, 3600},
		},
	)

	RunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "playlist_bot_runs_active",
			Help: "Number of playlist runs in progress",
		},
	)

	PlaylistTracks = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "playlist_bot_playlist_tracks",
			Help:    "Number of tracks in resolved playlists",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)
)

// Track metrics
var (
	TracksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_bot_tracks_total",
			Help: "Total number of processed tracks",
		},
		[]string{"outcome"}, // "delivered", "locate_failed", "delivery_failed"
	)

	TrackDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playlist_bot_track_duration_seconds",
			Help:    "Time to materialize and deliver one track in seconds",
			Buckets: []float64{1, 2.5, 5, 10, 20, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)
)

// Telegram metrics
var (
	TelegramRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_bot_telegram_requests_total",
			Help: "Total number of Bot API requests",
		},
		[]string{"method", "status"}, // status: "ok", "error"
	)

	TelegramRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "playlist_bot_telegram_request_duration_seconds",
			Help:    "Bot API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	ChatsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "playlist_bot_chats_rejected_total",
			Help: "Total number of playlist requests turned away",
		},
		[]string{"reason"}, // "chat_busy", "server_busy"
	)
)

// Application info
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "playlist_bot_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo publishes the build information
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
