// Package server exposes the operational HTTP endpoints: Prometheus metrics,
// a health check and build information.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// ShutdownTimeout bounds graceful shutdown
const ShutdownTimeout = 10 * time.Second

const statusHealthy = "healthy"

// BuildInfo describes the running binary
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// ActiveRunsFunc reports how many playlist runs are in progress
type ActiveRunsFunc func() int

// HealthResponse is the body of /healthz
type HealthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Uptime       string `json:"uptime"`
	ActiveRuns   int    `json:"activeRuns"`
	GoVersion    string `json:"goVersion"`
	NumGoroutine int    `json:"numGoroutine"`
}

// Server serves the status endpoints
type Server struct {
	log        zerolog.Logger
	addr       string
	info       BuildInfo
	activeRuns ActiveRunsFunc
	startedAt  time.Time
}

// New creates a server listening on addr
func New(log zerolog.Logger, addr string, info BuildInfo, activeRuns ActiveRunsFunc) *Server {
	if info.GoVersion == "" {
		info.GoVersion = runtime.Version()
	}
	if activeRuns == nil {
		activeRuns = func() int { return 0 }
	}
	return &Server{
		log:        log.With().Str("component", "server").Logger(),
		addr:       addr,
		info:       info,
		activeRuns: activeRuns,
		startedAt:  time.Now(),
	}
}

// Router returns the route table
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/healthz", s.healthCheck).Methods("GET")
	r.HandleFunc("/version", s.version).Methods("GET")
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.addr).Msg("status server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.log.Warn().Err(err).Msg("status server shutdown error")
		return err
	}
	s.log.Info().Msg("status server stopped")
	return nil
}

func (s *Server) healthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, HealthResponse{
		Status:       statusHealthy,
		Version:      s.info.Version,
		Uptime:       time.Since(s.startedAt).Round(time.Second).String(),
		ActiveRuns:   s.activeRuns(),
		GoVersion:    s.info.GoVersion,
		NumGoroutine: runtime.NumGoroutine(),
	})
}

func (s *Server) version(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, s.info)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
