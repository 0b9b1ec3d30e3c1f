// Package service hosts the harness's HTTP surfaces: a healthz endpoint
// reporting the state of the current run and the Prometheus metrics endpoint.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/hwlab/quicktest/metrics"
)

const (
	HealthzHost = "0.0.0.0"
	HealthzPort = "8080"

	MetricsHost = "0.0.0.0"
	MetricsPort = "7300"
)

// RunState is the harness state surfaced through healthz.
type RunState struct {
	Running     bool   `json:"running"`
	LastRunID   string `json:"last_run_id,omitempty"`
	LastVerdict string `json:"last_verdict,omitempty"`
}

// StatusProvider supplies the current run state. It is wired in after the
// harness exists; the handler tolerates a nil provider.
type StatusProvider func() RunState

type healthzResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	RunState
}

type Service struct {
	version string

	mu       sync.RWMutex
	provider StatusProvider

	healthz *http.Server
	prom    *http.Server
}

func New(version string) *Service {
	return &Service{version: version}
}

// SetStatusProvider wires the harness run state into the healthz endpoint.
func (s *Service) SetStatusProvider(p StatusProvider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider = p
}

func (s *Service) Start(ctx context.Context) {
	log.Info("service starting")

	healthzMux := http.NewServeMux()
	healthzMux.HandleFunc("/healthz", s.HandleHealthz)
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	s.healthz = &http.Server{
		Handler: c.Handler(healthzMux),
		Addr:    net.JoinHostPort(HealthzHost, HealthzPort),
	}

	promMux := http.NewServeMux()
	promMux.Handle("/metrics", promhttp.Handler())
	s.prom = &http.Server{
		Handler: promMux,
		Addr:    net.JoinHostPort(MetricsHost, MetricsPort),
	}

	go s.serve("healthz", s.healthz)
	go s.serve("metrics", s.prom)

	log.Info("service started")
}

func (s *Service) serve(name string, server *http.Server) {
	log.Info("starting server", "server", name, "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", "server", name, "err", err)
		metrics.RecordErrorDetails("error starting "+name+" server", err)
	}
}

// HandleHealthz reports the service status and, once a provider is wired, the
// state and last verdict of the harness.
func (s *Service) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	provider := s.provider
	s.mu.RUnlock()

	resp := healthzResponse{Status: "ok", Version: s.version}
	if provider != nil {
		resp.RunState = provider()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error("failed to write healthz response", "err", err)
	}
}

func (s *Service) Shutdown() {
	log.Info("service shutting down")

	ctx := context.Background()
	if s.healthz != nil {
		_ = s.healthz.Shutdown(ctx)
	}
	log.Info("healthz stopped")

	if s.prom != nil {
		_ = s.prom.Shutdown(ctx)
	}
	log.Info("metrics stopped")

	log.Info("service stopped")
}
