// Package monitoring serves the readout metrics over HTTP.
package monitoring

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Monitoring is a small HTTP server exposing /metrics.
type Monitoring struct {
	server *http.Server
	log    zerolog.Logger
}

// New creates a monitoring server listening on port and serving the metrics
// gathered by g.
func New(port int, g prometheus.Gatherer, log zerolog.Logger) *Monitoring {
	h := http.NewServeMux()
	h.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return &Monitoring{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           h,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Handler returns the HTTP handler of the server.
func (m *Monitoring) Handler() http.Handler {
	return m.server.Handler
}

// Run serves until Shutdown is called.
func (m *Monitoring) Run() error {
	m.log.Info().Str("addr", m.server.Addr).Msg("Starting monitoring server")
	if err := m.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("monitoring: %w", err)
	}
	return nil
}

// Shutdown stops the server.
func (m *Monitoring) Shutdown(ctx context.Context) error {
	m.log.Info().Msg("Shutting down monitoring server")
	return m.server.Shutdown(ctx)
}

func (m *Monitoring) String() string {
	return fmt.Sprintf("monitoring::%s/metrics", m.server.Addr)
}
