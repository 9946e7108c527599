package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// MetricsHandler serves the collectors in g in the Prometheus text format.
// A nil gatherer means the default registry, where discovery registers.
func MetricsHandler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// MetricsServer exposes /metrics until its context is cancelled.
type MetricsServer struct {
	srv    *http.Server
	ln     net.Listener
	logger *zap.Logger
}

// ListenMetrics binds addr and prepares a /metrics server on it.
func ListenMetrics(addr string, g prometheus.Gatherer, logger *zap.Logger) (*MetricsServer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(g))
	return &MetricsServer{
		srv:    &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:     ln,
		logger: logger,
	}, nil
}

// Addr is the bound listen address.
func (m *MetricsServer) Addr() string { return m.ln.Addr().String() }

// Serve blocks until ctx is done, then shuts the server down.
func (m *MetricsServer) Serve(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		m.logger.Info("serving metrics", zap.String("addr", m.Addr()))
		errc <- m.srv.Serve(m.ln)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.srv.Shutdown(shutdownCtx)
	}
}
