package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultMetricsPath = "/metrics"

// MetricsServer exposes the Prometheus scrape endpoint on its own port,
// away from the public API listener.
type MetricsServer struct {
	server *http.Server
	path   string
}

// NewMetricsServer builds the scrape server. An empty path falls back to
// /metrics; a provider without a Prometheus exporter yields a server that
// answers 404 everywhere.
func NewMetricsServer(port int, path string, provider *Provider) *MetricsServer {
	path = strings.TrimSpace(path)
	if path == "" {
		path = defaultMetricsPath
	}

	mux := http.NewServeMux()
	if provider != nil && provider.promExporter != nil {
		mux.Handle(path, promhttp.Handler())
	}

	return &MetricsServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		path: path,
	}
}

// Start serves scrapes until Shutdown. It returns http.ErrServerClosed on
// graceful exit.
func (ms *MetricsServer) Start() error {
	slog.Info("Starting metrics server", "addr", ms.server.Addr, "path", ms.path)
	return ms.server.ListenAndServe()
}

// Shutdown stops the metrics server, waiting for in-flight scrapes.
func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}
