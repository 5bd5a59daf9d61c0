package observability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"resumeparser/internal/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusConfig holds Prometheus-specific configuration
type PrometheusConfig struct {
	Enabled  bool
	Endpoint string
	Port     string
}

// prometheusEndpoint exposes the OTel metrics in the Prometheus text format.
// It owns its registry so that several managers never collide on the default one.
type prometheusEndpoint struct {
	reader  sdkmetric.Reader
	handler http.Handler
	path    string
	server  *http.Server
	addr    string
}

// newPrometheusEndpoint creates the exporter reader and the scrape handler
func newPrometheusEndpoint(cfg PrometheusConfig) (*prometheusEndpoint, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	path := cfg.Endpoint
	if path == "" {
		path = "/metrics"
	}

	return &prometheusEndpoint{
		reader:  exporter,
		handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		path:    path,
	}, nil
}

// start binds the port synchronously so conflicts fail startup, then serves in the background
func (p *prometheusEndpoint) start(port string) error {
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return fmt.Errorf("failed to listen for Prometheus metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET "+p.path, p.handler)

	p.addr = listener.Addr().String()
	p.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	fmt.Printf("Prometheus metrics available at http://%s%s\n", p.addr, p.path)

	go func() {
		if err := p.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Printf("Prometheus server error: %v\n", err)
		}
	}()
	return nil
}

func (p *prometheusEndpoint) shutdown(ctx context.Context) error {
	if p.server == nil {
		return nil
	}
	return p.server.Shutdown(ctx)
}

// GetPrometheusConfig creates Prometheus configuration from provided config
func GetPrometheusConfig(cfg *config.Config) PrometheusConfig {
	if cfg == nil {
		return PrometheusConfig{Enabled: false, Endpoint: "/metrics", Port: "9090"}
	}
	return PrometheusConfig{
		Enabled:  cfg.Observability.Prometheus.Enabled,
		Endpoint: cfg.Observability.Prometheus.Endpoint,
		Port:     cfg.Observability.Prometheus.Port,
	}
}
