package prometheus

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sifan077/ushort/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	defaultPort       = 9090
)

// NewServer builds a loopback HTTP server that exposes /metrics for Prometheus scraping.
func NewServer(cfg config.MetricsConfig) *http.Server {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	host := cfg.Host
	if host == "" {
		host = "127.0.0.1"
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf("%s:%d", host, port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
}
