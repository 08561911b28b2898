// Package api configures and exposes the HTTP server behind the web form:
// the form itself, the v1 run API, metrics and profiling endpoints.
package api

import (
	_ "embed"
	"net/http"
	"time"

	"extractor/internal/api/handler/v1handler"
	"extractor/internal/config"
	"extractor/pkg/controller"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// formPage is the single page web form that starts runs and renders their
// progress stream.
//
//go:embed form.html
var formPage []byte

// Options holds configuration for the HTTP server.
// It is typically created from a config.Config via NewOptions.
// Zero durations disable the corresponding net/http timeout.
type Options struct {
	// Addr is the TCP address the server listens on, e.g. "127.0.0.1:8080".
	Addr string
	// ReadTimeout is the maximum duration for reading the entire request, including the body.
	ReadTimeout time.Duration
	// ReadHeaderTimeout is the amount of time allowed to read request headers.
	ReadHeaderTimeout time.Duration
	// WriteTimeout is the maximum duration before timing out writes of the response.
	// A run streams until it finishes, so it is usually left at zero.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled.
	IdleTimeout time.Duration
	// MaxHeaderBytes controls the maximum number of bytes the server
	// will read parsing the request header's keys and values, including the request line.
	MaxHeaderBytes int
	// MetricsPath is the HTTP path at which Prometheus metrics are served.
	MetricsPath string
}

// NewOptions constructs an Options value from the provided application configuration.
func NewOptions(cfg *config.Config) Options {
	return Options{
		Addr:              cfg.HTTP.Addr,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		MetricsPath:       cfg.HTTP.MetricsPath,
	}
}

// Deps are the collaborators of the server.
type Deps struct {
	v1handler.Deps

	// Gatherer is scraped at MetricsPath. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

// NewServer wires up and returns a configured *http.Server using the provided Options.
// It sets up:
// - the web form at "/"
// - v1 API routes
// - Prometheus metrics endpoint (MetricsPath)
// - pprof endpoints for profiling
// It also wraps the mux with the access log middleware. No CORS headers are
// sent: the form is served from the same origin as the API.
func NewServer(deps Deps, opts Options) *http.Server {
	mux := http.NewServeMux()

	// web form
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(formPage)
	})

	// v1 api
	v1handler.New(deps.Deps).Register(mux)

	// prometheus metrics server
	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	mux.Handle(metricsPath, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	// pprof
	mux.Handle(controller.PprofPrefix, controller.PprofMux())

	// logger
	handler := controller.WithLogger(mux)

	return &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadTimeout:       opts.ReadTimeout,
		ReadHeaderTimeout: opts.ReadHeaderTimeout,
		WriteTimeout:      opts.WriteTimeout,
		IdleTimeout:       opts.IdleTimeout,
		MaxHeaderBytes:    opts.MaxHeaderBytes,
	}
}
