// Package prometheus owns the Prometheus registry of a molgen process and
// exports it either over HTTP or as a node_exporter textfile, which suits
// one-shot fit and sample runs.
package prometheus

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/pkg/errors"
)

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	Namespace            string
	EnableProcessMetrics bool
	EnableGoMetrics      bool
	// ConstLabels are attached to the run metadata gauge.
	ConstLabels map[string]string
}

// Collector wraps a dedicated prometheus.Registry.
type Collector struct {
	registry *prometheus.Registry
	config   CollectorConfig
	logger   logging.Logger
}

// NewMetricsCollector creates a Collector.  A run-info gauge carrying
// ConstLabels is registered so every export identifies its run.
func NewMetricsCollector(cfg CollectorConfig, logger logging.Logger) (*Collector, error) {
	if cfg.Namespace == "" {
		return nil, errors.ConfigurationError("metrics namespace is required")
	}

	registry := prometheus.NewRegistry()
	if cfg.EnableProcessMetrics {
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{
			Namespace: cfg.Namespace,
		}))
	}
	if cfg.EnableGoMetrics {
		registry.MustRegister(collectors.NewGoCollector())
	}

	info := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   cfg.Namespace,
		Name:        "run_info",
		Help:        "Constant 1, labelled with the run identity.",
		ConstLabels: cfg.ConstLabels,
	})
	info.Set(1)
	registry.MustRegister(info)

	return &Collector{
		registry: registry,
		config:   cfg,
		logger:   logging.OrNop(logger),
	}, nil
}

// Namespace returns the metric namespace.
func (c *Collector) Namespace() string { return c.config.Namespace }

// Registerer is passed to metric constructors.
func (c *Collector) Registerer() prometheus.Registerer { return c.registry }

// Gatherer exposes the registry for export.
func (c *Collector) Gatherer() prometheus.Gatherer { return c.registry }

// Handler serves the registry in the OpenMetrics format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// WriteTextfile writes the registry in text exposition format to path,
// atomically, for the node_exporter textfile collector.
func (c *Collector) WriteTextfile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.ErrCodeInternal, "failed to create metrics directory").WithDetail(dir)
		}
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write metrics textfile").WithDetail(path)
	}
	c.logger.Debug("Wrote metrics textfile", logging.String("path", path))
	return nil
}

//Personal.AI order the ending
