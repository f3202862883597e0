// Package common holds cross-cutting pieces shared by the generative
// packages: pipeline metrics and their Prometheus, noop and in-memory
// backends.
package common

import (
	"context"
	"math"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/gonum/stat"
)

// ---------------------------------------------------------------------------
// Interfaces
// ---------------------------------------------------------------------------

// GenerativeMetrics is the metrics API of the generative pipeline.  Fitting,
// conditioning draws, snapshot caching and artifact loading all report
// through it so that the backend (Prometheus, in-memory, noop) can be swapped
// without touching pipeline code.
type GenerativeMetrics interface {
	// RecordFit records the construction of a node-count or property
	// distribution.
	RecordFit(ctx context.Context, params *FitMetricParams)

	// RecordSample records one batch of conditioning draws.
	RecordSample(ctx context.Context, params *SampleMetricParams)

	// RecordLookupMiss records a draw for a node count with no fitted
	// property partition.
	RecordLookupMiss(ctx context.Context, nodeCount int)

	// RecordCacheAccess records a snapshot cache hit or miss.
	RecordCacheAccess(ctx context.Context, hit bool)

	// RecordArtifactLoad records loading of generator args or checkpoint
	// weights.  source is "file" or "s3".
	RecordArtifactLoad(ctx context.Context, kind, source string, durationMs float64, success bool)

	// GetCurrentStats returns a point-in-time statistics snapshot.
	GetCurrentStats() *GenerativeStats
}

// ---------------------------------------------------------------------------
// Parameter structs
// ---------------------------------------------------------------------------

// FitMetricParams carries the data for a single fitting event.
type FitMetricParams struct {
	Component    string  `json:"component"` // "nodes" | "property"
	Partitions   int     `json:"partitions"`
	Observations int     `json:"observations"`
	DurationMs   float64 `json:"duration_ms"`
	Success      bool    `json:"success"`
}

// SampleMetricParams carries the data for one batch of draws.
type SampleMetricParams struct {
	Draws      int     `json:"draws"`
	Properties int     `json:"properties"`
	DurationMs float64 `json:"duration_ms"`
	Success    bool    `json:"success"`
}

// GenerativeStats is a point-in-time snapshot of pipeline metrics.
type GenerativeStats struct {
	TotalFits        int64   `json:"total_fits"`
	FailedFits       int64   `json:"failed_fits"`
	TotalDraws       int64   `json:"total_draws"`
	LookupMisses     int64   `json:"lookup_misses"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
	ArtifactFailures int64   `json:"artifact_failures"`
	P50SampleMs      float64 `json:"p50_sample_ms"`
	P99SampleMs      float64 `json:"p99_sample_ms"`
}

// ---------------------------------------------------------------------------
// Prometheus implementation
// ---------------------------------------------------------------------------

var defaultLatencyBuckets = []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 30000}

type prometheusGenerativeMetrics struct {
	fitDuration      *prometheus.HistogramVec
	fitTotal         *prometheus.CounterVec
	fitPartitions    *prometheus.GaugeVec
	sampleDuration   prometheus.Histogram
	drawsTotal       *prometheus.CounterVec
	lookupMissTotal  prometheus.Counter
	cacheAccessTotal *prometheus.CounterVec
	artifactDuration *prometheus.HistogramVec

	latencyHist   *latencyHistogram
	fits          atomic.Int64
	failedFits    atomic.Int64
	draws         atomic.Int64
	misses        atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	artifactFails atomic.Int64
}

// NewPrometheusGenerativeMetrics creates a Prometheus-backed collector under
// namespace and registers all metrics with registerer.
func NewPrometheusGenerativeMetrics(namespace string, registerer prometheus.Registerer) (GenerativeMetrics, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "molgen"
	}

	m := &prometheusGenerativeMetrics{latencyHist: newLatencyHistogram()}

	m.fitDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fit_duration_milliseconds",
		Help:      "Histogram of distribution fitting duration in milliseconds.",
		Buckets:   defaultLatencyBuckets,
	}, []string{"component"})

	m.fitTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fit_total",
		Help:      "Total number of distribution fits.",
	}, []string{"component", "status"})

	m.fitPartitions = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "fit_partitions",
		Help:      "Number of partitions in the most recent fit.",
	}, []string{"component"})

	m.sampleDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "sample_duration_milliseconds",
		Help:      "Histogram of conditioning batch draw duration in milliseconds.",
		Buckets:   defaultLatencyBuckets,
	})

	m.drawsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "draws_total",
		Help:      "Total number of conditioning rows drawn.",
	}, []string{"status"})

	m.lookupMissTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookup_miss_total",
		Help:      "Total number of draws for node counts without a fitted partition.",
	})

	m.cacheAccessTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "snapshot_cache_access_total",
		Help:      "Total number of snapshot cache accesses.",
	}, []string{"result"})

	m.artifactDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "artifact_load_duration_milliseconds",
		Help:      "Histogram of artifact load duration in milliseconds.",
		Buckets:   defaultLatencyBuckets,
	}, []string{"kind", "source", "status"})

	collectors := []prometheus.Collector{
		m.fitDuration,
		m.fitTotal,
		m.fitPartitions,
		m.sampleDuration,
		m.drawsTotal,
		m.lookupMissTotal,
		m.cacheAccessTotal,
		m.artifactDuration,
	}
	for _, c := range collectors {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func (m *prometheusGenerativeMetrics) RecordFit(_ context.Context, p *FitMetricParams) {
	if p == nil {
		return
	}
	m.fitDuration.WithLabelValues(p.Component).Observe(p.DurationMs)
	m.fitTotal.WithLabelValues(p.Component, statusLabel(p.Success)).Inc()
	if p.Success {
		m.fitPartitions.WithLabelValues(p.Component).Set(float64(p.Partitions))
	} else {
		m.failedFits.Add(1)
	}
	m.fits.Add(1)
}

func (m *prometheusGenerativeMetrics) RecordSample(_ context.Context, p *SampleMetricParams) {
	if p == nil {
		return
	}
	m.sampleDuration.Observe(p.DurationMs)
	m.drawsTotal.WithLabelValues(statusLabel(p.Success)).Add(float64(p.Draws))
	m.latencyHist.Observe(p.DurationMs)
	if p.Success {
		m.draws.Add(int64(p.Draws))
	}
}

func (m *prometheusGenerativeMetrics) RecordLookupMiss(_ context.Context, _ int) {
	m.lookupMissTotal.Inc()
	m.misses.Add(1)
}

func (m *prometheusGenerativeMetrics) RecordCacheAccess(_ context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
		m.cacheHits.Add(1)
	} else {
		m.cacheMisses.Add(1)
	}
	m.cacheAccessTotal.WithLabelValues(result).Inc()
}

func (m *prometheusGenerativeMetrics) RecordArtifactLoad(_ context.Context, kind, source string, durationMs float64, success bool) {
	m.artifactDuration.WithLabelValues(kind, source, statusLabel(success)).Observe(durationMs)
	if !success {
		m.artifactFails.Add(1)
	}
}

func (m *prometheusGenerativeMetrics) GetCurrentStats() *GenerativeStats {
	return &GenerativeStats{
		TotalFits:        m.fits.Load(),
		FailedFits:       m.failedFits.Load(),
		TotalDraws:       m.draws.Load(),
		LookupMisses:     m.misses.Load(),
		CacheHitRate:     hitRate(m.cacheHits.Load(), m.cacheMisses.Load()),
		ArtifactFailures: m.artifactFails.Load(),
		P50SampleMs:      m.latencyHist.Percentile(50),
		P99SampleMs:      m.latencyHist.Percentile(99),
	}
}

// ---------------------------------------------------------------------------
// Noop implementation
// ---------------------------------------------------------------------------

type noopGenerativeMetrics struct{}

// NewNoopGenerativeMetrics returns a no-op metrics implementation.
func NewNoopGenerativeMetrics() GenerativeMetrics {
	return noopGenerativeMetrics{}
}

func (noopGenerativeMetrics) RecordFit(context.Context, *FitMetricParams)                     {}
func (noopGenerativeMetrics) RecordSample(context.Context, *SampleMetricParams)               {}
func (noopGenerativeMetrics) RecordLookupMiss(context.Context, int)                           {}
func (noopGenerativeMetrics) RecordCacheAccess(context.Context, bool)                         {}
func (noopGenerativeMetrics) RecordArtifactLoad(context.Context, string, string, float64, bool) {}
func (noopGenerativeMetrics) GetCurrentStats() *GenerativeStats                               { return &GenerativeStats{} }

// OrNoop returns m, or the noop implementation when m is nil.
func OrNoop(m GenerativeMetrics) GenerativeMetrics {
	if m == nil {
		return noopGenerativeMetrics{}
	}
	return m
}

// ---------------------------------------------------------------------------
// In-memory implementation (for testing)
// ---------------------------------------------------------------------------

// ArtifactLoadRecord is one recorded artifact load.
type ArtifactLoadRecord struct {
	Kind       string
	Source     string
	DurationMs float64
	Success    bool
}

// InMemoryGenerativeMetrics records every event for later inspection.
type InMemoryGenerativeMetrics struct {
	mu sync.Mutex

	fits          []FitMetricParams
	samples       []SampleMetricParams
	lookupMisses  []int
	cacheHits     int64
	cacheMisses   int64
	artifactLoads []ArtifactLoadRecord
	latencyHist   *latencyHistogram
}

// NewInMemoryGenerativeMetrics returns an in-memory metrics implementation
// suitable for unit tests.
func NewInMemoryGenerativeMetrics() *InMemoryGenerativeMetrics {
	return &InMemoryGenerativeMetrics{latencyHist: newLatencyHistogram()}
}

func (m *InMemoryGenerativeMetrics) RecordFit(_ context.Context, p *FitMetricParams) {
	if p == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fits = append(m.fits, *p)
}

func (m *InMemoryGenerativeMetrics) RecordSample(_ context.Context, p *SampleMetricParams) {
	if p == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = append(m.samples, *p)
	m.latencyHist.observeUnlocked(p.DurationMs)
}

func (m *InMemoryGenerativeMetrics) RecordLookupMiss(_ context.Context, nodeCount int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookupMisses = append(m.lookupMisses, nodeCount)
}

func (m *InMemoryGenerativeMetrics) RecordCacheAccess(_ context.Context, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.cacheHits++
	} else {
		m.cacheMisses++
	}
}

func (m *InMemoryGenerativeMetrics) RecordArtifactLoad(_ context.Context, kind, source string, durationMs float64, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifactLoads = append(m.artifactLoads, ArtifactLoadRecord{
		Kind:       kind,
		Source:     source,
		DurationMs: durationMs,
		Success:    success,
	})
}

func (m *InMemoryGenerativeMetrics) GetCurrentStats() *GenerativeStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := &GenerativeStats{
		TotalFits:    int64(len(m.fits)),
		LookupMisses: int64(len(m.lookupMisses)),
		CacheHitRate: hitRate(m.cacheHits, m.cacheMisses),
	}
	for _, f := range m.fits {
		if !f.Success {
			stats.FailedFits++
		}
	}
	for _, s := range m.samples {
		if s.Success {
			stats.TotalDraws += int64(s.Draws)
		}
	}
	for _, a := range m.artifactLoads {
		if !a.Success {
			stats.ArtifactFailures++
		}
	}
	stats.P50SampleMs = m.latencyHist.Percentile(50)
	stats.P99SampleMs = m.latencyHist.Percentile(99)
	return stats
}

// Fits returns a copy of all recorded fit events.
func (m *InMemoryGenerativeMetrics) Fits() []FitMetricParams {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]FitMetricParams, len(m.fits))
	copy(out, m.fits)
	return out
}

// LookupMisses returns the node counts of all recorded lookup misses.
func (m *InMemoryGenerativeMetrics) LookupMisses() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.lookupMisses))
	copy(out, m.lookupMisses)
	return out
}

// ArtifactLoads returns a copy of all artifact load records.
func (m *InMemoryGenerativeMetrics) ArtifactLoads() []ArtifactLoadRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ArtifactLoadRecord, len(m.artifactLoads))
	copy(out, m.artifactLoads)
	return out
}

// ---------------------------------------------------------------------------
// latencyHistogram: in-memory, thread-safe, percentile-capable
// ---------------------------------------------------------------------------

type latencyHistogram struct {
	mu      sync.Mutex
	samples []float64
	sorted  bool
}

func newLatencyHistogram() *latencyHistogram {
	return &latencyHistogram{samples: make([]float64, 0, 256)}
}

func (h *latencyHistogram) Observe(durationMs float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observeUnlocked(durationMs)
}

func (h *latencyHistogram) observeUnlocked(durationMs float64) {
	h.samples = append(h.samples, durationMs)
	h.sorted = false
}

// Percentile returns the value at percentile p (0-100), linearly
// interpolated on the empirical CDF.
func (h *latencyHistogram) Percentile(p float64) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.samples) == 0 {
		return 0
	}
	if !h.sorted {
		sort.Float64s(h.samples)
		h.sorted = true
	}
	q := math.Min(math.Max(p/100, 0), 1)
	return stat.Quantile(q, stat.LinInterp, h.samples, nil)
}

func hitRate(hits, misses int64) float64 {
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses)
}

// compile-time interface checks
var (
	_ GenerativeMetrics = (*prometheusGenerativeMetrics)(nil)
	_ GenerativeMetrics = noopGenerativeMetrics{}
	_ GenerativeMetrics = (*InMemoryGenerativeMetrics)(nil)
)

//Personal.AI order the ending
