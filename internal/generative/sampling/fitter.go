// Package sampling fits the conditioning distributions of a generator run,
// optionally through a snapshot cache, and draws node counts and property
// rows from them.
package sampling

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/turtacn/molgen/internal/generative/common"
	"github.com/turtacn/molgen/internal/generative/distribution"
	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/pkg/errors"
)

// SnapshotCache is the cache the Fitter stores snapshots in.  It matches
// the Redis cache.
type SnapshotCache interface {
	GetOrSet(ctx context.Context, key string, dest interface{}, ttl time.Duration,
		loader func(ctx context.Context) (interface{}, error)) (bool, error)
}

// FitRequest describes one fit.
type FitRequest struct {
	// Dataset names the training set; it is part of the cache key.
	Dataset string
	// Histogram is the node-count histogram.
	Histogram map[int]float64
	// Data and Properties drive the property distribution.  With no
	// properties, Data may be nil and no property distribution is built.
	Data       distribution.TrainingData
	Properties []string
	BinCount   int
	Fallback   distribution.FallbackPolicy
	Normalizer distribution.Normalizer
	// AllowRawValues lets property sampling run without a normalizer.
	AllowRawValues bool
}

// Fitted bundles the distributions a generator samples conditioning from.
// Properties is nil when the run is unconditioned.
type Fitted struct {
	Nodes      *distribution.NodeCountDistribution
	Properties *distribution.PropertyDistribution
	// FromCache reports whether the distributions were restored from a
	// cached snapshot.
	FromCache bool
}

// Snapshot captures f for persistence.
func (f *Fitted) Snapshot(dataset string) *distribution.Snapshot {
	return distribution.NewSnapshot(dataset, f.Nodes, f.Properties)
}

// FitterOption configures a Fitter.
type FitterOption func(*Fitter)

// WithCache enables snapshot caching with the given TTL.
func WithCache(c SnapshotCache, ttl time.Duration) FitterOption {
	return func(f *Fitter) {
		f.cache = c
		f.ttl = ttl
	}
}

// WithFitterMetrics sets the metrics backend.
func WithFitterMetrics(m common.GenerativeMetrics) FitterOption {
	return func(f *Fitter) { f.metrics = common.OrNoop(m) }
}

// WithFitterLogger sets the logger.
func WithFitterLogger(l logging.Logger) FitterOption {
	return func(f *Fitter) { f.logger = logging.OrNop(l) }
}

// Fitter builds Fitted distributions.
type Fitter struct {
	cache   SnapshotCache
	ttl     time.Duration
	metrics common.GenerativeMetrics
	logger  logging.Logger
}

// NewFitter returns a Fitter; without WithCache every call fits afresh.
func NewFitter(opts ...FitterOption) *Fitter {
	f := &Fitter{
		metrics: common.NewNoopGenerativeMetrics(),
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SnapshotKey is the cache key of a fit: dataset, properties, bin count
// and a fingerprint of the histogram and training columns, so a dataset
// name reused for different data never hits a stale snapshot.
func SnapshotKey(req *FitRequest) string {
	props := "-"
	if len(req.Properties) > 0 {
		props = strings.Join(req.Properties, ",")
	}
	return fmt.Sprintf("snapshot:v%d:%s:%s:%d:%016x",
		distribution.SnapshotVersion, req.Dataset, props, binCountOf(req), fingerprint(req))
}

func fingerprint(req *FitRequest) uint64 {
	d := xxhash.New()
	var buf [8]byte
	putInt := func(v int64) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = d.Write(buf[:])
	}
	putFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = d.Write(buf[:])
	}

	counts := make([]int, 0, len(req.Histogram))
	for n := range req.Histogram {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	putInt(int64(len(counts)))
	for _, n := range counts {
		putInt(int64(n))
		putFloat(req.Histogram[n])
	}

	if req.Data == nil || len(req.Properties) == 0 {
		return d.Sum64()
	}
	atoms := req.Data.NumAtoms()
	putInt(int64(len(atoms)))
	for _, n := range atoms {
		putInt(int64(n))
	}
	for _, p := range req.Properties {
		_, _ = d.WriteString(p)
		col, ok := req.Data.Column(p)
		if !ok {
			putInt(-1)
			continue
		}
		putInt(int64(len(col)))
		for _, v := range col {
			putFloat(v)
		}
	}
	return d.Sum64()
}

func binCountOf(req *FitRequest) int {
	if req.BinCount == 0 {
		return distribution.DefaultBinCount
	}
	return req.BinCount
}

func (req *FitRequest) options(logger logging.Logger) []distribution.Option {
	opts := []distribution.Option{
		distribution.WithBinCount(binCountOf(req)),
		distribution.WithFallback(req.Fallback),
		distribution.WithLogger(logger),
	}
	if req.Normalizer != nil {
		opts = append(opts, distribution.WithNormalizer(req.Normalizer))
	}
	if req.AllowRawValues {
		opts = append(opts, distribution.AllowRawValues())
	}
	return opts
}

// Fit builds the distributions for req.  With a cache, a stored snapshot
// is restored instead of refitting; the request's fallback and normalizer
// still apply to the restored property distribution.
func (f *Fitter) Fit(ctx context.Context, req *FitRequest) (*Fitted, error) {
	if req == nil {
		return nil, errors.ConfigurationError("fit request is required")
	}
	if f.cache == nil {
		return f.fit(ctx, req)
	}

	key := SnapshotKey(req)
	var snap distribution.Snapshot
	hit, err := f.cache.GetOrSet(ctx, key, &snap, f.ttl, func(ctx context.Context) (interface{}, error) {
		fitted, err := f.fit(ctx, req)
		if err != nil {
			return nil, err
		}
		return fitted.Snapshot(req.Dataset), nil
	})
	if err != nil {
		return nil, err
	}
	f.metrics.RecordCacheAccess(ctx, hit)
	f.logger.Debug("distribution snapshot resolved", logging.String("key", key), logging.Bool("cache_hit", hit))

	fitted, err := Restore(&snap, req.options(f.logger)...)
	if err != nil {
		return nil, err
	}
	fitted.FromCache = hit
	return fitted, nil
}

// Restore rebuilds Fitted from a snapshot.
func Restore(snap *distribution.Snapshot, opts ...distribution.Option) (*Fitted, error) {
	nodes, err := snap.RestoreNodeCounts(opts...)
	if err != nil {
		return nil, err
	}
	if nodes == nil {
		return nil, errors.ConfigurationError("snapshot has no node count distribution")
	}
	out := &Fitted{Nodes: nodes}
	if snap.Properties != nil {
		if out.Properties, err = snap.RestoreProperties(opts...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (f *Fitter) fit(ctx context.Context, req *FitRequest) (*Fitted, error) {
	opts := req.options(f.logger)

	start := time.Now()
	nodes, err := distribution.NewNodeCountDistribution(req.Histogram, opts...)
	f.metrics.RecordFit(ctx, &common.FitMetricParams{
		Component:    "nodes",
		Partitions:   lenOrZero(nodes),
		Observations: len(req.Histogram),
		DurationMs:   msSince(start),
		Success:      err == nil,
	})
	if err != nil {
		return nil, err
	}
	out := &Fitted{Nodes: nodes}
	if len(req.Properties) == 0 {
		f.logger.Info("Fitted node count distribution",
			logging.String("dataset", req.Dataset),
			logging.Int("node_counts", nodes.Len()),
			logging.Float64("entropy", nodes.Entropy()),
		)
		return out, nil
	}

	start = time.Now()
	props, err := distribution.NewPropertyDistribution(req.Data, req.Properties, opts...)
	params := &common.FitMetricParams{
		Component:  "property",
		DurationMs: msSince(start),
		Success:    err == nil,
	}
	if req.Data != nil {
		params.Observations = len(req.Data.NumAtoms())
	}
	if props != nil {
		params.Partitions = len(props.Properties()) * len(props.NodeCounts())
	}
	f.metrics.RecordFit(ctx, params)
	if err != nil {
		return nil, err
	}
	out.Properties = props

	f.logger.Info("Fitted conditioning distributions",
		logging.String("dataset", req.Dataset),
		logging.Int("node_counts", nodes.Len()),
		logging.Float64("entropy", nodes.Entropy()),
		logging.Strings("properties", props.Properties()),
		logging.Int("partitions", params.Partitions),
	)
	return out, nil
}

func lenOrZero(d *distribution.NodeCountDistribution) int {
	if d == nil {
		return 0
	}
	return d.Len()
}

func msSince(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000
}

//Personal.AI order the ending
