package sampling

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/turtacn/molgen/internal/generative/common"
	"github.com/turtacn/molgen/internal/generative/distribution"
	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/pkg/errors"
)

// Batch is one set of conditioning draws.  Values[i] holds one value per
// entry of Properties for NodeCounts[i]; Values is nil for unconditioned
// runs.
type Batch struct {
	NodeCounts []int       `json:"node_counts" yaml:"node_counts"`
	Properties []string    `json:"properties,omitempty" yaml:"properties,omitempty"`
	Values     [][]float64 `json:"values,omitempty" yaml:"values,omitempty"`
}

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithSamplerMetrics sets the metrics backend.
func WithSamplerMetrics(m common.GenerativeMetrics) SamplerOption {
	return func(s *Sampler) { s.metrics = common.OrNoop(m) }
}

// WithSamplerLogger sets the logger.
func WithSamplerLogger(l logging.Logger) SamplerOption {
	return func(s *Sampler) { s.logger = logging.OrNop(l) }
}

// Sampler draws conditioning for generation.  It is read-only and safe for
// concurrent use as long as each caller passes its own rand.Source.
type Sampler struct {
	nodes   *distribution.NodeCountDistribution
	props   *distribution.PropertyDistribution
	metrics common.GenerativeMetrics
	logger  logging.Logger
}

// NewSampler returns a Sampler over fitted distributions.
func NewSampler(f *Fitted, opts ...SamplerOption) (*Sampler, error) {
	if f == nil || f.Nodes == nil {
		return nil, errors.ConfigurationError("sampler requires a node count distribution")
	}
	s := &Sampler{
		nodes:   f.Nodes,
		props:   f.Properties,
		metrics: common.NewNoopGenerativeMetrics(),
		logger:  logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Draw samples n node counts and, for conditioned runs, one property row
// per node count.
func (s *Sampler) Draw(ctx context.Context, n int, src rand.Source) (*Batch, error) {
	if n < 1 {
		return nil, errors.ConfigurationError("number of draws must be positive")
	}
	return s.DrawFor(ctx, s.nodes.Sample(n, src), src)
}

// DrawFor samples one property row for each given node count.
func (s *Sampler) DrawFor(ctx context.Context, nodeCounts []int, src rand.Source) (*Batch, error) {
	start := time.Now()
	batch := &Batch{NodeCounts: nodeCounts}
	params := &common.SampleMetricParams{Draws: len(nodeCounts)}
	defer func() {
		params.DurationMs = msSince(start)
		s.metrics.RecordSample(ctx, params)
	}()

	if s.props == nil {
		params.Success = true
		return batch, nil
	}

	batch.Properties = s.props.Properties()
	params.Properties = len(batch.Properties)
	batch.Values = make([][]float64, len(nodeCounts))
	for i, n := range nodeCounts {
		row, err := s.props.Sample(n, src)
		if err != nil {
			if errors.IsLookupError(err) {
				s.metrics.RecordLookupMiss(ctx, n)
				s.logger.Warn("no property partition for node count",
					logging.Int("node_count", n),
					logging.String("fallback", s.props.Fallback().String()),
				)
			}
			return nil, err
		}
		batch.Values[i] = row
	}
	params.Success = true
	return batch, nil
}

// LogProb returns the node-count log-probabilities of a batch.
func (s *Sampler) LogProb(nodeCounts []int) ([]float64, error) {
	return s.nodes.LogProb(nodeCounts)
}

// Properties lists the conditioning properties, or nil.
func (s *Sampler) Properties() []string {
	if s.props == nil {
		return nil
	}
	return s.props.Properties()
}

//Personal.AI order the ending
