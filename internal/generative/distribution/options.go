// Package distribution implements the empirical distributions that condition
// molecule generation: a categorical distribution over node counts and, per
// scalar property, a table of discretized distributions partitioned by node
// count.
//
// Every sampling call takes an explicit rand.Source so that draws are
// reproducible for a fixed seed.  Fitted values are read-only; the only late
// change allowed is attaching a Normalizer to a PropertyDistribution.
package distribution

import (
	"fmt"
	"strings"

	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/pkg/errors"
)

const (
	// DefaultBinCount is the number of bins used per property partition.
	DefaultBinCount = 1000

	// binEpsilon widens a partition range so the bin width of a zero-range
	// partition stays finite.
	binEpsilon = 1e-12

	// logProbEpsilon is added to probabilities before taking the log.
	logProbEpsilon = 1e-30
)

// FallbackPolicy decides what property sampling does for a node count that
// has no fitted partition.
type FallbackPolicy int

const (
	// FallbackStrict fails with a lookup error.
	FallbackStrict FallbackPolicy = iota
	// FallbackNearest samples from the closest fitted node count.  Ties go
	// to the smaller count.
	FallbackNearest
)

func (p FallbackPolicy) String() string {
	switch p {
	case FallbackStrict:
		return "strict"
	case FallbackNearest:
		return "nearest"
	default:
		return fmt.Sprintf("FallbackPolicy(%d)", int(p))
	}
}

// ParseFallbackPolicy converts "strict" or "nearest" to a FallbackPolicy.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return FallbackStrict, nil
	case "nearest":
		return FallbackNearest, nil
	default:
		return FallbackStrict, errors.ConfigurationError("unknown fallback policy").WithDetail(s)
	}
}

// Option configures distribution construction.
type Option func(*options)

type options struct {
	binCount       int
	fallback       FallbackPolicy
	normalizer     Normalizer
	allowRawValues bool
	logger         logging.Logger
}

func defaultOptions() *options {
	return &options{
		binCount: DefaultBinCount,
		fallback: FallbackStrict,
		logger:   logging.NewNopLogger(),
	}
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// WithBinCount sets the number of bins per property partition.
func WithBinCount(n int) Option {
	return func(o *options) { o.binCount = n }
}

// WithFallback sets the policy for node counts without a fitted partition.
func WithFallback(p FallbackPolicy) Option {
	return func(o *options) { o.fallback = p }
}

// WithNormalizer attaches a normalizer at construction time.
func WithNormalizer(n Normalizer) Option {
	return func(o *options) { o.normalizer = n }
}

// AllowRawValues lets property sampling return unnormalized values when no
// normalizer is attached.
func AllowRawValues() Option {
	return func(o *options) { o.allowRawValues = true }
}

// WithLogger sets the logger.  A nil logger is ignored.
func WithLogger(l logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

//Personal.AI order the ending
