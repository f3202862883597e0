package distribution

import (
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/turtacn/molgen/pkg/errors"
)

// BinSampler is a discretized one-dimensional distribution fitted from scalar
// observations.  Values are histogrammed into equal-width bins over the
// observed [min, max]; a draw picks a bin by its probability and then a value
// uniformly inside that bin.
type BinSampler struct {
	binCount int
	min, max float64
	probs    []float64
	cdf      []float64
	lastBin  int // highest bin with non-zero probability
}

// FitBinSampler histograms values into binCount bins.  The result does not
// depend on the order of values.
func FitBinSampler(values []float64, binCount int) (*BinSampler, error) {
	if len(values) == 0 {
		return nil, errors.ConfigurationError("cannot fit a bin sampler on zero observations")
	}
	if binCount < 1 {
		return nil, errors.ConfigurationError("bin count must be at least 1")
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.ConfigurationError("observations must be finite")
		}
	}

	s := &BinSampler{
		binCount: binCount,
		min:      floats.Min(values),
		max:      floats.Max(values),
	}
	if math.IsInf(s.max-s.min, 0) {
		return nil, errors.ConfigurationError("observation range overflows float64")
	}

	counts := make([]float64, binCount)
	for _, v := range values {
		counts[s.BinIndex(v)]++
	}
	floats.Scale(1/float64(len(values)), counts)
	s.setProbs(counts)
	return s, nil
}

// newBinSampler rebuilds a sampler from previously fitted parameters.
func newBinSampler(binCount int, min, max float64, probs []float64) (*BinSampler, error) {
	if binCount < 1 || len(probs) != binCount {
		return nil, errors.ConfigurationError("bin probabilities do not match bin count")
	}
	if math.IsNaN(min) || math.IsNaN(max) || min > max {
		return nil, errors.ConfigurationError("bin bounds must satisfy min <= max")
	}
	if math.IsInf(max-min, 0) {
		return nil, errors.ConfigurationError("bin range overflows float64")
	}
	for _, p := range probs {
		if p < 0 || math.IsNaN(p) {
			return nil, errors.ConfigurationError("bin probabilities must be non-negative")
		}
	}
	total := floats.Sum(probs)
	if total <= 0 {
		return nil, errors.ConfigurationError("bin probabilities sum to zero")
	}
	normalized := make([]float64, binCount)
	copy(normalized, probs)
	floats.Scale(1/total, normalized)

	s := &BinSampler{binCount: binCount, min: min, max: max}
	s.setProbs(normalized)
	return s, nil
}

func (s *BinSampler) setProbs(probs []float64) {
	s.probs = probs
	s.cdf = floats.CumSum(make([]float64, len(probs)), probs)
	for i := len(probs) - 1; i >= 0; i-- {
		if probs[i] > 0 {
			s.lastBin = i
			break
		}
	}
}

// BinIndex returns the bin a value falls into.  The observed maximum maps to
// the last bin; values outside [min, max] are clamped to the edge bins.
func (s *BinSampler) BinIndex(v float64) int {
	idx := int((v - s.min) / (s.max - s.min + binEpsilon) * float64(s.binCount))
	if idx >= s.binCount {
		idx = s.binCount - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// Sample draws one value: a bin by its probability, then a uniform value
// within [min + idx/n·range, min + (idx+1)/n·range].
func (s *BinSampler) Sample(src rand.Source) float64 {
	u := distuv.Uniform{Min: 0, Max: 1, Src: src}.Rand()
	idx := sort.Search(len(s.cdf), func(i int) bool { return s.cdf[i] > u })
	if idx >= len(s.cdf) {
		idx = s.lastBin
	}
	left, right := s.binEdges(idx)
	return distuv.Uniform{Min: left, Max: right, Src: src}.Rand()
}

func (s *BinSampler) binEdges(idx int) (float64, float64) {
	span := s.max - s.min
	n := float64(s.binCount)
	left := s.min + float64(idx)/n*span
	right := s.min + float64(idx+1)/n*span
	return left, right
}

// Prob returns the probability mass of the bin containing v, or 0 when v
// lies outside the fitted range.
func (s *BinSampler) Prob(v float64) float64 {
	if v < s.min || v > s.max {
		return 0
	}
	return s.probs[s.BinIndex(v)]
}

// BinCount returns the number of bins.
func (s *BinSampler) BinCount() int { return s.binCount }

// Bounds returns the observed minimum and maximum.
func (s *BinSampler) Bounds() (min, max float64) { return s.min, s.max }

// Degenerate reports whether every observation had the same value.
func (s *BinSampler) Degenerate() bool { return s.min == s.max }

// Probs returns a copy of the bin probability vector.
func (s *BinSampler) Probs() []float64 {
	out := make([]float64, len(s.probs))
	copy(out, s.probs)
	return out
}

//Personal.AI order the ending
