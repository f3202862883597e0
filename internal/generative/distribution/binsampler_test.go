package distribution

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/turtacn/molgen/pkg/errors"
)

func newTestSource(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

func TestFitBinSampler_ProbabilitiesSumToOne(t *testing.T) {
	values := []float64{1.5, 2.5, 2.5, 3.0, 7.25, 9.0}
	s, err := FitBinSampler(values, 20)
	require.NoError(t, err)

	probs := s.Probs()
	assert.Len(t, probs, 20)
	assert.InDelta(t, 1.0, floats.Sum(probs), 1e-9)
	for _, p := range probs {
		assert.GreaterOrEqual(t, p, 0.0)
	}
	min, max := s.Bounds()
	assert.Equal(t, 1.5, min)
	assert.Equal(t, 9.0, max)
}

func TestFitBinSampler_MaxMapsToLastBin(t *testing.T) {
	rng := rand.New(newTestSource(7))
	for trial := 0; trial < 50; trial++ {
		values := make([]float64, 25)
		for i := range values {
			values[i] = rng.NormFloat64() * 1e3
		}
		binCount := 1 + rng.IntN(1000)
		s, err := FitBinSampler(values, binCount)
		require.NoError(t, err)

		_, max := s.Bounds()
		assert.Equal(t, binCount-1, s.BinIndex(max))
		for _, v := range values {
			idx := s.BinIndex(v)
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, binCount)
		}
	}
}

func TestFitBinSampler_PermutationInvariant(t *testing.T) {
	rng := rand.New(newTestSource(11))
	values := make([]float64, 500)
	for i := range values {
		values[i] = rng.ExpFloat64()
	}
	shuffled := append([]float64(nil), values...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

	a, err := FitBinSampler(values, DefaultBinCount)
	require.NoError(t, err)
	b, err := FitBinSampler(shuffled, DefaultBinCount)
	require.NoError(t, err)

	assert.Equal(t, a.Probs(), b.Probs())
}

func TestFitBinSampler_UniformTenBins(t *testing.T) {
	values := make([]float64, 10000)
	for i := range values {
		values[i] = float64(i) * 0.01 // [0, 100)
	}
	s, err := FitBinSampler(values, 10)
	require.NoError(t, err)

	for i, p := range s.Probs() {
		assert.InDelta(t, 0.1, p, 0.02, "bin %d", i)
	}
}

func TestFitBinSampler_DegenerateRange(t *testing.T) {
	s, err := FitBinSampler([]float64{4.2, 4.2, 4.2}, 10)
	require.NoError(t, err)
	assert.True(t, s.Degenerate())
	assert.Equal(t, 1.0, s.Probs()[0])

	src := newTestSource(3)
	for i := 0; i < 10; i++ {
		assert.Equal(t, 4.2, s.Sample(src))
	}
}

func TestFitBinSampler_Errors(t *testing.T) {
	_, err := FitBinSampler(nil, 10)
	assert.True(t, errors.IsConfigurationError(err))

	_, err = FitBinSampler([]float64{1}, 0)
	assert.True(t, errors.IsConfigurationError(err))

	_, err = FitBinSampler([]float64{1, math.NaN()}, 10)
	assert.True(t, errors.IsConfigurationError(err))

	_, err = FitBinSampler([]float64{math.Inf(1)}, 10)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestFitBinSampler_RangeOverflow(t *testing.T) {
	_, err := FitBinSampler([]float64{-1e308, 1e308}, 10)
	assert.True(t, errors.IsConfigurationError(err))

	_, err = newBinSampler(2, -math.MaxFloat64, math.MaxFloat64, []float64{0.5, 0.5})
	assert.True(t, errors.IsConfigurationError(err))

	s, err := FitBinSampler([]float64{-1e307, 1e307}, 10)
	require.NoError(t, err)
	assert.Equal(t, 9, s.BinIndex(1e307))
}

func TestBinSampler_SampleStaysInChosenBins(t *testing.T) {
	s, err := FitBinSampler([]float64{0, 0, 10, 10}, 10)
	require.NoError(t, err)

	src := newTestSource(5)
	low, high := 0, 0
	for i := 0; i < 2000; i++ {
		v := s.Sample(src)
		switch {
		case v >= 0 && v <= 1:
			low++
		case v >= 9 && v <= 10:
			high++
		default:
			t.Fatalf("draw %v outside populated bins", v)
		}
	}
	assert.InDelta(t, 0.5, float64(low)/2000, 0.05)
	assert.InDelta(t, 0.5, float64(high)/2000, 0.05)
}

func TestBinSampler_SampleRecoversBinProbabilities(t *testing.T) {
	values := []float64{0, 1, 1, 1, 2, 2, 3, 3, 3, 3}
	s, err := FitBinSampler(values, 4)
	require.NoError(t, err)

	src := newTestSource(9)
	const draws = 20000
	counts := make([]float64, 4)
	for i := 0; i < draws; i++ {
		counts[s.BinIndex(s.Sample(src))]++
	}
	for i, p := range s.Probs() {
		assert.InDelta(t, p, counts[i]/draws, 0.02, "bin %d", i)
	}
}

func TestBinSampler_SameSeedSameDraws(t *testing.T) {
	s, err := FitBinSampler([]float64{1, 2, 3, 4, 5, 6}, 100)
	require.NoError(t, err)

	a, b := newTestSource(21), newTestSource(21)
	for i := 0; i < 20; i++ {
		assert.Equal(t, s.Sample(a), s.Sample(b))
	}
}

func TestBinSampler_Prob(t *testing.T) {
	s, err := FitBinSampler([]float64{0, 0, 0, 10}, 2)
	require.NoError(t, err)

	assert.InDelta(t, 0.75, s.Prob(0), 1e-12)
	assert.InDelta(t, 0.25, s.Prob(10), 1e-12)
	assert.Equal(t, 0.0, s.Prob(-1))
	assert.Equal(t, 0.0, s.Prob(11))
}

func TestNewBinSampler_Validation(t *testing.T) {
	_, err := newBinSampler(3, 0, 1, []float64{0.5, 0.5})
	assert.True(t, errors.IsConfigurationError(err))

	_, err = newBinSampler(2, 2, 1, []float64{0.5, 0.5})
	assert.True(t, errors.IsConfigurationError(err))

	_, err = newBinSampler(2, 0, 1, []float64{0, 0})
	assert.True(t, errors.IsConfigurationError(err))

	s, err := newBinSampler(2, 0, 1, []float64{1, 3})
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75}, s.Probs())
}

//Personal.AI order the ending
