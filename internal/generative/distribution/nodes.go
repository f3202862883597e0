package distribution

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/pkg/errors"
)

// NodeCountDistribution is a categorical distribution over molecule sizes.
type NodeCountDistribution struct {
	nodeCounts []int
	probs      []float64
	index      map[int]int
	entropy    float64
}

// NewNodeCountDistribution normalizes a node-count histogram into a
// probability vector.  Node counts are kept in ascending order.
func NewNodeCountDistribution(histogram map[int]float64, opts ...Option) (*NodeCountDistribution, error) {
	o := applyOptions(opts)

	if len(histogram) == 0 {
		return nil, errors.ConfigurationError("node count histogram is empty")
	}

	keys := make([]int, 0, len(histogram))
	for k, w := range histogram {
		if k < 0 {
			return nil, errors.ConfigurationError("node counts must be non-negative").WithDetail(fmt.Sprintf("node_count=%d", k))
		}
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, errors.ConfigurationError("histogram weights must be finite and non-negative").WithDetail(fmt.Sprintf("node_count=%d", k))
		}
		keys = append(keys, k)
	}
	sort.Ints(keys)

	probs := make([]float64, len(keys))
	index := make(map[int]int, len(keys))
	for i, k := range keys {
		probs[i] = histogram[k]
		index[k] = i
	}
	total := floats.Sum(probs)
	if total <= 0 {
		return nil, errors.ConfigurationError("node count histogram has zero total weight")
	}
	floats.Scale(1/total, probs)

	d := &NodeCountDistribution{
		nodeCounts: keys,
		probs:      probs,
		index:      index,
		entropy:    stat.Entropy(probs),
	}
	o.logger.Debug("node count distribution fitted",
		logging.Int("node_counts", len(keys)),
		logging.Float64("entropy", d.entropy),
	)
	return d, nil
}

// HistogramFromCounts converts integer frequencies to a Histogram.
func HistogramFromCounts(counts map[int]int) map[int]float64 {
	out := make(map[int]float64, len(counts))
	for k, c := range counts {
		out[k] = float64(c)
	}
	return out
}

// Sample draws n node counts independently.
func (d *NodeCountDistribution) Sample(n int, src rand.Source) []int {
	if n <= 0 {
		return []int{}
	}
	cat := distuv.NewCategorical(d.probs, src)
	out := make([]int, n)
	for i := range out {
		out[i] = d.nodeCounts[int(cat.Rand())]
	}
	return out
}

// LogProb returns log(p + 1e-30) for each node count in batch.  Every value
// must have been present in the fitted histogram.
func (d *NodeCountDistribution) LogProb(batch []int) ([]float64, error) {
	out := make([]float64, len(batch))
	for i, n := range batch {
		idx, ok := d.index[n]
		if !ok {
			return nil, errors.LookupError("node count was not observed while fitting").
				WithDetail(fmt.Sprintf("node_count=%d", n))
		}
		out[i] = math.Log(d.probs[idx] + logProbEpsilon)
	}
	return out, nil
}

// Prob returns the probability of a single node count.
func (d *NodeCountDistribution) Prob(n int) (float64, error) {
	idx, ok := d.index[n]
	if !ok {
		return 0, errors.LookupError("node count was not observed while fitting").
			WithDetail(fmt.Sprintf("node_count=%d", n))
	}
	return d.probs[idx], nil
}

// Entropy returns H[N] in nats.
func (d *NodeCountDistribution) Entropy() float64 { return d.entropy }

// Len returns the number of distinct node counts.
func (d *NodeCountDistribution) Len() int { return len(d.nodeCounts) }

// NodeCounts returns the fitted node counts in ascending order.
func (d *NodeCountDistribution) NodeCounts() []int {
	out := make([]int, len(d.nodeCounts))
	copy(out, d.nodeCounts)
	return out
}

// Probs returns the probability vector, parallel to NodeCounts.
func (d *NodeCountDistribution) Probs() []float64 {
	out := make([]float64, len(d.probs))
	copy(out, d.probs)
	return out
}

// Histogram returns node count → probability.
func (d *NodeCountDistribution) Histogram() map[int]float64 {
	out := make(map[int]float64, len(d.nodeCounts))
	for i, k := range d.nodeCounts {
		out[k] = d.probs[i]
	}
	return out
}

//Personal.AI order the ending
