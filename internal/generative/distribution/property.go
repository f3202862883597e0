package distribution

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/pkg/errors"
)

// TrainingData exposes per-example node counts and named scalar property
// columns as parallel sequences.
type TrainingData interface {
	NumAtoms() []int
	Column(name string) ([]float64, bool)
}

// PropertyDistribution holds, for each property, one BinSampler per observed
// node count.  Partitions are fitted once and shared by every value derived
// through WithNormalizer.
type PropertyDistribution struct {
	properties     []string
	binCount       int
	partitions     map[string]map[int]*BinSampler
	nodeCounts     []int
	normalizer     Normalizer
	fallback       FallbackPolicy
	allowRawValues bool
	logger         logging.Logger
}

// NewPropertyDistribution partitions data by exact node count and fits one
// BinSampler per (property, node count) pair with at least one observation.
func NewPropertyDistribution(data TrainingData, properties []string, opts ...Option) (*PropertyDistribution, error) {
	o := applyOptions(opts)

	if data == nil {
		return nil, errors.ConfigurationError("training data is required")
	}
	if len(properties) == 0 {
		return nil, errors.ConfigurationError("at least one property is required")
	}
	if o.binCount < 1 {
		return nil, errors.ConfigurationError("bin count must be at least 1")
	}
	numAtoms := data.NumAtoms()
	if len(numAtoms) == 0 {
		return nil, errors.ConfigurationError("training data has no examples")
	}

	groups := make(map[int][]int)
	for i, n := range numAtoms {
		groups[n] = append(groups[n], i)
	}
	nodeCounts := make([]int, 0, len(groups))
	for n := range groups {
		nodeCounts = append(nodeCounts, n)
	}
	sort.Ints(nodeCounts)

	d := &PropertyDistribution{
		properties:     append([]string(nil), properties...),
		binCount:       o.binCount,
		partitions:     make(map[string]map[int]*BinSampler, len(properties)),
		nodeCounts:     nodeCounts,
		fallback:       o.fallback,
		allowRawValues: o.allowRawValues,
		logger:         o.logger,
	}

	for _, prop := range properties {
		if _, dup := d.partitions[prop]; dup {
			return nil, errors.ConfigurationError("property listed twice").WithDetail(prop)
		}
		values, ok := data.Column(prop)
		if !ok {
			return nil, errors.ConfigurationError("dataset has no column for property").WithDetail(prop)
		}
		if len(values) != len(numAtoms) {
			return nil, errors.ConfigurationError("property column length does not match num_atoms").
				WithDetail(fmt.Sprintf("property=%s rows=%d num_atoms=%d", prop, len(values), len(numAtoms)))
		}

		table := make(map[int]*BinSampler, len(nodeCounts))
		for _, n := range nodeCounts {
			idxs := groups[n]
			filtered := make([]float64, len(idxs))
			for j, i := range idxs {
				filtered[j] = values[i]
			}
			s, err := FitBinSampler(filtered, o.binCount)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("failed to fit property %s at node count %d", prop, n))
			}
			if s.Degenerate() {
				o.logger.Debug("zero-range property partition",
					logging.String("property", prop),
					logging.Int("node_count", n),
					logging.Float64("value", s.min),
				)
			}
			table[n] = s
		}
		d.partitions[prop] = table
	}

	if o.normalizer != nil {
		if err := o.normalizer.Validate(d.properties); err != nil {
			return nil, err
		}
		d.normalizer = o.normalizer.Clone()
	}

	o.logger.Debug("property distribution fitted",
		logging.Strings("properties", d.properties),
		logging.Int("partitions", len(nodeCounts)),
		logging.Int("bin_count", o.binCount),
	)
	return d, nil
}

// SetNormalizer attaches n in place.  It must happen before any concurrent
// use of Sample; prefer WithNormalizer when the table is shared.
func (d *PropertyDistribution) SetNormalizer(n Normalizer) error {
	if err := n.Validate(d.properties); err != nil {
		return err
	}
	d.normalizer = n.Clone()
	return nil
}

// WithNormalizer returns a copy of d that uses n.  The fitted partitions are
// shared and d is left unchanged.
func (d *PropertyDistribution) WithNormalizer(n Normalizer) (*PropertyDistribution, error) {
	if err := n.Validate(d.properties); err != nil {
		return nil, err
	}
	clone := *d
	clone.normalizer = n.Clone()
	return &clone, nil
}

// Normalizer returns a copy of the attached normalizer, or nil.
func (d *PropertyDistribution) Normalizer() Normalizer { return d.normalizer.Clone() }

// Properties returns the property names in sampling order.
func (d *PropertyDistribution) Properties() []string {
	return append([]string(nil), d.properties...)
}

// NodeCounts returns the node counts that have fitted partitions, ascending.
func (d *PropertyDistribution) NodeCounts() []int {
	return append([]int(nil), d.nodeCounts...)
}

// BinCount returns the number of bins per partition.
func (d *PropertyDistribution) BinCount() int { return d.binCount }

// Fallback returns the policy used for unseen node counts.
func (d *PropertyDistribution) Fallback() FallbackPolicy { return d.fallback }

// Partition returns the fitted sampler for (property, nodeCount).
func (d *PropertyDistribution) Partition(property string, nodeCount int) (*BinSampler, bool) {
	table, ok := d.partitions[property]
	if !ok {
		return nil, false
	}
	s, ok := table[nodeCount]
	return s, ok
}

// Resolve maps a requested node count to the fitted partition key used for
// sampling, according to the fallback policy.
func (d *PropertyDistribution) Resolve(nodeCount int) (int, error) {
	i := sort.SearchInts(d.nodeCounts, nodeCount)
	if i < len(d.nodeCounts) && d.nodeCounts[i] == nodeCount {
		return nodeCount, nil
	}
	if d.fallback != FallbackNearest {
		return 0, errors.LookupError("no property observations for node count").
			WithDetail(fmt.Sprintf("node_count=%d", nodeCount))
	}

	// i is the insertion point: nodeCounts[i-1] < nodeCount < nodeCounts[i].
	switch {
	case i == 0:
		return d.nodeCounts[0], nil
	case i == len(d.nodeCounts):
		return d.nodeCounts[i-1], nil
	}
	below, above := d.nodeCounts[i-1], d.nodeCounts[i]
	if nodeCount-below <= above-nodeCount {
		return below, nil
	}
	return above, nil
}

// Sample draws one value per property for nodeCount and returns them in
// property order.  Values are normalized with (v - mean) / mad unless raw
// values were allowed and no normalizer is attached.
func (d *PropertyDistribution) Sample(nodeCount int, src rand.Source) ([]float64, error) {
	if d.normalizer == nil && !d.allowRawValues {
		return nil, errors.ConfigurationError("property sampling requires a normalizer")
	}
	key, err := d.Resolve(nodeCount)
	if err != nil {
		return nil, err
	}
	if key != nodeCount {
		d.logger.Debug("property partition fallback",
			logging.Int("requested", nodeCount),
			logging.Int("used", key),
		)
	}

	out := make([]float64, len(d.properties))
	for i, prop := range d.properties {
		v := d.partitions[prop][key].Sample(src)
		if d.normalizer != nil {
			if v, err = d.normalizer.Apply(prop, v); err != nil {
				return nil, err
			}
		}
		out[i] = v
	}
	return out, nil
}

// SampleBatch draws one independent row per entry of nodeCounts.
func (d *PropertyDistribution) SampleBatch(nodeCounts []int, src rand.Source) ([][]float64, error) {
	out := make([][]float64, len(nodeCounts))
	for i, n := range nodeCounts {
		row, err := d.Sample(n, src)
		if err != nil {
			return nil, err
		}
		out[i] = row
	}
	return out, nil
}

//Personal.AI order the ending
