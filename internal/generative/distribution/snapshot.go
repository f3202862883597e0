package distribution

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/turtacn/molgen/pkg/errors"
)

// SnapshotVersion is the current snapshot schema version.
const SnapshotVersion = 1

// Snapshot is the serializable form of fitted distributions.  It lets the CLI
// and the Redis cache hand distributions between processes without refitting.
type Snapshot struct {
	Version    int                `json:"version"`
	CreatedAt  time.Time          `json:"created_at"`
	Dataset    string             `json:"dataset,omitempty"`
	NodeCounts *NodeCountSnapshot `json:"node_counts,omitempty"`
	Properties *PropertySnapshot  `json:"properties,omitempty"`
}

// NodeCountSnapshot is the serializable form of a NodeCountDistribution.
type NodeCountSnapshot struct {
	NodeCounts []int     `json:"node_counts"`
	Probs      []float64 `json:"probs"`
}

// BinSamplerSnapshot is the serializable form of a BinSampler.
type BinSamplerSnapshot struct {
	Min   float64   `json:"min"`
	Max   float64   `json:"max"`
	Probs []float64 `json:"probs"`
}

// PropertySnapshot is the serializable form of a PropertyDistribution.
type PropertySnapshot struct {
	Properties []string                              `json:"properties"`
	BinCount   int                                   `json:"bin_count"`
	Partitions map[string]map[int]BinSamplerSnapshot `json:"partitions"`
	Normalizer Normalizer                            `json:"normalizer,omitempty"`
}

// NewSnapshot captures nodes and props.  Either may be nil.
func NewSnapshot(dataset string, nodes *NodeCountDistribution, props *PropertyDistribution) *Snapshot {
	s := &Snapshot{
		Version:   SnapshotVersion,
		CreatedAt: time.Now().UTC(),
		Dataset:   dataset,
	}
	if nodes != nil {
		s.NodeCounts = &NodeCountSnapshot{
			NodeCounts: nodes.NodeCounts(),
			Probs:      nodes.Probs(),
		}
	}
	if props != nil {
		ps := &PropertySnapshot{
			Properties: props.Properties(),
			BinCount:   props.binCount,
			Partitions: make(map[string]map[int]BinSamplerSnapshot, len(props.partitions)),
			Normalizer: props.Normalizer(),
		}
		for prop, table := range props.partitions {
			out := make(map[int]BinSamplerSnapshot, len(table))
			for n, bs := range table {
				out[n] = BinSamplerSnapshot{Min: bs.min, Max: bs.max, Probs: bs.Probs()}
			}
			ps.Partitions[prop] = out
		}
		s.Properties = ps
	}
	return s
}

// MarshalSnapshot encodes s as JSON.
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode distribution snapshot")
	}
	return raw, nil
}

// UnmarshalSnapshot decodes a JSON snapshot and checks its version.
func UnmarshalSnapshot(raw []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArtifactLoad, "failed to decode distribution snapshot")
	}
	if s.Version != SnapshotVersion {
		return nil, errors.ConfigurationError("unsupported snapshot version").WithDetail(fmt.Sprintf("version=%d", s.Version))
	}
	return &s, nil
}

// RestoreNodeCounts rebuilds the node count distribution, or returns nil when
// the snapshot has none.
func (s *Snapshot) RestoreNodeCounts(opts ...Option) (*NodeCountDistribution, error) {
	if s.NodeCounts == nil {
		return nil, nil
	}
	if len(s.NodeCounts.NodeCounts) != len(s.NodeCounts.Probs) {
		return nil, errors.ConfigurationError("node count snapshot is inconsistent")
	}
	hist := make(map[int]float64, len(s.NodeCounts.NodeCounts))
	for i, n := range s.NodeCounts.NodeCounts {
		if _, dup := hist[n]; dup {
			return nil, errors.ConfigurationError("node count snapshot repeats a node count").WithDetail(fmt.Sprintf("node_count=%d", n))
		}
		hist[n] = s.NodeCounts.Probs[i]
	}
	return NewNodeCountDistribution(hist, opts...)
}

// RestoreProperties rebuilds the property distribution, or returns nil when
// the snapshot has none.  A normalizer stored in the snapshot is attached
// unless opts supply one.
func (s *Snapshot) RestoreProperties(opts ...Option) (*PropertyDistribution, error) {
	ps := s.Properties
	if ps == nil {
		return nil, nil
	}
	o := applyOptions(opts)
	if len(ps.Properties) == 0 {
		return nil, errors.ConfigurationError("property snapshot lists no properties")
	}

	d := &PropertyDistribution{
		properties:     append([]string(nil), ps.Properties...),
		binCount:       ps.BinCount,
		partitions:     make(map[string]map[int]*BinSampler, len(ps.Properties)),
		fallback:       o.fallback,
		allowRawValues: o.allowRawValues,
		logger:         o.logger,
	}

	var keys []int
	for i, prop := range ps.Properties {
		table, ok := ps.Partitions[prop]
		if !ok || len(table) == 0 {
			return nil, errors.ConfigurationError("property snapshot has no partitions").WithDetail(prop)
		}
		restored := make(map[int]*BinSampler, len(table))
		propKeys := make([]int, 0, len(table))
		for n, bs := range table {
			sampler, err := newBinSampler(ps.BinCount, bs.Min, bs.Max, bs.Probs)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeUnknown, fmt.Sprintf("invalid partition %s/%d", prop, n))
			}
			restored[n] = sampler
			propKeys = append(propKeys, n)
		}
		sort.Ints(propKeys)
		if i == 0 {
			keys = propKeys
		} else if !slices.Equal(keys, propKeys) {
			return nil, errors.ConfigurationError("property partitions cover different node counts").WithDetail(prop)
		}
		d.partitions[prop] = restored
	}
	d.nodeCounts = keys

	normalizer := o.normalizer
	if normalizer == nil {
		normalizer = ps.Normalizer
	}
	if len(normalizer) > 0 {
		if err := d.SetNormalizer(normalizer); err != nil {
			return nil, err
		}
	}
	return d, nil
}

//Personal.AI order the ending
