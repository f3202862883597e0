package distribution

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/molgen/pkg/errors"
)

// Stats holds the rescaling statistics of one property.
type Stats struct {
	Mean float64 `json:"mean" yaml:"mean"`
	MAD  float64 `json:"mad" yaml:"mad"`
}

// Normalizer maps property name to its mean / mean-absolute-deviation.
type Normalizer map[string]Stats

// Validate checks that every property has finite statistics and a non-zero
// mad.
func (n Normalizer) Validate(properties []string) error {
	for _, p := range properties {
		s, ok := n[p]
		if !ok {
			return errors.ConfigurationError("normalizer has no statistics for property").WithDetail(p)
		}
		if math.IsNaN(s.Mean) || math.IsInf(s.Mean, 0) || math.IsNaN(s.MAD) || math.IsInf(s.MAD, 0) {
			return errors.ConfigurationError("normalizer statistics must be finite").WithDetail(p)
		}
		if s.MAD == 0 {
			return errors.ConfigurationError("normalizer mad must be non-zero").WithDetail(p)
		}
	}
	return nil
}

// Apply returns (v - mean) / mad for property.
func (n Normalizer) Apply(property string, v float64) (float64, error) {
	s, ok := n[property]
	if !ok {
		return 0, errors.ConfigurationError("normalizer has no statistics for property").WithDetail(property)
	}
	return (v - s.Mean) / s.MAD, nil
}

// Clone returns an independent copy.
func (n Normalizer) Clone() Normalizer {
	if n == nil {
		return nil
	}
	out := make(Normalizer, len(n))
	for k, v := range n {
		out[k] = v
	}
	return out
}

// ComputeNormalizer computes mean and mean absolute deviation of each
// property column over the whole training set.
func ComputeNormalizer(data TrainingData, properties []string) (Normalizer, error) {
	out := make(Normalizer, len(properties))
	for _, p := range properties {
		values, ok := data.Column(p)
		if !ok {
			return nil, errors.ConfigurationError("dataset has no column for property").WithDetail(p)
		}
		if len(values) == 0 {
			return nil, errors.ConfigurationError("property column is empty").WithDetail(p)
		}
		mean := stat.Mean(values, nil)
		dev := make([]float64, len(values))
		for i, v := range values {
			dev[i] = math.Abs(v - mean)
		}
		out[p] = Stats{Mean: mean, MAD: stat.Mean(dev, nil)}
	}
	return out, nil
}

// LoadNormalizerFile reads a YAML document of the form
//
//	alpha: {mean: 75.2, mad: 6.3}
func LoadNormalizerFile(path string) (Normalizer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeArtifactNotFound, "normalizer file not found").WithDetail(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeArtifactLoad, "failed to read normalizer file")
	}
	var n Normalizer
	if err := yaml.Unmarshal(raw, &n); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArtifactLoad, fmt.Sprintf("failed to decode normalizer file %s", path))
	}
	if len(n) == 0 {
		return nil, errors.ConfigurationError("normalizer file is empty").WithDetail(path)
	}
	return n, nil
}

// WriteNormalizerFile writes n as YAML.
func WriteNormalizerFile(path string, n Normalizer) error {
	raw, err := yaml.Marshal(n)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode normalizer")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write normalizer file")
	}
	return nil
}

//Personal.AI order the ending
