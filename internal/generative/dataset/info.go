package dataset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/molgen/pkg/errors"
)

// Info describes a dataset: its atom vocabulary and the node-count histogram
// used to fit the size distribution.
type Info struct {
	Name        string      `yaml:"name" json:"name"`
	AtomDecoder []string    `yaml:"atom_decoder" json:"atom_decoder"`
	NNodes      map[int]int `yaml:"n_nodes" json:"n_nodes"`
	MaxNNodes   int         `yaml:"max_n_nodes,omitempty" json:"max_n_nodes,omitempty"`
}

// Validate checks that the info can drive model assembly.
func (i *Info) Validate() error {
	if len(i.AtomDecoder) == 0 {
		return errors.ConfigurationError("dataset info has an empty atom_decoder")
	}
	if len(i.NNodes) == 0 {
		return errors.ConfigurationError("dataset info has an empty n_nodes histogram")
	}
	for n, c := range i.NNodes {
		if n < 0 || c < 0 {
			return errors.ConfigurationError("dataset info n_nodes entries must be non-negative").
				WithDetail(fmt.Sprintf("%d: %d", n, c))
		}
	}
	return nil
}

// Histogram returns n_nodes as float weights.
func (i *Info) Histogram() map[int]float64 {
	out := make(map[int]float64, len(i.NNodes))
	for n, c := range i.NNodes {
		out[n] = float64(c)
	}
	return out
}

// LoadInfo reads and validates a YAML dataset info file.
func LoadInfo(path string) (*Info, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeArtifactNotFound, "dataset info file not found").WithDetail(path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeArtifactLoad, "failed to read dataset info file")
	}
	var info Info
	if err := yaml.Unmarshal(raw, &info); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeArtifactLoad, "failed to decode dataset info file").WithDetail(path)
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	return &info, nil
}

//Personal.AI order the ending
