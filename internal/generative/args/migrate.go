package args

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/molgen/pkg/errors"
)

// CurrentVersion is the args layout written by this module.  Files without
// an args_version key are version 0.
const CurrentVersion = 1

const versionKey = "args_version"

// FieldDefault is a field a legacy file may omit and the value it implies.
type FieldDefault struct {
	Key   string
	Value any
}

// LegacyDefaults is the complete allow-list of implicit defaults.  Any
// other absent field is an error.
var LegacyDefaults = []FieldDefault{
	{Key: "normalization_factor", Value: 1.0},
	{Key: "aggregation_method", Value: AggregationSum},
	{Key: "distill", Value: false},
}

// requiredKeys must be present (and non-null) after migration.
var requiredKeys = []string{
	"dataset", "conditioning", "include_charges",
	"latent_nf", "nf", "n_layers", "attention", "tanh", "model",
	"norm_constant", "inv_sublayers", "sin_embedding",
	"normalization_factor", "aggregation_method",
	"kl_weight", "normalize_factors", "probabilistic_model",
	"condition_time", "diffusion_steps", "diffusion_loss_type",
	"discrete_path", "trainable_ae", "distill", "lr",
}

// MigrationResult records what Migrate changed.
type MigrationResult struct {
	FromVersion int
	ToVersion   int
	Injected    []string
}

// Migrate upgrades a raw args map to CurrentVersion.  The input is not
// modified.  Defaults from LegacyDefaults are injected only for files
// older than CurrentVersion; any other missing field is a
// ConfigurationError.
func Migrate(raw map[string]any) (map[string]any, *MigrationResult, error) {
	if raw == nil {
		return nil, nil, errors.ConfigurationError("generator args are empty")
	}
	version, err := readVersion(raw)
	if err != nil {
		return nil, nil, err
	}
	if version > CurrentVersion {
		return nil, nil, errors.ConfigurationError("generator args were written by a newer version").
			WithDetail(fmt.Sprintf("args_version=%d current=%d", version, CurrentVersion))
	}

	out := make(map[string]any, len(raw)+len(LegacyDefaults)+1)
	for k, v := range raw {
		out[k] = v
	}
	res := &MigrationResult{FromVersion: version, ToVersion: CurrentVersion}

	if version < CurrentVersion {
		for _, d := range LegacyDefaults {
			if _, ok := out[d.Key]; !ok {
				out[d.Key] = d.Value
				res.Injected = append(res.Injected, d.Key)
			}
		}
	}

	var missing []string
	for _, k := range requiredKeys {
		if v, ok := out[k]; !ok || v == nil {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, nil, errors.ConfigurationError("generator args are missing required fields").
			WithDetail(strings.Join(missing, ", "))
	}

	out[versionKey] = CurrentVersion
	return out, res, nil
}

func readVersion(raw map[string]any) (int, error) {
	v, ok := raw[versionKey]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n == float64(int(n)) {
			return int(n), nil
		}
	}
	return 0, errors.ConfigurationError("args_version must be an integer").WithDetail(fmt.Sprint(v))
}

//Personal.AI order the ending
