package args

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/molgen/internal/generative/artifact"
	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/pkg/errors"
)

const tomlArgs = `
args_version = 1
dataset = "qm9_second_half"
conditioning = []
include_charges = false
latent_nf = 2
nf = 192
n_layers = 4
attention = true
tanh = true
model = "egnn_dynamics"
norm_constant = 1.0
inv_sublayers = 1
sin_embedding = false
normalization_factor = 1.0
aggregation_method = "sum"
kl_weight = 0.01
normalize_factors = [1, 4, 10]
probabilistic_model = "vae"
condition_time = true
diffusion_steps = 0
diffusion_loss_type = "l2"
discrete_path = "OT_path"
trainable_ae = true
distill = false
lr = 0.0001
`

const yamlLegacyArgs = `
dataset: qm9_second_half
conditioning: [alpha, gap]
include_charges: true
latent_nf: 1
nf: "256"
n_layers: 9
attention: true
tanh: true
model: egnn_dynamics
norm_constant: 1
inv_sublayers: 1
sin_embedding: false
kl_weight: 0.01
normalize_factors: [1, 4, 10]
probabilistic_model: goat
vae_path: s3://checkpoints/vae/generative_model.npy
condition_time: false
diffusion_steps: 1000
diffusion_loss_type: l2
discrete_path: OT_path
trainable_ae: false
lr: 1.0e-4
`

func writeArgs(t *testing.T, dir, name string, body []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), body, 0o600))
}

func newLocalLoader(opts ...Option) *Loader {
	return NewLoader(artifact.NewResolver(nil, nil), opts...)
}

func TestLoader_LoadLegacyJSON(t *testing.T) {
	dir := t.TempDir()
	body, err := json.Marshal(legacyArgs())
	require.NoError(t, err)
	writeArgs(t, dir, "args_100.json", body)

	core, logs := observer.New(zapcore.DebugLevel)
	l := newLocalLoader(WithLogger(logging.NewLoggerFromCore(core)))

	a, err := l.Load(context.Background(), dir, "_100")
	require.NoError(t, err)
	assert.Equal(t, 1.0, a.NormalizationFactor)
	assert.Equal(t, "sum", a.AggregationMethod)
	assert.False(t, a.Distill)
	assert.Equal(t, 256, a.NF)

	assert.Equal(t, 1, logs.FilterMessage("Migrated legacy generator args").Len())
	assert.Equal(t, 1, logs.FilterMessage("Ignoring generator args fields").Len())
	assert.Equal(t, 1, logs.FilterMessage("Loaded generator args").Len())
}

func TestLoader_LoadFallsThroughExtensions(t *testing.T) {
	dir := t.TempDir()
	writeArgs(t, dir, "args.toml", []byte(tomlArgs))

	a, err := newLocalLoader().Load(context.Background(), dir, "")
	require.NoError(t, err)
	assert.True(t, a.VAEOnly())
	assert.Equal(t, 0, a.ContextNodeNF())
	assert.Equal(t, []float64{1, 4, 10}, a.NormalizeFactors)
	assert.Equal(t, 192, a.NF)
}

func TestLoader_JSONPreferredOverYAML(t *testing.T) {
	dir := t.TempDir()
	body, err := json.Marshal(currentArgs())
	require.NoError(t, err)
	writeArgs(t, dir, "args.json", body)
	writeArgs(t, dir, "args.yaml", []byte("dataset: [broken"))

	a, err := newLocalLoader().Load(context.Background(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, "goat", a.ProbabilisticModel)
}

func TestLoader_NoArgsFile(t *testing.T) {
	_, err := newLocalLoader().Load(context.Background(), t.TempDir(), "_5")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeArtifactNotFound))
	assert.Contains(t, err.Error(), "args_5.toml")
}

func TestLoader_DatasetMismatch(t *testing.T) {
	dir := t.TempDir()
	raw := currentArgs()
	raw["dataset"] = "qm9"
	body, err := json.Marshal(raw)
	require.NoError(t, err)
	writeArgs(t, dir, "args.json", body)

	_, err = newLocalLoader().Load(context.Background(), dir, "")
	assert.True(t, errors.IsConfigurationError(err))

	a, err := newLocalLoader(WithExpectedDataset("qm9")).Load(context.Background(), dir, "")
	require.NoError(t, err)
	assert.Equal(t, "qm9", a.Dataset)
}

func TestLoader_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeArgs(t, dir, "args.json", []byte("{not json"))
	_, err := newLocalLoader().Load(context.Background(), dir, "")
	assert.True(t, errors.IsCode(err, errors.ErrCodeArtifactLoad))
}

func TestLoader_LoadFileUnknownExtension(t *testing.T) {
	_, err := newLocalLoader().LoadFile(context.Background(), "args.bin")
	assert.True(t, errors.IsConfigurationError(err))
}

type objectFixture map[string][]byte

func (o objectFixture) Open(_ context.Context, bucket, key string) (io.ReadCloser, error) {
	data, ok := o[bucket+"/"+key]
	if !ok {
		return nil, errors.New(errors.ErrCodeArtifactNotFound, "no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (o objectFixture) Put(_ context.Context, bucket, key string, data []byte, _ string) error {
	o[bucket+"/"+key] = data
	return nil
}

func TestLoader_LoadFromObjectStorage(t *testing.T) {
	store := objectFixture{"runs/exp_cond_alpha/args.yaml": []byte(yamlLegacyArgs)}
	l := NewLoader(artifact.NewResolver(store, nil))

	a, err := l.Load(context.Background(), "s3://runs/exp_cond_alpha", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "gap"}, a.Conditioning)
	assert.Equal(t, 2, a.ContextNodeNF())
	assert.Equal(t, "s3://checkpoints/vae/generative_model.npy", a.VAEPath)
	assert.Equal(t, 256, a.NF)
	assert.False(t, a.ConditionTime)
}

func TestFormatFromPath(t *testing.T) {
	f, ok := FormatFromPath("s3://b/args.YML")
	assert.True(t, ok)
	assert.Equal(t, FormatYAML, f)
	_, ok = FormatFromPath("args")
	assert.False(t, ok)
}

func TestDecodeRaw_UnsupportedFormat(t *testing.T) {
	_, err := DecodeRaw(Format("npy"), nil)
	assert.True(t, errors.IsConfigurationError(err))
}

//Personal.AI order the ending
