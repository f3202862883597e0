package args

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molgen/pkg/errors"
)

func decodeCurrent(t *testing.T) *GeneratorArgs {
	t.Helper()
	migrated, _, err := Migrate(currentArgs())
	require.NoError(t, err)
	a, _, err := Decode(migrated)
	require.NoError(t, err)
	return a
}

func TestDecode(t *testing.T) {
	migrated, _, err := Migrate(currentArgs())
	require.NoError(t, err)

	a, unused, err := Decode(migrated)
	require.NoError(t, err)
	assert.Equal(t, []string{"batch_size", "exp_name"}, unused)

	assert.Equal(t, "qm9_second_half", a.Dataset)
	assert.Equal(t, []string{"alpha"}, a.Conditioning)
	assert.True(t, a.IncludeCharges)
	assert.Equal(t, 1, a.LatentNF)
	assert.Equal(t, 256, a.NF)
	assert.Equal(t, 9, a.NLayers)
	assert.Equal(t, []float64{1, 4, 10}, a.NormalizeFactors)
	assert.Equal(t, "", a.VAEPath)
	assert.Equal(t, 1000, a.DiffusionSteps)
	assert.Equal(t, 1e-4, a.LR)
	assert.Equal(t, CurrentVersion, a.ArgsVersion)
	assert.Equal(t, 1, a.ContextNodeNF())
	assert.False(t, a.VAEOnly())
	assert.NoError(t, a.Validate())
}

func TestDecode_WeakTypes(t *testing.T) {
	raw := currentArgs()
	raw["nf"] = "128"
	raw["attention"] = "true"
	raw["diffusion_steps"] = 500.0

	a, _, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, 128, a.NF)
	assert.True(t, a.Attention)
	assert.Equal(t, 500, a.DiffusionSteps)
}

func TestDecode_BadType(t *testing.T) {
	raw := currentArgs()
	raw["nf"] = map[string]any{"hidden": 1}
	_, _, err := Decode(raw)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestGeneratorArgs_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(a *GeneratorArgs)
	}{
		{"empty dataset", func(a *GeneratorArgs) { a.Dataset = "" }},
		{"zero latent_nf", func(a *GeneratorArgs) { a.LatentNF = 0 }},
		{"zero nf", func(a *GeneratorArgs) { a.NF = 0 }},
		{"zero n_layers", func(a *GeneratorArgs) { a.NLayers = 0 }},
		{"zero inv_sublayers", func(a *GeneratorArgs) { a.InvSublayers = 0 }},
		{"no model", func(a *GeneratorArgs) { a.ProbabilisticModel = "" }},
		{"bad aggregation", func(a *GeneratorArgs) { a.AggregationMethod = "max" }},
		{"zero normalization factor", func(a *GeneratorArgs) { a.NormalizationFactor = 0 }},
		{"empty normalize factors", func(a *GeneratorArgs) { a.NormalizeFactors = nil }},
		{"zero normalize factor", func(a *GeneratorArgs) { a.NormalizeFactors = []float64{1, 0, 10} }},
		{"duplicate conditioning", func(a *GeneratorArgs) { a.Conditioning = []string{"alpha", "alpha"} }},
		{"empty conditioning name", func(a *GeneratorArgs) { a.Conditioning = []string{""} }},
		{"flow without steps", func(a *GeneratorArgs) { a.DiffusionSteps = 0 }},
		{"negative lr", func(a *GeneratorArgs) { a.LR = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := decodeCurrent(t)
			tt.mutate(a)
			assert.True(t, errors.IsConfigurationError(a.Validate()))
		})
	}
}

func TestGeneratorArgs_VAEOnlyNeedsNoDiffusionSteps(t *testing.T) {
	a := decodeCurrent(t)
	a.ProbabilisticModel = ModelVAE
	a.DiffusionSteps = 0
	assert.True(t, a.VAEOnly())
	assert.NoError(t, a.Validate())
}

//Personal.AI order the ending
