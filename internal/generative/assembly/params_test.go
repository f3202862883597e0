package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/molgen/internal/generative/args"
	"github.com/turtacn/molgen/internal/generative/dataset"
	"github.com/turtacn/molgen/pkg/errors"
)

func newArgs() *args.GeneratorArgs {
	return &args.GeneratorArgs{
		ArgsVersion:         args.CurrentVersion,
		Dataset:             "qm9_second_half",
		Conditioning:        []string{"alpha"},
		IncludeCharges:      true,
		LatentNF:            2,
		NF:                  256,
		NLayers:             9,
		Attention:           true,
		Tanh:                true,
		Model:               "egnn_dynamics",
		NormConstant:        1,
		InvSublayers:        1,
		NormalizationFactor: 1,
		AggregationMethod:   args.AggregationSum,
		KLWeight:            0.01,
		NormalizeFactors:    []float64{1, 4, 10},
		ProbabilisticModel:  args.ModelFlow,
		ConditionTime:       true,
		DiffusionSteps:      1000,
		DiffusionLossType:   "l2",
		DiscretePath:        "OT_path",
		LR:                  1e-4,
	}
}

func newInfo() *dataset.Info {
	return &dataset.Info{
		Name:        "qm9",
		AtomDecoder: []string{"H", "C", "N", "O", "F"},
		NNodes:      map[int]int{9: 3, 12: 3},
	}
}

func TestBuildAutoencoder_Widths(t *testing.T) {
	vae, err := BuildAutoencoder(newArgs(), newInfo())
	require.NoError(t, err)

	assert.Equal(t, 6, vae.InNodeNF, "five atom types plus the charge channel")
	assert.Equal(t, NDims, vae.NDims)
	assert.Equal(t, 2, vae.LatentNodeNF)
	assert.Equal(t, 0.01, vae.KLWeight)
	assert.Equal(t, []float64{1, 4, 10}, vae.NormValues)

	assert.Equal(t, 6, vae.Encoder.InNodeNF)
	assert.Equal(t, 2, vae.Encoder.OutNodeNF)
	assert.Equal(t, 1, vae.Encoder.NLayers)
	assert.Equal(t, 1, vae.Encoder.ContextNodeNF)
	assert.Equal(t, ActivationSiLU, vae.Encoder.Activation)
	assert.True(t, vae.Encoder.IncludeCharges)

	assert.Equal(t, 2, vae.Decoder.InNodeNF)
	assert.Equal(t, 6, vae.Decoder.OutNodeNF)
	assert.Equal(t, 9, vae.Decoder.NLayers)
	assert.Equal(t, 256, vae.Decoder.HiddenNF)
	assert.Equal(t, "egnn_dynamics", vae.Decoder.Mode)
}

func TestBuildAutoencoder_WithoutCharges(t *testing.T) {
	a := newArgs()
	a.IncludeCharges = false
	a.Conditioning = nil

	vae, err := BuildAutoencoder(a, newInfo())
	require.NoError(t, err)
	assert.Equal(t, 5, vae.InNodeNF)
	assert.Equal(t, 0, vae.Encoder.ContextNodeNF)
}

func TestBuildAutoencoder_Invalid(t *testing.T) {
	_, err := BuildAutoencoder(nil, newInfo())
	assert.True(t, errors.IsConfigurationError(err))

	_, err = BuildAutoencoder(newArgs(), &dataset.Info{})
	assert.True(t, errors.IsConfigurationError(err))

	a := newArgs()
	a.LatentNF = 0
	_, err = BuildAutoencoder(a, newInfo())
	assert.True(t, errors.IsConfigurationError(err))
}

func TestBuildFlow_TimeChannel(t *testing.T) {
	flow, err := BuildFlow(newArgs())
	require.NoError(t, err)
	assert.Equal(t, 2, flow.InNodeNF)
	assert.Equal(t, 3, flow.Dynamics.InNodeNF)
	assert.Equal(t, 9, flow.Dynamics.NLayers)
	assert.True(t, flow.TimeConditioned)
	assert.Equal(t, 1000, flow.Timesteps)
	assert.Equal(t, "OT_path", flow.DiscretePath)
	assert.False(t, flow.Distill)

	a := newArgs()
	a.ConditionTime = false
	flow, err = BuildFlow(a)
	require.NoError(t, err)
	assert.Equal(t, 2, flow.Dynamics.InNodeNF)
	assert.False(t, flow.TimeConditioned)
}

func TestBuildFlow_RequiresDiffusionSteps(t *testing.T) {
	a := newArgs()
	a.DiffusionSteps = 0
	_, err := BuildFlow(a)
	assert.True(t, errors.IsConfigurationError(err))
}

func TestBuildOptimizer(t *testing.T) {
	opt := BuildOptimizer(newArgs())
	assert.Equal(t, &OptimizerParams{Algorithm: OptimizerAdamW, LR: 1e-4, AMSGrad: true, WeightDecay: 1e-12}, opt)
}

func TestPlanComponents(t *testing.T) {
	plan, err := PlanComponents(newArgs(), newInfo())
	require.NoError(t, err)
	assert.Equal(t, args.ModelFlow, plan.Mode)
	assert.Equal(t, 1, plan.ContextNodeNF)
	require.NotNil(t, plan.Flow)
	assert.Equal(t, plan.Flow.Dynamics.ContextNodeNF, plan.VAE.Encoder.ContextNodeNF)

	a := newArgs()
	a.ProbabilisticModel = args.ModelVAE
	a.DiffusionSteps = 0
	a.VAEPath = "ckpt/vae.bin"
	plan, err = PlanComponents(a, newInfo())
	require.NoError(t, err)
	assert.Nil(t, plan.Flow)
	assert.Empty(t, plan.VAEPath)
}

func TestPlanComponents_ValidatesArgs(t *testing.T) {
	a := newArgs()
	a.NormalizationFactor = 0
	_, err := PlanComponents(a, newInfo())
	assert.True(t, errors.IsConfigurationError(err))

	a = newArgs()
	a.AggregationMethod = ""
	_, err = PlanComponents(a, newInfo())
	assert.True(t, errors.IsConfigurationError(err))

	_, err = PlanComponents(nil, newInfo())
	assert.True(t, errors.IsConfigurationError(err))
}

//Personal.AI order the ending
