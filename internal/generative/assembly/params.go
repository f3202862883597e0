// Package assembly derives the component hyperparameters of a generator run
// from its persisted args and wires the autoencoder, the latent flow and
// the conditioning distributions together.
package assembly

import (
	"github.com/turtacn/molgen/internal/generative/args"
	"github.com/turtacn/molgen/internal/generative/dataset"
	"github.com/turtacn/molgen/pkg/errors"
)

// NDims is the spatial dimensionality of atom coordinates.
const NDims = 3

// ActivationSiLU is the activation used by every EGNN block.
const ActivationSiLU = "silu"

// Optimizer defaults.
const (
	OptimizerAdamW     = "adamw"
	DefaultWeightDecay = 1e-12
)

// EGNNParams configures one equivariant graph network (encoder, decoder or
// dynamics).
type EGNNParams struct {
	InNodeNF            int     `json:"in_node_nf" yaml:"in_node_nf"`
	ContextNodeNF       int     `json:"context_node_nf" yaml:"context_node_nf"`
	OutNodeNF           int     `json:"out_node_nf,omitempty" yaml:"out_node_nf,omitempty"`
	NDims               int     `json:"n_dims" yaml:"n_dims"`
	HiddenNF            int     `json:"hidden_nf" yaml:"hidden_nf"`
	Activation          string  `json:"act_fn" yaml:"act_fn"`
	NLayers             int     `json:"n_layers" yaml:"n_layers"`
	Attention           bool    `json:"attention" yaml:"attention"`
	Tanh                bool    `json:"tanh" yaml:"tanh"`
	Mode                string  `json:"mode" yaml:"mode"`
	NormConstant        float64 `json:"norm_constant" yaml:"norm_constant"`
	InvSublayers        int     `json:"inv_sublayers" yaml:"inv_sublayers"`
	SinEmbedding        bool    `json:"sin_embedding" yaml:"sin_embedding"`
	NormalizationFactor float64 `json:"normalization_factor" yaml:"normalization_factor"`
	AggregationMethod   string  `json:"aggregation_method" yaml:"aggregation_method"`
	IncludeCharges      bool    `json:"include_charges" yaml:"include_charges"`
}

// Validate checks the widths line up.
func (p *EGNNParams) Validate() error {
	if p.InNodeNF <= 0 {
		return errors.ConfigurationError("in_node_nf must be positive")
	}
	if p.HiddenNF <= 0 {
		return errors.ConfigurationError("hidden_nf must be positive")
	}
	if p.NLayers <= 0 {
		return errors.ConfigurationError("n_layers must be positive")
	}
	if p.ContextNodeNF < 0 {
		return errors.ConfigurationError("context_node_nf must be non-negative")
	}
	return nil
}

// VAEParams configures the hierarchical autoencoder.
type VAEParams struct {
	Encoder        EGNNParams `json:"encoder" yaml:"encoder"`
	Decoder        EGNNParams `json:"decoder" yaml:"decoder"`
	InNodeNF       int        `json:"in_node_nf" yaml:"in_node_nf"`
	NDims          int        `json:"n_dims" yaml:"n_dims"`
	LatentNodeNF   int        `json:"latent_node_nf" yaml:"latent_node_nf"`
	KLWeight       float64    `json:"kl_weight" yaml:"kl_weight"`
	NormValues     []float64  `json:"norm_values" yaml:"norm_values"`
	IncludeCharges bool       `json:"include_charges" yaml:"include_charges"`
}

// FlowParams configures the latent optimal transport flow.
type FlowParams struct {
	Dynamics       EGNNParams `json:"dynamics" yaml:"dynamics"`
	InNodeNF       int        `json:"in_node_nf" yaml:"in_node_nf"`
	NDims          int        `json:"n_dims" yaml:"n_dims"`
	Timesteps      int        `json:"timesteps" yaml:"timesteps"`
	LossType       string     `json:"loss_type" yaml:"loss_type"`
	NormValues     []float64  `json:"norm_values" yaml:"norm_values"`
	IncludeCharges bool       `json:"include_charges" yaml:"include_charges"`
	DiscretePath   string     `json:"discrete_path" yaml:"discrete_path"`
	TrainableAE    bool       `json:"trainable_ae" yaml:"trainable_ae"`
	Distill        bool       `json:"distill" yaml:"distill"`
	// TimeConditioned is false when the dynamics network does not receive
	// the time channel.
	TimeConditioned bool `json:"time_conditioned" yaml:"time_conditioned"`
}

// OptimizerParams configures the optimizer of the generative model.
type OptimizerParams struct {
	Algorithm   string  `json:"algorithm" yaml:"algorithm"`
	LR          float64 `json:"lr" yaml:"lr"`
	AMSGrad     bool    `json:"amsgrad" yaml:"amsgrad"`
	WeightDecay float64 `json:"weight_decay" yaml:"weight_decay"`
}

// Plan holds every component parameter set derived from one run's args.
// Flow is nil for VAE-only runs.
type Plan struct {
	Mode          string           `json:"mode" yaml:"mode"`
	ContextNodeNF int              `json:"context_node_nf" yaml:"context_node_nf"`
	Conditioning  []string         `json:"conditioning,omitempty" yaml:"conditioning,omitempty"`
	VAE           *VAEParams       `json:"vae" yaml:"vae"`
	Flow          *FlowParams      `json:"flow,omitempty" yaml:"flow,omitempty"`
	Optimizer     *OptimizerParams `json:"optimizer" yaml:"optimizer"`
	VAEPath       string           `json:"vae_path,omitempty" yaml:"vae_path,omitempty"`
}

// AtomFeatureWidth is the one-hot atom width plus the optional charge
// channel.
func AtomFeatureWidth(a *args.GeneratorArgs, info *dataset.Info) int {
	n := len(info.AtomDecoder)
	if a.IncludeCharges {
		n++
	}
	return n
}

func egnnBase(a *args.GeneratorArgs) EGNNParams {
	return EGNNParams{
		ContextNodeNF:       a.ContextNodeNF(),
		NDims:               NDims,
		HiddenNF:            a.NF,
		Activation:          ActivationSiLU,
		NLayers:             a.NLayers,
		Attention:           a.Attention,
		Tanh:                a.Tanh,
		Mode:                a.Model,
		NormConstant:        a.NormConstant,
		InvSublayers:        a.InvSublayers,
		SinEmbedding:        a.SinEmbedding,
		NormalizationFactor: a.NormalizationFactor,
		AggregationMethod:   a.AggregationMethod,
	}
}

// BuildAutoencoder derives the encoder, decoder and VAE parameters.  The
// encoder always runs a single layer; the decoder uses n_layers.
func BuildAutoencoder(a *args.GeneratorArgs, info *dataset.Info) (*VAEParams, error) {
	if a == nil || info == nil {
		return nil, errors.ConfigurationError("generator args and dataset info are required")
	}
	if len(info.AtomDecoder) == 0 {
		return nil, errors.ConfigurationError("dataset info has an empty atom_decoder")
	}
	inNodeNF := AtomFeatureWidth(a, info)

	enc := egnnBase(a)
	enc.InNodeNF = inNodeNF
	enc.OutNodeNF = a.LatentNF
	enc.NLayers = 1
	enc.IncludeCharges = a.IncludeCharges

	dec := egnnBase(a)
	dec.InNodeNF = a.LatentNF
	dec.OutNodeNF = inNodeNF
	dec.IncludeCharges = a.IncludeCharges

	for _, p := range []*EGNNParams{&enc, &dec} {
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return &VAEParams{
		Encoder:        enc,
		Decoder:        dec,
		InNodeNF:       inNodeNF,
		NDims:          NDims,
		LatentNodeNF:   a.LatentNF,
		KLWeight:       a.KLWeight,
		NormValues:     append([]float64(nil), a.NormalizeFactors...),
		IncludeCharges: a.IncludeCharges,
	}, nil
}

// BuildFlow derives the dynamics and flow parameters.  The flow works in
// latent space, so its node width is latent_nf; condition_time adds one
// channel to the dynamics input.
func BuildFlow(a *args.GeneratorArgs) (*FlowParams, error) {
	if a == nil {
		return nil, errors.ConfigurationError("generator args are required")
	}
	dyn := egnnBase(a)
	dyn.InNodeNF = a.LatentNF
	if a.ConditionTime {
		dyn.InNodeNF++
	}
	if err := dyn.Validate(); err != nil {
		return nil, err
	}
	if a.DiffusionSteps <= 0 {
		return nil, errors.ConfigurationError("diffusion_steps must be positive")
	}
	return &FlowParams{
		Dynamics:        dyn,
		InNodeNF:        a.LatentNF,
		NDims:           NDims,
		Timesteps:       a.DiffusionSteps,
		LossType:        a.DiffusionLossType,
		NormValues:      append([]float64(nil), a.NormalizeFactors...),
		IncludeCharges:  a.IncludeCharges,
		DiscretePath:    a.DiscretePath,
		TrainableAE:     a.TrainableAE,
		Distill:         a.Distill,
		TimeConditioned: a.ConditionTime,
	}, nil
}

// BuildOptimizer returns AdamW with amsgrad and a negligible weight decay.
func BuildOptimizer(a *args.GeneratorArgs) *OptimizerParams {
	return &OptimizerParams{
		Algorithm:   OptimizerAdamW,
		LR:          a.LR,
		AMSGrad:     true,
		WeightDecay: DefaultWeightDecay,
	}
}

// PlanComponents validates a and derives every parameter set for a run.
func PlanComponents(a *args.GeneratorArgs, info *dataset.Info) (*Plan, error) {
	if a == nil {
		return nil, errors.ConfigurationError("generator args are required")
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	vae, err := BuildAutoencoder(a, info)
	if err != nil {
		return nil, err
	}
	plan := &Plan{
		Mode:          a.ProbabilisticModel,
		ContextNodeNF: a.ContextNodeNF(),
		Conditioning:  append([]string(nil), a.Conditioning...),
		VAE:           vae,
		Optimizer:     BuildOptimizer(a),
	}
	if a.VAEOnly() {
		return plan, nil
	}
	if plan.Flow, err = BuildFlow(a); err != nil {
		return nil, err
	}
	plan.VAEPath = a.VAEPath
	return plan, nil
}

//Personal.AI order the ending
