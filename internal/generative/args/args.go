// Package args loads the hyperparameters a generator run was trained with
// and migrates files written by older runs to the current layout.
package args

import (
	"fmt"
	"math"

	"github.com/turtacn/molgen/pkg/errors"
)

// Probabilistic model identifiers.
const (
	ModelVAE  = "vae"
	ModelFlow = "goat"
)

// Aggregation methods accepted by the EGNN message passing.
const (
	AggregationSum  = "sum"
	AggregationMean = "mean"
)

// GeneratorArgs are the persisted hyperparameters of a generator run.
type GeneratorArgs struct {
	ArgsVersion int    `mapstructure:"args_version" json:"args_version" yaml:"args_version"`
	Dataset     string `mapstructure:"dataset" json:"dataset" yaml:"dataset"`

	// Conditioning lists the property columns the flow is conditioned on.
	Conditioning   []string `mapstructure:"conditioning" json:"conditioning" yaml:"conditioning"`
	IncludeCharges bool     `mapstructure:"include_charges" json:"include_charges" yaml:"include_charges"`

	// EGNN
	LatentNF            int     `mapstructure:"latent_nf" json:"latent_nf" yaml:"latent_nf"`
	NF                  int     `mapstructure:"nf" json:"nf" yaml:"nf"`
	NLayers             int     `mapstructure:"n_layers" json:"n_layers" yaml:"n_layers"`
	Attention           bool    `mapstructure:"attention" json:"attention" yaml:"attention"`
	Tanh                bool    `mapstructure:"tanh" json:"tanh" yaml:"tanh"`
	Model               string  `mapstructure:"model" json:"model" yaml:"model"`
	NormConstant        float64 `mapstructure:"norm_constant" json:"norm_constant" yaml:"norm_constant"`
	InvSublayers        int     `mapstructure:"inv_sublayers" json:"inv_sublayers" yaml:"inv_sublayers"`
	SinEmbedding        bool    `mapstructure:"sin_embedding" json:"sin_embedding" yaml:"sin_embedding"`
	NormalizationFactor float64 `mapstructure:"normalization_factor" json:"normalization_factor" yaml:"normalization_factor"`
	AggregationMethod   string  `mapstructure:"aggregation_method" json:"aggregation_method" yaml:"aggregation_method"`

	// VAE
	KLWeight           float64   `mapstructure:"kl_weight" json:"kl_weight" yaml:"kl_weight"`
	NormalizeFactors   []float64 `mapstructure:"normalize_factors" json:"normalize_factors" yaml:"normalize_factors"`
	ProbabilisticModel string    `mapstructure:"probabilistic_model" json:"probabilistic_model" yaml:"probabilistic_model"`
	VAEPath            string    `mapstructure:"vae_path" json:"vae_path,omitempty" yaml:"vae_path,omitempty"`

	// Flow
	ConditionTime     bool   `mapstructure:"condition_time" json:"condition_time" yaml:"condition_time"`
	DiffusionSteps    int    `mapstructure:"diffusion_steps" json:"diffusion_steps" yaml:"diffusion_steps"`
	DiffusionLossType string `mapstructure:"diffusion_loss_type" json:"diffusion_loss_type" yaml:"diffusion_loss_type"`
	DiscretePath      string `mapstructure:"discrete_path" json:"discrete_path" yaml:"discrete_path"`
	TrainableAE       bool   `mapstructure:"trainable_ae" json:"trainable_ae" yaml:"trainable_ae"`
	Distill           bool   `mapstructure:"distill" json:"distill" yaml:"distill"`

	LR float64 `mapstructure:"lr" json:"lr" yaml:"lr"`
}

// ContextNodeNF is the per-node context width: one channel per
// conditioning property.
func (a *GeneratorArgs) ContextNodeNF() int { return len(a.Conditioning) }

// VAEOnly reports whether the run trains the autoencoder alone.
func (a *GeneratorArgs) VAEOnly() bool { return a.ProbabilisticModel == ModelVAE }

// Validate checks value ranges.  Field presence is enforced by Migrate.
func (a *GeneratorArgs) Validate() error {
	if a.Dataset == "" {
		return errors.ConfigurationError("dataset is required")
	}
	if a.LatentNF <= 0 {
		return errors.ConfigurationError("latent_nf must be positive")
	}
	if a.NF <= 0 {
		return errors.ConfigurationError("nf must be positive")
	}
	if a.NLayers <= 0 {
		return errors.ConfigurationError("n_layers must be positive")
	}
	if a.InvSublayers <= 0 {
		return errors.ConfigurationError("inv_sublayers must be positive")
	}
	if a.ProbabilisticModel == "" {
		return errors.ConfigurationError("probabilistic_model is required")
	}
	switch a.AggregationMethod {
	case AggregationSum, AggregationMean:
	default:
		return errors.ConfigurationError("aggregation_method must be sum or mean").WithDetail(a.AggregationMethod)
	}
	if a.NormalizationFactor <= 0 || math.IsInf(a.NormalizationFactor, 0) || math.IsNaN(a.NormalizationFactor) {
		return errors.ConfigurationError("normalization_factor must be a positive finite number")
	}
	if len(a.NormalizeFactors) == 0 {
		return errors.ConfigurationError("normalize_factors must not be empty")
	}
	for i, f := range a.NormalizeFactors {
		if f == 0 || math.IsInf(f, 0) || math.IsNaN(f) {
			return errors.ConfigurationError("normalize_factors entries must be finite and non-zero").
				WithDetail(fmt.Sprintf("index=%d", i))
		}
	}
	seen := make(map[string]struct{}, len(a.Conditioning))
	for _, p := range a.Conditioning {
		if p == "" {
			return errors.ConfigurationError("conditioning contains an empty property name")
		}
		if _, dup := seen[p]; dup {
			return errors.ConfigurationError("conditioning lists a property twice").WithDetail(p)
		}
		seen[p] = struct{}{}
	}
	if !a.VAEOnly() && a.DiffusionSteps <= 0 {
		return errors.ConfigurationError("diffusion_steps must be positive")
	}
	if a.LR < 0 {
		return errors.ConfigurationError("lr must not be negative")
	}
	return nil
}

//Personal.AI order the ending
