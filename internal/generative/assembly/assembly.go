package assembly

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/molgen/internal/generative/args"
	"github.com/turtacn/molgen/internal/generative/artifact"
	"github.com/turtacn/molgen/internal/generative/common"
	"github.com/turtacn/molgen/internal/generative/dataset"
	"github.com/turtacn/molgen/internal/generative/distribution"
	"github.com/turtacn/molgen/internal/generative/sampling"
	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molgen/pkg/errors"
)

// Autoencoder is the externally implemented VAE.
type Autoencoder interface {
	// LoadState applies serialized weights.
	LoadState(ctx context.Context, weights []byte) error
	// SetTrainable freezes (false) or unfreezes (true) the weights.
	SetTrainable(trainable bool)
}

// Flow is the externally implemented latent flow.
type Flow interface{}

// Factory constructs the neural components.  The networks themselves live
// outside this module.
type Factory interface {
	NewAutoencoder(ctx context.Context, params *VAEParams) (Autoencoder, error)
	NewFlow(ctx context.Context, params *FlowParams, vae Autoencoder) (Flow, error)
}

// Pipeline is an assembled generator: the model components, their
// parameters, and the conditioning distributions.
type Pipeline struct {
	RunID         string
	Plan          *Plan
	Autoencoder   Autoencoder
	Flow          Flow
	Distributions *sampling.Fitted
	// PretrainedFrom is the checkpoint the autoencoder weights came from.
	PretrainedFrom string
}

// FitSettings carries the distribution options of a build.
type FitSettings struct {
	BinCount       int
	Fallback       distribution.FallbackPolicy
	Normalizer     distribution.Normalizer
	AllowRawValues bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithFitter replaces the default uncached Fitter.
func WithFitter(f *sampling.Fitter) Option {
	return func(b *Builder) { b.fitter = f }
}

// WithFitSettings sets bin count, fallback and normalizer.
func WithFitSettings(s FitSettings) Option {
	return func(b *Builder) { b.settings = s }
}

// WithWeightSource sets where vae_path checkpoints are read from.
func WithWeightSource(o artifact.Opener) Option {
	return func(b *Builder) { b.weights = o }
}

// WithMetrics sets the metrics backend.
func WithMetrics(m common.GenerativeMetrics) Option {
	return func(b *Builder) { b.metrics = common.OrNoop(m) }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(b *Builder) { b.logger = logging.OrNop(l) }
}

// Builder assembles Pipelines.
type Builder struct {
	factory  Factory
	fitter   *sampling.Fitter
	settings FitSettings
	weights  artifact.Opener
	metrics  common.GenerativeMetrics
	logger   logging.Logger
	newRunID func() string
}

// NewBuilder returns a Builder over factory.
func NewBuilder(factory Factory, opts ...Option) (*Builder, error) {
	if factory == nil {
		return nil, errors.ConfigurationError("component factory is required")
	}
	b := &Builder{
		factory:  factory,
		metrics:  common.NewNoopGenerativeMetrics(),
		logger:   logging.NewNopLogger(),
		newRunID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.fitter == nil {
		b.fitter = sampling.NewFitter(sampling.WithFitterMetrics(b.metrics), sampling.WithFitterLogger(b.logger))
	}
	if b.weights == nil {
		b.weights = artifact.NewResolver(nil, b.logger)
	}
	return b, nil
}

// Build assembles the generator described by a.  The node-count
// distribution comes from info's histogram; the property distribution is
// fitted on data only when a conditions on properties.  VAE-only runs stop
// after the autoencoder.  Otherwise a vae_path checkpoint is applied, the
// autoencoder is frozen unless trainable_ae is set, and the flow is built
// around it.
func (b *Builder) Build(ctx context.Context, a *args.GeneratorArgs, info *dataset.Info, data distribution.TrainingData) (*Pipeline, error) {
	if a == nil || info == nil {
		return nil, errors.ConfigurationError("generator args and dataset info are required")
	}
	if err := info.Validate(); err != nil {
		return nil, err
	}
	plan, err := PlanComponents(a, info)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{RunID: b.newRunID(), Plan: plan}
	logger := b.logger.With(logging.String("run_id", p.RunID))

	if p.Distributions, err = b.fitter.Fit(ctx, &sampling.FitRequest{
		Dataset:        a.Dataset,
		Histogram:      info.Histogram(),
		Data:           data,
		Properties:     a.Conditioning,
		BinCount:       b.settings.BinCount,
		Fallback:       b.settings.Fallback,
		Normalizer:     b.settings.Normalizer,
		AllowRawValues: b.settings.AllowRawValues,
	}); err != nil {
		return nil, err
	}

	if p.Autoencoder, err = b.factory.NewAutoencoder(ctx, plan.VAE); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeComponentBuild, "failed to build autoencoder")
	}
	if a.VAEOnly() {
		logger.Info("Assembled autoencoder",
			logging.Int("in_node_nf", plan.VAE.InNodeNF),
			logging.Int("latent_nf", plan.VAE.LatentNodeNF),
			logging.Int("context_node_nf", plan.ContextNodeNF),
		)
		return p, nil
	}

	if a.VAEPath != "" {
		if err := b.loadWeights(ctx, p.Autoencoder, a.VAEPath); err != nil {
			return nil, err
		}
		p.PretrainedFrom = a.VAEPath
		p.Autoencoder.SetTrainable(a.TrainableAE)
		logger.Info("Loaded autoencoder checkpoint",
			logging.String("path", a.VAEPath),
			logging.Bool("trainable", a.TrainableAE),
		)
	}

	if !plan.Flow.TimeConditioned {
		logger.Warn("Dynamics network is not conditioned on time")
	}
	if p.Flow, err = b.factory.NewFlow(ctx, plan.Flow, p.Autoencoder); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeComponentBuild, "failed to build flow")
	}
	logger.Info("Assembled latent flow",
		logging.Int("latent_nf", plan.Flow.InNodeNF),
		logging.Int("dynamics_in_node_nf", plan.Flow.Dynamics.InNodeNF),
		logging.Int("timesteps", plan.Flow.Timesteps),
		logging.Bool("distill", plan.Flow.Distill),
		logging.Int("context_node_nf", plan.ContextNodeNF),
	)
	return p, nil
}

func (b *Builder) loadWeights(ctx context.Context, vae Autoencoder, uri string) error {
	source := "file"
	if _, _, ok := artifact.ParseObjectURI(uri); ok {
		source = "s3"
	}
	start := time.Now()
	raw, err := artifact.ReadAll(ctx, b.weights, uri)
	if err == nil {
		if lerr := vae.LoadState(ctx, raw); lerr != nil {
			err = errors.Wrap(lerr, errors.ErrCodeArtifactLoad, "failed to apply autoencoder checkpoint").WithDetail(uri)
		}
	}
	b.metrics.RecordArtifactLoad(ctx, "checkpoint", source, float64(time.Since(start).Microseconds())/1000, err == nil)
	return err
}

//Personal.AI order the ending
