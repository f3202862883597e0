package cli

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/turtacn/molgen/internal/generative/artifact"
	"github.com/turtacn/molgen/internal/generative/distribution"
	"github.com/turtacn/molgen/internal/generative/sampling"
	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
)

// seedMix derives the second PCG word from the seed.
const seedMix = 0x9e3779b97f4a7c15

type sampleOptions struct {
	snapshot   string
	n          int
	seed       uint64
	nodeCounts []int
}

// SampleResult is one drawn conditioning batch.
type SampleResult struct {
	Seed           uint64 `json:"seed" yaml:"seed"`
	sampling.Batch `yaml:",inline"`
}

func (r *SampleResult) TableHeaders() []string {
	return append([]string{"num_atoms"}, r.Properties...)
}

func (r *SampleResult) TableRows() [][]string {
	rows := make([][]string, len(r.NodeCounts))
	for i, n := range r.NodeCounts {
		row := []string{fmt.Sprint(n)}
		if r.Values != nil {
			for _, v := range r.Values[i] {
				row = append(row, formatFloat(v))
			}
		}
		rows[i] = row
	}
	return rows
}

// NewSampleCmd creates the sample command.
func NewSampleCmd() *cobra.Command {
	opts := &sampleOptions{}
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Draw node counts and property rows from a snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("seed") {
				opts.seed = uint64(time.Now().UnixNano())
			}
			result, err := runSample(cmd.Context(), cliCtx, opts)
			if err != nil {
				return err
			}
			return PrintResult(cmd, result)
		},
	}

	cmd.Flags().StringVar(&opts.snapshot, "snapshot", "", "Snapshot written by fit: local path or s3://bucket/key (required)")
	cmd.Flags().IntVarP(&opts.n, "num", "n", 10, "Number of draws")
	cmd.Flags().Uint64Var(&opts.seed, "seed", 0, "Random seed (default: time based)")
	cmd.Flags().IntSliceVar(&opts.nodeCounts, "node-counts", nil, "Draw properties for these node counts instead of sampling them")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func runSample(ctx context.Context, cliCtx *CLIContext, opts *sampleOptions) (*SampleResult, error) {
	logger := cliCtx.Logger.Named("sample")

	var res closers
	defer res.closeAll(logger)

	resolver, err := cliCtx.resolver(&res)
	if err != nil {
		return nil, err
	}
	raw, err := artifact.ReadAll(ctx, resolver, opts.snapshot)
	if err != nil {
		return nil, err
	}
	snap, err := distribution.UnmarshalSnapshot(raw)
	if err != nil {
		return nil, err
	}

	fallback, normalizer, err := cliCtx.distributionSettings()
	if err != nil {
		return nil, err
	}
	restoreOpts := []distribution.Option{
		distribution.WithFallback(fallback),
		distribution.WithLogger(logger),
	}
	if normalizer != nil {
		restoreOpts = append(restoreOpts, distribution.WithNormalizer(normalizer))
	}
	if cliCtx.Config.Distribution.AllowRawValues {
		restoreOpts = append(restoreOpts, distribution.AllowRawValues())
	}
	fitted, err := sampling.Restore(snap, restoreOpts...)
	if err != nil {
		return nil, err
	}

	sampler, err := sampling.NewSampler(fitted,
		sampling.WithSamplerMetrics(cliCtx.Metrics),
		sampling.WithSamplerLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	src := rand.NewPCG(opts.seed, opts.seed^seedMix)
	var batch *sampling.Batch
	if len(opts.nodeCounts) > 0 {
		batch, err = sampler.DrawFor(ctx, opts.nodeCounts, src)
	} else {
		batch, err = sampler.Draw(ctx, opts.n, src)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("Drew conditioning batch",
		logging.String("dataset", snap.Dataset),
		logging.Int("draws", len(batch.NodeCounts)),
		logging.Any("seed", opts.seed),
	)
	return &SampleResult{Seed: opts.seed, Batch: *batch}, nil
}

//Personal.AI order the ending
