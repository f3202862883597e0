package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/molgen/internal/generative/args"
	"github.com/turtacn/molgen/internal/generative/dataset"
	"github.com/turtacn/molgen/internal/generative/distribution"
	"github.com/turtacn/molgen/internal/generative/sampling"
	"github.com/turtacn/molgen/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
)

type fitOptions struct {
	properties     []string
	out            string
	datasetName    string
	fromArgs       bool
	writeNormalize string
}

// FitSummary describes fitted distributions.
type FitSummary struct {
	Dataset    string    `json:"dataset" yaml:"dataset"`
	NodeCounts []int     `json:"node_counts" yaml:"node_counts"`
	Probs      []float64 `json:"probs" yaml:"probs"`
	Entropy    float64   `json:"entropy" yaml:"entropy"`
	Properties []string  `json:"properties,omitempty" yaml:"properties,omitempty"`
	BinCount   int       `json:"bin_count,omitempty" yaml:"bin_count,omitempty"`
	Partitions int       `json:"partitions,omitempty" yaml:"partitions,omitempty"`
	FromCache  bool      `json:"from_cache" yaml:"from_cache"`
	Snapshot   string    `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
}

func (s *FitSummary) TableHeaders() []string { return []string{"num_atoms", "prob"} }

func (s *FitSummary) TableRows() [][]string {
	rows := make([][]string, len(s.NodeCounts))
	for i, n := range s.NodeCounts {
		rows[i] = []string{fmt.Sprint(n), formatFloat(s.Probs[i])}
	}
	return rows
}

// NewFitCmd creates the fit command.
func NewFitCmd() *cobra.Command {
	opts := &fitOptions{}
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "Fit node-count and property distributions",
		Long: "Fit the node-count distribution from the dataset info histogram (or the\n" +
			"dataset table) and, for each requested property, one binned distribution per\n" +
			"node count.  The result can be written as a snapshot for the sample command.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			summary, err := runFit(cmd.Context(), cliCtx, opts)
			if err != nil {
				return err
			}
			return PrintResult(cmd, summary)
		},
	}

	cmd.Flags().StringSliceVar(&opts.properties, "properties", nil, "Property columns to condition on (e.g. alpha,gap)")
	cmd.Flags().StringVar(&opts.out, "out", "", "Snapshot destination: local path or s3://bucket/key")
	cmd.Flags().StringVar(&opts.datasetName, "dataset-name", "", "Dataset identifier recorded in the snapshot (default: args.expected_dataset)")
	cmd.Flags().BoolVar(&opts.fromArgs, "from-args", false, "Take properties and dataset name from the generator args at args.dir")
	cmd.Flags().StringVar(&opts.writeNormalize, "write-normalizer", "", "Write the mean/mad normalizer computed from the training data to this path")
	cmd.MarkFlagsMutuallyExclusive("properties", "from-args")
	return cmd
}

func runFit(ctx context.Context, cliCtx *CLIContext, opts *fitOptions) (*FitSummary, error) {
	cfg := cliCtx.Config
	logger := cliCtx.Logger.Named("fit")

	var res closers
	defer res.closeAll(logger)

	resolver, err := cliCtx.resolver(&res)
	if err != nil {
		return nil, err
	}

	properties := opts.properties
	name := opts.datasetName
	if name == "" {
		name = cfg.Args.ExpectedDataset
	}
	if opts.fromArgs {
		loader := args.NewLoader(resolver, args.WithExpectedDataset(cfg.Args.ExpectedDataset), args.WithLogger(logger))
		a, err := loader.Load(ctx, cfg.Args.Dir, cfg.Args.Epoch)
		if err != nil {
			return nil, err
		}
		properties = a.Conditioning
		name = a.Dataset
	}

	var src *dataset.SQLSource
	openSource := func() (*dataset.SQLSource, error) {
		if src != nil {
			return src, nil
		}
		s, err := cliCtx.datasetSource(ctx, &res)
		if err != nil {
			return nil, err
		}
		src = s
		return src, nil
	}

	var histogram map[int]float64
	if cfg.Dataset.InfoPath != "" {
		info, err := dataset.LoadInfo(cfg.Dataset.InfoPath)
		if err != nil {
			return nil, err
		}
		histogram = info.Histogram()
	} else {
		s, err := openSource()
		if err != nil {
			return nil, err
		}
		qctx, cancel := context.WithTimeout(ctx, cfg.Dataset.QueryTimeout)
		counts, err := s.NodeCountHistogram(qctx)
		cancel()
		if err != nil {
			return nil, err
		}
		histogram = distribution.HistogramFromCounts(counts)
	}

	fallback, normalizer, err := cliCtx.distributionSettings()
	if err != nil {
		return nil, err
	}

	req := &sampling.FitRequest{
		Dataset:        name,
		Histogram:      histogram,
		Properties:     properties,
		BinCount:       cfg.Distribution.BinCount,
		Fallback:       fallback,
		Normalizer:     normalizer,
		AllowRawValues: cfg.Distribution.AllowRawValues,
	}

	if len(properties) > 0 {
		s, err := openSource()
		if err != nil {
			return nil, err
		}
		qctx, cancel := context.WithTimeout(ctx, cfg.Dataset.QueryTimeout)
		table, err := s.Load(qctx, properties)
		cancel()
		if err != nil {
			return nil, err
		}
		req.Data = table

		if req.Normalizer == nil && !req.AllowRawValues {
			if req.Normalizer, err = distribution.ComputeNormalizer(table, properties); err != nil {
				return nil, err
			}
			logger.Info("Computed normalizer from training data", logging.Strings("properties", properties))
		}
		if opts.writeNormalize != "" {
			if err := distribution.WriteNormalizerFile(opts.writeNormalize, req.Normalizer); err != nil {
				return nil, err
			}
		}
	}

	fitter, err := cliCtx.fitter(&res)
	if err != nil {
		return nil, err
	}
	fitted, err := fitter.Fit(ctx, req)
	if err != nil {
		return nil, err
	}

	summary := &FitSummary{
		Dataset:    name,
		NodeCounts: fitted.Nodes.NodeCounts(),
		Probs:      fitted.Nodes.Probs(),
		Entropy:    fitted.Nodes.Entropy(),
		FromCache:  fitted.FromCache,
	}
	if p := fitted.Properties; p != nil {
		summary.Properties = p.Properties()
		summary.BinCount = p.BinCount()
		summary.Partitions = len(p.Properties()) * len(p.NodeCounts())
	}

	if opts.out != "" {
		raw, err := distribution.MarshalSnapshot(fitted.Snapshot(name))
		if err != nil {
			return nil, err
		}
		if err := resolver.Write(ctx, opts.out, raw); err != nil {
			return nil, err
		}
		summary.Snapshot = opts.out
		logger.Info("Wrote distribution snapshot",
			logging.String("uri", opts.out),
			logging.String("properties", strings.Join(summary.Properties, ",")),
		)

		pub, err := cliCtx.publisher(&res)
		if err != nil {
			return nil, err
		}
		if pub != nil {
			err := kafka.PublishSnapshot(ctx, pub, &kafka.SnapshotEvent{
				RunID:      cliCtx.RunID,
				Dataset:    name,
				URI:        opts.out,
				NodeCounts: summary.NodeCounts,
				Properties: summary.Properties,
				BinCount:   summary.BinCount,
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return summary, nil
}

//Personal.AI order the ending
