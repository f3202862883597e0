package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/turtacn/molgen/internal/generative/args"
	"github.com/turtacn/molgen/internal/generative/assembly"
	"github.com/turtacn/molgen/internal/generative/dataset"
)

type argsOptions struct {
	dir   string
	epoch string
	file  string
	info  string
}

// ArgsReport is the loaded args with the component parameters derived
// from them.  Plan is nil when no dataset info is available.
type ArgsReport struct {
	Args *args.GeneratorArgs `json:"args" yaml:"args"`
	Plan *assembly.Plan      `json:"plan,omitempty" yaml:"plan,omitempty"`
}

// NewArgsCmd creates the args command.
func NewArgsCmd() *cobra.Command {
	opts := &argsOptions{}
	cmd := &cobra.Command{
		Use:   "args",
		Short: "Load generator args and print the assembled component parameters",
		Long: "Load the args of a trained generator run (JSON, YAML or TOML), upgrade\n" +
			"files written by older runs, check the dataset identity, and derive the\n" +
			"encoder, decoder, dynamics, flow and optimizer parameters.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			report, err := runArgs(cmd.Context(), cliCtx, opts)
			if err != nil {
				return err
			}
			if cliCtx.OutputFormat == "table" {
				// Nested parameters do not fit a table.
				return printYAML(cmd, report)
			}
			return PrintResult(cmd, report)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "", "Run directory holding args<epoch>.{pickle,json,yaml,yml,toml} (default: args.dir)")
	cmd.Flags().StringVar(&opts.epoch, "epoch", "", "Training epoch suffix of the args file (default: args.epoch)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Explicit args file: local path or s3://bucket/key")
	cmd.Flags().StringVar(&opts.info, "info", "", "Dataset info YAML (default: dataset.info_path)")
	cmd.MarkFlagsMutuallyExclusive("file", "dir")
	return cmd
}

func runArgs(ctx context.Context, cliCtx *CLIContext, opts *argsOptions) (*ArgsReport, error) {
	cfg := cliCtx.Config
	logger := cliCtx.Logger.Named("args")

	var res closers
	defer res.closeAll(logger)

	resolver, err := cliCtx.resolver(&res)
	if err != nil {
		return nil, err
	}
	loader := args.NewLoader(resolver,
		args.WithExpectedDataset(cfg.Args.ExpectedDataset),
		args.WithLogger(logger),
	)

	var a *args.GeneratorArgs
	if opts.file != "" {
		a, err = loader.LoadFile(ctx, opts.file)
	} else {
		dir, epoch := opts.dir, opts.epoch
		if dir == "" {
			dir = cfg.Args.Dir
		}
		if epoch == "" {
			epoch = cfg.Args.Epoch
		}
		a, err = loader.Load(ctx, dir, epoch)
	}
	if err != nil {
		return nil, err
	}

	report := &ArgsReport{Args: a}
	infoPath := opts.info
	if infoPath == "" {
		infoPath = cfg.Dataset.InfoPath
	}
	if infoPath == "" {
		logger.Info("No dataset info configured; skipping component parameters")
		return report, nil
	}
	info, err := dataset.LoadInfo(infoPath)
	if err != nil {
		return nil, err
	}
	if report.Plan, err = assembly.PlanComponents(a, info); err != nil {
		return nil, err
	}
	return report, nil
}

//Personal.AI order the ending
