// Package cli implements the molgen command line: fitting conditioning
// distributions, drawing conditioning batches, and inspecting generator
// args.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/turtacn/molgen/internal/config"
	"github.com/turtacn/molgen/internal/generative/common"
	"github.com/turtacn/molgen/internal/infrastructure/monitoring/logging"
	prommetrics "github.com/turtacn/molgen/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molgen/pkg/errors"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey is the context key for CLIContext.
type cliContextKey struct{}

// RootOptions holds global CLI flags.
type RootOptions struct {
	ConfigPath   string
	LogLevel     string
	OutputFormat string
	Verbose      bool
	Timeout      time.Duration
}

// CLIContext carries initialized dependencies through the command tree.
type CLIContext struct {
	Config       *config.Config
	Logger       logging.Logger
	Metrics      common.GenerativeMetrics
	Collector    *prommetrics.Collector
	RunID        string
	OutputFormat string

	cancel context.CancelFunc
}

// NewRootCommand creates the root cobra command with all global flags and subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "molgen",
		Short: "Conditioning distributions for latent molecular generation",
		Long: "molgen fits the node-count and per-size property distributions a latent\n" +
			"molecular generator is conditioned on, draws conditioning batches from them,\n" +
			"and inspects the hyperparameters of trained generator runs.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPreRun(cmd, opts)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return persistentPostRun(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (default: ./molgen.yaml)")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level override (debug, info, warn, error)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "table", "output format (table, json, yaml)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable debug logging")
	pf.DurationVar(&opts.Timeout, "timeout", 10*time.Minute, "global operation timeout")

	cmd.AddCommand(
		NewFitCmd(),
		NewSampleCmd(),
		NewArgsCmd(),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// The version command needs no configuration.
		PersistentPreRunE:  func(*cobra.Command, []string) error { return nil },
		PersistentPostRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "molgen %s (commit: %s, built: %s)\n", Version, GitCommit, BuildDate)
			return nil
		},
	}
}

// persistentPreRun initializes config, logger and metrics, then stores CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	switch opts.OutputFormat {
	case "table", "json", "yaml":
	default:
		return errors.ConfigurationError("unsupported output format").WithDetail(opts.OutputFormat)
	}

	cfg, err := initConfig(opts)
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("logger initialization failed: %w", err)
	}
	logging.SetDefault(logger)

	runID := uuid.NewString()
	cliCtx := &CLIContext{
		Config:       cfg,
		Logger:       logger.Named("molgen").With(logging.String("run_id", runID)),
		Metrics:      common.NewNoopGenerativeMetrics(),
		RunID:        runID,
		OutputFormat: opts.OutputFormat,
	}

	if cfg.Metrics.Enabled {
		collector, err := prommetrics.NewMetricsCollector(prommetrics.CollectorConfig{
			Namespace:       cfg.Metrics.Namespace,
			EnableGoMetrics: true,
			ConstLabels:     map[string]string{"run_id": runID, "command": cmd.Name(), "version": Version},
		}, logger)
		if err != nil {
			return err
		}
		metrics, err := common.NewPrometheusGenerativeMetrics(cfg.Metrics.Namespace, collector.Registerer())
		if err != nil {
			return err
		}
		cliCtx.Collector = collector
		cliCtx.Metrics = metrics
	}

	ctx := context.WithValue(cmd.Context(), cliContextKey{}, cliCtx)
	if opts.Timeout > 0 {
		ctx, cliCtx.cancel = context.WithTimeout(ctx, opts.Timeout)
	}
	cmd.SetContext(ctx)
	return nil
}

// persistentPostRun exports metrics and releases the command context.
func persistentPostRun(cmd *cobra.Command) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return nil
	}
	if cliCtx.cancel != nil {
		defer cliCtx.cancel()
	}
	if cliCtx.Collector != nil && cliCtx.Config.Metrics.Textfile != "" {
		return cliCtx.Collector.WriteTextfile(cliCtx.Config.Metrics.Textfile)
	}
	return nil
}

// initConfig loads configuration with priority: flags > env > file > defaults.
func initConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}

	searchPaths := []string{"./molgen.yaml"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(homeDir, ".molgen", "config.yaml"))
	}
	searchPaths = append(searchPaths, "/etc/molgen/config.yaml")

	for _, p := range searchPaths {
		if _, statErr := os.Stat(p); statErr == nil {
			return config.Load(p)
		}
	}
	return config.LoadFromEnv()
}

// GetCLIContext extracts CLIContext from a cobra command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, errors.ConfigurationError("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, errors.ConfigurationError("CLIContext not found in command context")
	}
	return cliCtx, nil
}

// Execute is the main entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		PrintError(rootCmd, err)
		return err
	}
	return nil
}

//Personal.AI order the ending
