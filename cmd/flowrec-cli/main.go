package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/flowrec/flowrec"
	"yashubustudio/flowrec/internal/logging"
)

type rootOptions struct {
	configPath  string
	datasetPath string
	variant     string
	seed        uint64
	logLevel    string
}

// app bundles what every subcommand needs once startup succeeded.
type app struct {
	cfg    flowrec.Config
	logger *zap.Logger
	svc    *flowrec.Service
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "flowrec: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           filepath.Base(os.Args[0]),
		Short:         "Recommend before/after sampling flows for substance names",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	pf.StringVar(&opts.datasetPath, "dataset", "", "Reference flow dataset (JSON); overrides the config")
	pf.StringVar(&opts.variant, "variant", "", "Flow policy: per-sample-delta-window or single-mean-window")
	pf.Uint64Var(&opts.seed, "seed", 0, "Random seed; 0 uses the config value or the clock")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")

	cmd.AddCommand(
		newRecommendCommand(opts),
		newExtractCommand(),
		newServeCommand(opts),
	)
	return cmd
}

func (o *rootOptions) loadConfig() (flowrec.Config, error) {
	cfg, err := flowrec.LoadConfig(o.configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if o.datasetPath != "" {
		cfg.DatasetPath = o.datasetPath
	}
	if o.variant != "" {
		cfg.Variant = flowrec.Variant(o.variant)
	}
	if o.seed != 0 {
		cfg.Seed = o.seed
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

// bootstrap loads configuration and the reference dataset. A dataset that
// cannot be read is fatal: nothing can be recommended without it.
func (o *rootOptions) bootstrap(svcOpts ...flowrec.Option) (*app, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	table, err := flowrec.LoadReferenceTable(cfg.DatasetPath)
	if err != nil {
		logger.Error("reference dataset unavailable", zap.String("path", cfg.DatasetPath), zap.Error(err))
		return nil, err
	}
	logger.Info("reference dataset loaded",
		zap.String("path", cfg.DatasetPath),
		zap.Int("keys", table.Len()),
		zap.String("variant", string(cfg.Variant)))
	svc, err := flowrec.NewService(cfg, table, logger, svcOpts...)
	if err != nil {
		return nil, fmt.Errorf("init service: %w", err)
	}
	return &app{cfg: cfg, logger: logger, svc: svc}, nil
}
