package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/paveg/tabula/internal/config"
	"github.com/paveg/tabula/internal/monitoring"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Metrics    bool
	Separator  string

	logger    *slog.Logger
	collector *monitoring.MetricsCollector
}

// NewRootCommand creates the root command for the tabula CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "tabula",
		Short: "tabula - columnar DataFrames on Apache Arrow",
		Long: `Inspect and convert tabular data files.

The file format follows the extension: .csv, .tsv, .json, .ndjson,
.parquet and .arrow are supported.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.collector == nil {
				return nil
			}
			_, err := opts.collector.Summary().WriteTo(cmd.ErrOrStderr())
			return err
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "configuration file (.json, .yaml or .yml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "print operation metrics to stderr")
	cmd.PersistentFlags().StringVar(&opts.Separator, "sep", "", "CSV field separator")

	cmd.AddCommand(NewSchemaCommand(opts))
	cmd.AddCommand(NewHeadCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewVersionCommand())

	return cmd
}

// setup layers the config file, TABULA_* variables and flags, then
// installs the result as the global configuration.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg := config.NewConfig()
	if o.ConfigPath != "" {
		loaded, err := config.LoadFromFile(o.ConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg = config.LoadFromEnv(cfg)

	if o.Separator != "" {
		cfg.CSVSeparator = o.Separator
	}
	if o.Verbose {
		cfg.VerboseLogging = true
		cfg.LogLevel = "debug"
	}
	if o.Metrics {
		cfg.MetricsCollection = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	config.SetGlobalConfig(cfg)

	if cfg.MetricsCollection {
		o.collector = monitoring.EnableGlobalMonitoring()
	} else {
		monitoring.SetGlobalCollector(nil)
	}
	o.logger = config.Logger(cfg, cmd.ErrOrStderr())
	return nil
}
