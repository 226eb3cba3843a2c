package main

import (
	"fmt"
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/spf13/cobra"

	"github.com/paveg/tabula/internal/dataframe"
	"github.com/paveg/tabula/internal/io"
	"github.com/paveg/tabula/internal/monitoring"
	"github.com/paveg/tabula/internal/version"
)

const defaultHeadRows = 10

// NewSchemaCommand creates the schema command.
func NewSchemaCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <file>",
		Short: "Print column names and types",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			df, err := readFrame(rootOpts, args[0])
			if err != nil {
				return err
			}
			defer df.Release()

			out := cmd.OutOrStdout()
			for _, field := range df.Schema() {
				fmt.Fprintf(out, "%s: %s\n", field.Name, field.DataType)
			}
			h, w := df.Shape()
			fmt.Fprintf(out, "shape: (%d, %d)\n", h, w)
			return nil
		},
	}
}

// NewHeadCommand creates the head command.
func NewHeadCommand(rootOpts *RootOptions) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "head <file>",
		Short: "Print the first rows of a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rows < 0 {
				return fmt.Errorf("invalid row count %d: must be non-negative", rows)
			}
			df, err := readFrame(rootOpts, args[0])
			if err != nil {
				return err
			}
			defer df.Release()

			head, err := df.Lazy().Head(rows).Collect()
			if err != nil {
				return err
			}
			defer head.Release()

			fmt.Fprintln(cmd.OutOrStdout(), head)
			return nil
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", defaultHeadRows, "number of rows to print")
	return cmd
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <file>",
		Short: "Print summary statistics of every column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			df, err := readFrame(rootOpts, args[0])
			if err != nil {
				return err
			}
			defer df.Release()

			var stats *dataframe.DataFrame
			err = monitoring.RecordGlobalOperation("Describe", func() (int, error) {
				var err error
				stats, err = df.Describe()
				if err != nil {
					return 0, err
				}
				return df.Len(), nil
			})
			if err != nil {
				return err
			}
			defer stats.Release()

			fmt.Fprintln(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a file to the format of the output extension",
		Long: `Convert reads the input and writes it to output. Both formats are
taken from the file extensions; CSV output uses the --sep separator.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := io.FormatFromPath(args[1]); err != nil {
				return err
			}
			df, err := readFrame(rootOpts, args[0])
			if err != nil {
				return err
			}
			defer df.Release()

			err = monitoring.RecordGlobalOperation("Write", func() (int, error) {
				return df.Len(), io.WriteFile(args[1], df)
			})
			if err != nil {
				return fmt.Errorf("writing %s: %w", args[1], err)
			}
			rootOpts.logger.Info("converted",
				slog.String("input", args[0]),
				slog.String("output", args[1]),
				slog.Int("rows", df.Len()),
			)
			return nil
		},
	}
}

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), version.Info().String())
			return nil
		},
	}
}

// readFrame reads path in the format implied by its extension.
func readFrame(opts *RootOptions, path string) (*dataframe.DataFrame, error) {
	var df *dataframe.DataFrame
	err := monitoring.RecordGlobalOperation("Read", func() (int, error) {
		var err error
		df, err = io.ReadFile(path, memory.NewGoAllocator())
		if err != nil {
			return 0, err
		}
		return df.Len(), nil
	})
	if err != nil {
		return nil, err
	}
	opts.logger.Debug("read", slog.String("path", path), slog.Int("rows", df.Len()), slog.Int("columns", df.Width()))
	return df, nil
}
