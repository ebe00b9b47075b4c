package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/xyproto/env/v2"

	"github.com/Rot127/rz-hexagon/catalog"
	"github.com/Rot127/rz-hexagon/config"
	"github.com/Rot127/rz-hexagon/isa"
	"github.com/Rot127/rz-hexagon/snapshot"
)

// errChanged is returned by the diff command when the model differs from
// the previous snapshot.
var errChanged = errors.New("model changed")

type options struct {
	catalogPath string
	configPath  string
	logLevel    string

	log *logrus.Logger
}

func main() {
	err := newRootCmd().Execute()
	switch {
	case errors.Is(err, errChanged):
		os.Exit(1)
	case err != nil:
		logrus.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{log: logrus.New()}

	rootCmd := &cobra.Command{
		Use:           "wrangle",
		Short:         "Build the Hexagon instruction model from an llvm-tblgen JSON dump",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(opts.logLevel)
			if err != nil {
				return err
			}
			opts.log.SetLevel(level)
			opts.log.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.catalogPath, "catalog", env.Str("WRANGLE_CATALOG", "Hexagon.json"), "llvm-tblgen --dump-json output for the Hexagon target")
	flags.StringVar(&opts.configPath, "config", "", "TOML file overriding the built-in hardware constants")
	flags.StringVar(&opts.logLevel, "log-level", env.Str("WRANGLE_LOG", "info"), "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newBuildCmd(opts),
		newDumpCmd(opts),
		newTreeCmd(opts),
		newDiffCmd(opts),
	)
	return rootCmd
}

// buildModel loads the configuration and the catalog and builds the model.
func (o *options) buildModel() (*isa.Model, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		cfg, err = config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
	}

	cat, err := catalog.Load(o.catalogPath, catalog.Options{
		WordWidth: cfg.Encoding.WordWidth,
		SubWidth:  cfg.Encoding.SubWidth,
		SubType:   cfg.Encoding.SubType,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return isa.Build(cat, cfg, isa.Options{Log: o.log})
}

func newBuildCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build and validate the model, optionally writing a snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.buildModel()
			if err != nil {
				return err
			}
			if out == "" {
				return nil
			}

			data, err := snapshot.FromModel(m).Marshal()
			if err != nil {
				return err
			}
			written, err := snapshot.WriteFile(out, data)
			if err != nil {
				return err
			}
			if written {
				opts.log.WithField("file", out).Info("Snapshot written")
			} else {
				opts.log.WithField("file", out).Info("Snapshot unchanged")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "snapshot", "", "write a JSON snapshot of the model to this file")
	return cmd
}

func newDumpCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Dump the built model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.buildModel()
			if err != nil {
				return err
			}
			dumper := spew.ConfigState{
				Indent:                  "  ",
				SortKeys:                true,
				DisablePointerAddresses: true,
			}
			dumper.Fdump(cmd.OutOrStdout(), m)
			return nil
		},
	}
}

func newTreeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Summarize the model as a tree of classes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := opts.buildModel()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), modelTree(m).String())
			return nil
		},
	}
}

func newDiffCmd(opts *options) *cobra.Command {
	var (
		previous string
		color    bool
	)
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Compare the model with a previous snapshot; exits with status 1 if it changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, old, err := snapshot.Read(previous)
			if err != nil {
				return err
			}
			m, err := opts.buildModel()
			if err != nil {
				return err
			}
			current, err := snapshot.FromModel(m).Marshal()
			if err != nil {
				return err
			}

			report, changed, err := snapshot.Compare(old, current, color)
			if err != nil {
				return err
			}
			if !changed {
				opts.log.WithField("file", previous).Info("Model unchanged")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), report)
			return errChanged
		},
	}
	cmd.Flags().StringVar(&previous, "previous", "", "snapshot to compare with")
	cmd.Flags().BoolVar(&color, "color", false, "color the diff output")
	cmd.MarkFlagRequired("previous")
	return cmd
}
