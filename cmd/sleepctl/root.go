package main

import (
	"context"
	"fmt"

	"healthcore/common/logger"
	"healthcore/internal/fixture"
	"healthcore/internal/healthstore"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var version = "dev"

// globalOptions flags shared by every subcommand
type globalOptions struct {
	samplesPath string
	dbPath      string
	verbose     bool
	noColor     bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "sleepctl",
		Short: "Reconstruct sleep sessions from health samples",
		Long: `sleepctl runs the sleep session reconstruction against local data.

Samples come either from a YAML fixture (--samples) loaded into memory,
or from a SQLite sample store (--db) filled with "sleepctl import".

Quick Start:
  sleepctl import night.yaml --db health.db
  sleepctl reconstruct --db health.db --now 2024-03-02T09:00:00Z
  sleepctl series --db health.db --type heartRate`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	root.PersistentFlags().StringVar(&opts.samplesPath, "samples", "", "YAML sample fixture loaded into an in-memory store")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "SQLite sample store")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	root.AddCommand(
		newImportCmd(opts),
		newReconstructCmd(opts),
		newSeriesCmd(opts),
	)
	return root
}

func (o *globalOptions) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	lg, err := logger.NewDevelopmentLogger()
	if err != nil {
		return zap.NewNop()
	}
	return lg
}

// openStore opens the store selected by --samples or --db.
func (o *globalOptions) openStore(ctx context.Context, lg *zap.Logger) (healthstore.Store, func(), error) {
	switch {
	case o.samplesPath != "" && o.dbPath != "":
		return nil, nil, fmt.Errorf("--samples and --db are mutually exclusive")

	case o.samplesPath != "":
		samples, err := fixture.Load(o.samplesPath)
		if err != nil {
			return nil, nil, err
		}
		store := healthstore.NewMemoryStore()
		store.Seed(samples...)
		lg.Debug("Loaded fixture", zap.String("file", o.samplesPath), zap.Int("samples", len(samples)))
		return store, func() {}, nil

	case o.dbPath != "":
		store, err := healthstore.OpenSQLiteStore(ctx, o.dbPath, lg)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("one of --samples or --db is required")
	}
}
