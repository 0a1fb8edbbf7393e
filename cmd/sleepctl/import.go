package main

import (
	"fmt"

	"healthcore/internal/fixture"
	"healthcore/internal/healthstore"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newImportCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <fixture.yaml>",
		Short: "Import a YAML fixture into a SQLite sample store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.dbPath == "" {
				return fmt.Errorf("--db is required")
			}
			lg := opts.logger()
			defer lg.Sync()

			samples, err := fixture.Load(args[0])
			if err != nil {
				return err
			}

			store, err := healthstore.OpenSQLiteStore(cmd.Context(), opts.dbPath, lg)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Import(cmd.Context(), samples); err != nil {
				return fmt.Errorf("failed to import %s: %w", args[0], err)
			}

			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "Imported %d samples into %s\n", len(samples), opts.dbPath)
			return nil
		},
	}
}
