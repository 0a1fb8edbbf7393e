package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"healthcore/internal/export"
	"healthcore/internal/models"
	"healthcore/internal/sleep"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type reconstructOptions struct {
	bundle   string
	now      string
	persist  bool
	ownID    string
	asJSON   bool
	xlsxPath string
}

func newReconstructCmd(opts *globalOptions) *cobra.Command {
	ro := &reconstructOptions{}

	cmd := &cobra.Command{
		Use:   "reconstruct",
		Short: "Reconstruct the latest sleep session",
		RunE: func(cmd *cobra.Command, args []string) error {
			now, err := parseNow(ro.now)
			if err != nil {
				return err
			}

			lg := opts.logger()
			defer lg.Sync()

			store, closeStore, err := opts.openStore(cmd.Context(), lg)
			if err != nil {
				return err
			}
			defer closeStore()

			var reconciler sleep.EpisodeReconciler
			if ro.persist {
				write := []models.SampleType{models.SampleTypeAsleep, models.SampleTypeInBed}
				if err := store.Authorize(cmd.Context(), models.AllSampleTypes, write); err != nil {
					return err
				}
				reconciler = sleep.NewReconciler(store, ro.ownID, lg)
			}

			clock := func() time.Time { return now }
			aggregator := sleep.NewAggregator(store, reconciler, lg, sleep.WithClock(clock))

			session, err := aggregator.Reconstruct(cmd.Context(), ro.bundle)
			if sleep.IsNoData(err) {
				color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "No sleep session found")
				return nil
			}
			if err != nil {
				return err
			}

			summary := models.Summarize(ro.bundle, session, now)
			if ro.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(summary); err != nil {
					return err
				}
			} else {
				renderSession(cmd.OutOrStdout(), session, summary)
			}

			if ro.xlsxPath != "" {
				data, err := export.SessionWorkbook(session)
				if err != nil {
					return err
				}
				if err := os.WriteFile(ro.xlsxPath, data, 0o644); err != nil {
					return fmt.Errorf("failed to write workbook: %w", err)
				}
				if !ro.asJSON {
					fmt.Fprintf(cmd.OutOrStdout(), "Workbook written to %s\n", ro.xlsxPath)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ro.bundle, "bundle", "", "Only use samples whose source bundle starts with this prefix")
	cmd.Flags().StringVar(&ro.now, "now", "", "Reconstruction time (RFC3339), defaults to the current time")
	cmd.Flags().BoolVar(&ro.persist, "persist", false, "Write accepted episodes back to the store")
	cmd.Flags().StringVar(&ro.ownID, "bundle-id", "com.healthcore.sleep", "Source bundle recorded on persisted episodes")
	cmd.Flags().BoolVar(&ro.asJSON, "json", false, "Print the session summary as JSON")
	cmd.Flags().StringVar(&ro.xlsxPath, "export", "", "Also write the session to this xlsx file")
	return cmd
}

func parseNow(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: %w", raw, err)
	}
	return t, nil
}
