package main

import (
	"fmt"
	"time"

	"healthcore/internal/healthstore"
	"healthcore/internal/models"
	"healthcore/internal/timeseries"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type seriesOptions struct {
	sampleType string
	from       string
	to         string
	bundle     string
	raw        bool
}

func newSeriesCmd(opts *globalOptions) *cobra.Command {
	so := &seriesOptions{}

	cmd := &cobra.Command{
		Use:   "series",
		Short: "Print a normalized physiological series",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := models.ParseSampleType(so.sampleType)
			if err != nil {
				return err
			}
			if t.IsCategory() {
				return fmt.Errorf("%s has no numeric series", t)
			}

			end, err := parseNow(so.to)
			if err != nil {
				return err
			}
			start := end.Add(-24 * time.Hour)
			if so.from != "" {
				if start, err = time.Parse(time.RFC3339, so.from); err != nil {
					return fmt.Errorf("invalid --from %q: %w", so.from, err)
				}
			}
			if end.Before(start) {
				return fmt.Errorf("--from must not be after --to")
			}

			lg := opts.logger()
			defer lg.Sync()

			store, closeStore, err := opts.openStore(cmd.Context(), lg)
			if err != nil {
				return err
			}
			defer closeStore()

			samples, err := store.Query(cmd.Context(), healthstore.Query{
				Type:     t,
				Interval: models.DateInterval{Start: start, End: end},
				Sort:     healthstore.SortStartAscending,
				Source:   healthstore.SourceFilter{BundlePrefix: so.bundle},
			})
			if err != nil {
				return err
			}

			series := models.QuantitiesOf(samples)
			if so.raw {
				series = timeseries.Interpolate(series)
			} else {
				series = timeseries.Downsample(series)
			}

			if len(series) == 0 {
				color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "No %s samples between %s and %s\n",
					t, start.Format(time.RFC3339), end.Format(time.RFC3339))
				return nil
			}
			renderSeries(cmd.OutOrStdout(), t, series)
			return nil
		},
	}

	cmd.Flags().StringVarP(&so.sampleType, "type", "t", string(models.SampleTypeHeartRate), "Quantity type: heartRate, activeEnergy or respiratoryRate")
	cmd.Flags().StringVar(&so.from, "from", "", "Range start (RFC3339), defaults to 24h before --to")
	cmd.Flags().StringVar(&so.to, "to", "", "Range end (RFC3339), defaults to now")
	cmd.Flags().StringVar(&so.bundle, "bundle", "", "Source bundle prefix")
	cmd.Flags().BoolVar(&so.raw, "raw", false, "Interpolate gaps instead of downsampling")
	return cmd
}
