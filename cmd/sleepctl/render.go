package main

import (
	"fmt"
	"io"
	"time"

	"healthcore/internal/models"

	"github.com/fatih/color"
)

const clockLayout = "2006-01-02 15:04"

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	labelColor   = color.New(color.FgHiBlack)
	segmentColor = color.New(color.FgBlue)
)

func renderSession(w io.Writer, s *models.Sleep, sum models.SessionSummary) {
	title := "Sleep session"
	if sum.BundlePrefix != "" {
		title += " (" + sum.BundlePrefix + ")"
	}
	headerColor.Fprintln(w, title)

	renderSpan(w, "in bed", sum.InBedStart, sum.InBedEnd)
	renderSpan(w, "asleep", sum.SleepStart, sum.SleepEnd)
	labelColor.Fprintf(w, "  %-10s", "efficiency")
	fmt.Fprintf(w, " %s\n", efficiencyColor(sum.Efficiency).Sprintf("%.0f%%", sum.Efficiency*100))
	labelColor.Fprintf(w, "  %-10s", "segments")
	fmt.Fprintf(w, " %d\n", sum.SegmentCount)

	for i, m := range s.Samples {
		segmentColor.Fprintf(w, "  #%d", i+1)
		fmt.Fprintf(w, "  asleep %s-%s (%s)  in bed %s-%s\n",
			m.SleepInterval.Start.Format("15:04"), m.SleepInterval.End.Format("15:04"),
			m.SleepInterval.Duration().Round(time.Minute),
			m.InBedInterval.Start.Format("15:04"), m.InBedInterval.End.Format("15:04"),
		)
	}

	renderMetric(w, "heart rate", sum.HeartRateMean, "bpm")
	renderMetric(w, "energy", sum.EnergyTotal, "kcal")
	renderMetric(w, "resp. rate", sum.RespiratoryRateMean, "/min")
}

func renderSpan(w io.Writer, label string, start, end time.Time) {
	labelColor.Fprintf(w, "  %-10s", label)
	fmt.Fprintf(w, " %s - %s  %s\n", start.Format(clockLayout), end.Format(clockLayout), end.Sub(start).Round(time.Minute))
}

func renderMetric(w io.Writer, label string, v *float64, unit string) {
	if v == nil {
		return
	}
	labelColor.Fprintf(w, "  %-10s", label)
	fmt.Fprintf(w, " %.1f %s\n", *v, unit)
}

func efficiencyColor(e float64) *color.Color {
	switch {
	case e >= 0.85:
		return color.New(color.FgGreen)
	case e >= 0.7:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func renderSeries(w io.Writer, t models.SampleType, series []models.QuantityData) {
	headerColor.Fprintf(w, "%s (%d points)\n", t, len(series))
	for _, q := range series {
		fmt.Fprintf(w, "  %s  %.1f\n", q.Interval.Start.Format(time.RFC3339), q.Value)
	}
}
