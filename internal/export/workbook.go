// Package export renders reconstructed sessions as Excel workbooks.
package export

import (
	"bytes"
	"fmt"
	"math"

	"healthcore/internal/models"
	"healthcore/internal/timeseries"

	"github.com/xuri/excelize/v2"
)

const (
	SegmentsSheet  = "Segments"
	HeartRateSheet = "Heart Rate"

	timeLayout = "2006-01-02 15:04:05"
)

// SegmentsHeader columns of the Segments sheet
var SegmentsHeader = []string{
	"Segment",
	"Sleep Start",
	"Sleep End",
	"In Bed Start",
	"In Bed End",
	"Asleep (min)",
	"In Bed (min)",
	"Heart Rate Mean",
	"Energy Total",
	"Respiratory Rate Mean",
}

// HeartRateHeader columns of the Heart Rate sheet
var HeartRateHeader = []string{"Time", "Heart Rate"}

// SessionWorkbook one row per segment plus the downsampled heart-rate series of the session.
func SessionWorkbook(s *models.Sleep) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open; close on every path below

	index, err := f.NewSheet(SegmentsSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(HeartRateSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeHeader(f, SegmentsSheet, SegmentsHeader, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeHeader(f, HeartRateSheet, HeartRateHeader, headerStyle); err != nil {
		f.Close()
		return nil, err
	}

	for i, ms := range s.Samples {
		row := []interface{}{
			i + 1,
			ms.SleepInterval.Start.Format(timeLayout),
			ms.SleepInterval.End.Format(timeLayout),
			ms.InBedInterval.Start.Format(timeLayout),
			ms.InBedInterval.End.Format(timeLayout),
			round1(ms.SleepInterval.Duration().Minutes()),
			round1(ms.InBedInterval.Duration().Minutes()),
			optional(models.MeanValue(ms.Heart)),
			optional(sumOrNaN(ms.Energy)),
			optional(models.MeanValue(ms.Respiratory)),
		}
		if err := writeRow(f, SegmentsSheet, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, point := range timeseries.Downsample(s.HeartRate()) {
		row := []interface{}{point.Interval.Start.Format(timeLayout), round1(point.Value)}
		if err := writeRow(f, HeartRateSheet, i+2, row); err != nil {
			f.Close()
			return nil, err
		}
	}

	for _, sheet := range []string{SegmentsSheet, HeartRateSheet} {
		if err := f.SetColWidth(sheet, "A", "J", 20); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to freeze panes: %w", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	return nil
}

// writeRow writes values from column A; nil values leave the cell empty.
func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	for col, value := range values {
		if value == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to set cell %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func sumOrNaN(samples []models.Sample) float64 {
	if len(samples) == 0 {
		return math.NaN()
	}
	return models.SumValue(samples)
}

// optional maps NaN to an empty cell.
func optional(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return round1(v)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
