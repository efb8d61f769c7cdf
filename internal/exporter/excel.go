package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"flarecli/internal/dataset"
	"flarecli/pkg/contracts/domain"
)

const (
	sheetRecords = "Records"
	sheetSummary = "Summary"
	sheetDaily   = "Daily"
)

// ExcelWorkbook renders a filtered view plus its aggregates as an xlsx
// workbook with Records, Summary and Daily sheets. Absent measurements
// become empty cells rather than NaN.
func ExcelWorkbook(view domain.View, schema dataset.Schema, bundle domain.Bundle) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetRecords); err != nil {
		return nil, fmt.Errorf("failed to name records sheet: %w", err)
	}
	if err := writeRecordsSheet(f, view, schema); err != nil {
		return nil, err
	}
	if err := writeSummarySheet(f, bundle.Summary); err != nil {
		return nil, err
	}
	if err := writeDailySheet(f, bundle.Daily); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// writeRecordsSheet streams the view rows. The stream writer keeps memory
// flat for large exports.
func writeRecordsSheet(f *excelize.File, view domain.View, schema dataset.Schema) error {
	sw, err := f.NewStreamWriter(sheetRecords)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	cols := recordColumns(schema)
	header := make([]interface{}, len(cols))
	for i, c := range cols {
		header[i] = c.name
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, rec := range view.Records {
		row := make([]interface{}, len(cols))
		for j, c := range cols {
			row[j] = c.value(rec)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	return sw.Flush()
}

func writeSummarySheet(f *excelize.File, summary domain.Summary) error {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	meanFlux := ""
	if summary.HasMeanFlux {
		meanFlux = dataset.FormatMeasurement(summary.MeanFlux)
	}

	rows := [][]interface{}{
		{"metric", "value"},
		{"total_records", summary.TotalRecords},
		{"high_activity_count", summary.HighActivityCount},
		{"event_count", summary.EventCount},
		{"mean_flux", meanFlux},
		{"high_activity_share", summary.HighActivityShare},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row %d: %w", i, err)
		}
	}
	return nil
}

func writeDailySheet(f *excelize.File, daily []domain.DailyStat) error {
	if _, err := f.NewSheet(sheetDaily); err != nil {
		return fmt.Errorf("failed to create daily sheet: %w", err)
	}

	header := []interface{}{"date", "max_flux", "mean_flux", "record_count", "high_activity_count"}
	if err := f.SetSheetRow(sheetDaily, "A1", &header); err != nil {
		return fmt.Errorf("failed to write daily header: %w", err)
	}

	for i, stat := range daily {
		row := []interface{}{
			stat.Date,
			dataset.FormatMeasurement(stat.MaxFlux),
			dataset.FormatMeasurement(stat.MeanFlux),
			stat.RecordCount,
			stat.HighActivityCount,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(sheetDaily, cell, &row); err != nil {
			return fmt.Errorf("failed to write daily row %d: %w", i, err)
		}
	}
	return nil
}
