package exporter

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"flarecli/internal/config"
	"flarecli/internal/dataset"
	"flarecli/pkg/contracts/domain"
)

// ReportExporter writes aggregate reports to the reports directory. It backs
// the report CLI, which produces the same rollups the dashboard serves.
type ReportExporter struct {
	csvWriter *CSVWriter
	paths     *config.Paths
}

// NewReportExporter creates a new report exporter
func NewReportExporter(paths *config.Paths) *ReportExporter {
	return &ReportExporter{
		csvWriter: NewCSVWriter(paths),
		paths:     paths,
	}
}

// ExportDailyReport writes the daily rollup as a CSV report.
func (r *ReportExporter) ExportDailyReport(daily []domain.DailyStat, filename string) error {
	headers := []string{"Date", "MaxFlux", "MeanFlux", "RecordCount", "HighActivityCount"}

	rows := make([][]string, 0, len(daily))
	for _, stat := range daily {
		rows = append(rows, []string{
			stat.Date,
			dataset.FormatMeasurement(stat.MaxFlux),
			dataset.FormatMeasurement(stat.MeanFlux),
			strconv.Itoa(stat.RecordCount),
			strconv.Itoa(stat.HighActivityCount),
		})
	}

	if err := r.csvWriter.WriteReport(filename, headers, rows); err != nil {
		return fmt.Errorf("failed to write daily report: %w", err)
	}
	return nil
}

// ExportDistributions writes the class and status histograms into one CSV,
// with a Kind column discriminating the two.
func (r *ReportExporter) ExportDistributions(bundle domain.Bundle, filename string) error {
	headers := []string{"Kind", "Label", "Count"}

	rows := make([][]string, 0, len(bundle.ClassDistribution)+len(bundle.StatusDistribution))
	for _, e := range bundle.ClassDistribution {
		rows = append(rows, []string{"class", e.Label, strconv.Itoa(e.Count)})
	}
	for _, e := range bundle.StatusDistribution {
		rows = append(rows, []string{"status", e.Label, strconv.Itoa(e.Count)})
	}

	if err := r.csvWriter.WriteReport(filename, headers, rows); err != nil {
		return fmt.Errorf("failed to write distributions report: %w", err)
	}
	return nil
}

// ExportBundleJSON writes the full aggregate bundle as indented JSON.
func (r *ReportExporter) ExportBundleJSON(bundle domain.Bundle, filename string) error {
	fullPath := filename
	if !filepath.IsAbs(fullPath) {
		fullPath = r.paths.GetReportPath(filename)
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal aggregates: %w", err)
	}
	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write aggregates report: %w", err)
	}
	return nil
}

// ExportRecordsCSV streams a filtered view into a CSV report file using the
// source schema's column names.
func (r *ReportExporter) ExportRecordsCSV(view domain.View, schema dataset.Schema, filename string) error {
	cols := recordColumns(schema)
	headers := make([]string, len(cols))
	for i, c := range cols {
		headers[i] = c.name
	}

	stream, err := r.csvWriter.CreateStreamWriter(filename, headers)
	if err != nil {
		return fmt.Errorf("failed to create stream writer: %w", err)
	}

	row := make([]string, len(cols))
	for _, rec := range view.Records {
		for j, c := range cols {
			row[j] = c.value(rec)
		}
		if err := stream.WriteRecord(row); err != nil {
			stream.Close()
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	return stream.Close()
}
