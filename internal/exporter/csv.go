package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"flarecli/internal/config"
)

// utf8BOM marks report files as UTF-8 so Excel opens them correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter writes report CSV files under the configured reports directory.
type CSVWriter struct {
	paths *config.Paths
}

// NewCSVWriter creates a new CSV writer instance
func NewCSVWriter(paths *config.Paths) *CSVWriter {
	return &CSVWriter{paths: paths}
}

// WriteReport writes a complete report file: BOM, header row, then rows.
// An existing file with the same name is replaced.
func (w *CSVWriter) WriteReport(name string, headers []string, rows [][]string) error {
	fullPath := w.resolvePath(name)

	slog.Info("Writing report",
		slog.String("report", name),
		slog.String("full_path", fullPath),
		slog.Int("row_count", len(rows)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	return writer.Error()
}

// StreamWriter writes record-level exports row by row, so a large filtered
// view never has to be materialized as strings in memory.
type StreamWriter struct {
	file   *os.File
	writer *csv.Writer
}

// CreateStreamWriter opens a report file and writes the BOM and header row.
func (w *CSVWriter) CreateStreamWriter(name string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(name)

	slog.Info("Creating report stream writer",
		slog.String("report", name),
		slog.String("full_path", fullPath),
		slog.Int("header_count", len(headers)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := file.Write(utf8BOM); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(file)
	if err := writer.Write(headers); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to write headers: %w", err)
	}

	return &StreamWriter{
		file:   file,
		writer: writer,
	}, nil
}

// WriteRecord writes a single record to the stream
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes and closes the stream writer
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}

// resolvePath resolves a relative report name into the reports directory.
func (w *CSVWriter) resolvePath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return w.paths.GetReportPath(name)
}
