package dataset

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"flarecli/internal/errors"
	"flarecli/internal/flare"
	"flarecli/internal/infrastructure"
	"flarecli/pkg/contracts/domain"
)

// timestampLayouts are tried in order when parsing the timestamp column.
// The compact GOES token comes first since it is the dominant format.
var timestampLayouts = []string{
	domain.TimestampLayout, // 2022-09-24T123600Z
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// maxRowErrorsLogged throttles per-row degradation logging.
const maxRowErrorsLogged = 10

// sourceKey identifies one source snapshot under one column mapping. A
// change in any component invalidates the cached table; the schema is part
// of the key because the same file parsed under a different mapping yields a
// different table.
type sourceKey struct {
	path    string
	modTime time.Time
	size    int64
	schema  Schema
}

// Loader reads a CSV source into a canonical domain.Table and caches the
// result per source identity. It is safe for use from a single goroutine at
// a time per the request/response model; the internal mutex only guards the
// cache against accidental cross-request races.
type Loader struct {
	logger  *slog.Logger
	metrics *infrastructure.AppMetrics

	mu     sync.Mutex
	key    sourceKey
	cached *domain.Table
}

// NewLoader creates a loader. metrics may be nil.
func NewLoader(logger *slog.Logger, metrics *infrastructure.AppMetrics) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:  logger.With(slog.String("component", "dataset_loader")),
		metrics: metrics,
	}
}

// Load returns the canonical table for path, reusing the cached table when
// the source identity (path, mtime, size, schema) is unchanged. A missing or
// unreadable source is a fatal storage error; a header without the
// timestamp column is a fatal schema error. Individual row problems only
// degrade: bad timestamps drop the row, bad numerics become NaN.
func (l *Loader) Load(ctx context.Context, path string, schema Schema) (*domain.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewStorageError("source unavailable", err).WithContext("source", path)
	}

	key := sourceKey{path: path, modTime: info.ModTime(), size: info.Size(), schema: schema}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cached != nil && l.key == key {
		l.metrics.RecordDatasetLoad(ctx, true, 0, 0)
		return l.cached, nil
	}

	start := time.Now()
	table, err := l.loadFile(ctx, path, schema)
	if err != nil {
		return nil, err
	}

	l.key = key
	l.cached = table
	l.metrics.RecordDatasetLoad(ctx, false, len(table.Records), time.Since(start))

	l.logger.InfoContext(ctx, "canonical table loaded",
		slog.String("source", path),
		slog.Int("rows_read", table.RowsRead),
		slog.Int("rows_kept", len(table.Records)),
		slog.Int("rows_dropped", table.RowsDropped),
		slog.Int("field_degradations", table.FieldDegradation),
		slog.Duration("elapsed", time.Since(start)))

	return table, nil
}

// Invalidate drops the cached table so the next Load re-reads the source.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = nil
	l.key = sourceKey{}
}

func (l *Loader) loadFile(ctx context.Context, path string, schema Schema) (*domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewStorageError("source unavailable", err).WithContext("source", path)
	}
	defer f.Close()

	table, err := Parse(ctx, f, schema, l.logger)
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			appErr.WithContext("source", path)
		}
		return nil, err
	}
	return table, nil
}

// Parse reads CSV content from r into a canonical table. It is exported so
// the exporter round-trip and the report CLI can parse without a Loader.
func Parse(ctx context.Context, r io.Reader, schema Schema, logger *slog.Logger) (*domain.Table, error) {
	if logger == nil {
		logger = slog.Default()
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, errors.NewParsingError("source has no header row", err)
	}

	idx, err := resolveColumns(header, schema)
	if err != nil {
		return nil, err
	}

	table := &domain.Table{
		Capabilities: domain.Capabilities{
			HasStatus:         idx.status >= 0,
			HasFlareClass:     idx.flareClass >= 0,
			HasIntegratedFlux: idx.integratedFlux >= 0,
			HasBackgroundFlux: idx.backgroundFlux >= 0,
		},
	}

	errorsLogged := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			table.RowsDropped++
			errorsLogged++
			if errorsLogged <= maxRowErrorsLogged {
				logger.WarnContext(ctx, "csv read error, row dropped", slog.String("error", err.Error()))
			}
			continue
		}

		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}

		table.RowsRead++

		ts, ok := parseTimestamp(field(row, idx.timestamp))
		if !ok {
			// A row without a usable timestamp cannot participate in any
			// time-based view, so it is excluded rather than nulled.
			table.RowsDropped++
			errorsLogged++
			if errorsLogged <= maxRowErrorsLogged {
				logger.WarnContext(ctx, "unparseable timestamp, row dropped",
					slog.String("value", field(row, idx.timestamp)))
			}
			continue
		}

		rec := domain.Record{
			TimestampUTC:        ts,
			RawFlux:             parseMeasurement(field(row, idx.flux), &table.FieldDegradation),
			IntegratedFlux:      parseMeasurement(field(row, idx.integratedFlux), &table.FieldDegradation),
			BackgroundFlux:      parseMeasurement(field(row, idx.backgroundFlux), &table.FieldDegradation),
			Status:              strings.TrimSpace(field(row, idx.status)),
			FlareClassRaw:       strings.TrimSpace(field(row, idx.flareClass)),
			FlareClassMagnitude: math.NaN(),
		}

		if cls := flare.ParseClass(rec.FlareClassRaw); cls.Matched {
			rec.FlareClassLetter = cls.Letter
			rec.FlareClassMagnitude = cls.Magnitude
		}

		cal := flare.Decompose(ts)
		rec.Date = cal.Date
		rec.Hour = cal.Hour
		rec.Month = cal.Month
		rec.Year = cal.Year
		rec.Weekday = cal.Weekday

		table.Records = append(table.Records, rec)
	}

	if errorsLogged > maxRowErrorsLogged {
		logger.WarnContext(ctx, "further row degradations suppressed",
			slog.Int("total", errorsLogged-maxRowErrorsLogged))
	}

	// Source ordering is not guaranteed; sort unconditionally. The sort is
	// stable so records sharing a timestamp keep their source order.
	sort.SliceStable(table.Records, func(i, j int) bool {
		return table.Records[i].TimestampUTC.Before(table.Records[j].TimestampUTC)
	})

	return table, nil
}

// field returns row[i] or "" when the column is absent or the row is short.
func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseTimestamp tries the known layouts, normalizing to UTC.
func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseMeasurement parses an optional float column value. Absent or
// malformed values degrade to NaN and bump the degradation counter for
// malformed (non-empty) input.
func parseMeasurement(s string, degradations *int) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*degradations++
		return math.NaN()
	}
	return v
}

// FormatMeasurement renders a flux value the way the source carries it:
// scientific notation, empty string for NaN.
func FormatMeasurement(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'e', -1, 64)
}

// FormatTimestamp renders a timestamp in the compact source token.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(domain.TimestampLayout)
}
