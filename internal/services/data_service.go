// Package services orchestrates the dataset pipeline: loading the canonical
// table, filtering it into views, computing aggregates and exporting them.
// Handlers and the report CLI both go through this layer so every surface
// sees identical numbers.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"flarecli/internal/analytics"
	"flarecli/internal/config"
	"flarecli/internal/dataset"
	"flarecli/internal/exporter"
	"flarecli/internal/filter"
	"flarecli/internal/infrastructure"
	"flarecli/pkg/contracts/domain"
)

// DataService provides filtered and aggregated access to the flare dataset.
type DataService struct {
	cfg      *config.Config
	paths    *config.Paths
	schema   dataset.Schema
	source   string
	loader   *dataset.Loader
	analyzer *analytics.Analyzer
	metrics  *infrastructure.AppMetrics
	logger   *slog.Logger
}

// SchemaInfo describes the resolved source layout for the schema endpoint.
type SchemaInfo struct {
	Source       string              `json:"source"`
	Preset       string              `json:"preset"`
	Columns      dataset.Schema      `json:"columns"`
	Capabilities domain.Capabilities `json:"capabilities"`
	RowsRead     int                 `json:"rows_read"`
	RowsDropped  int                 `json:"rows_dropped"`
}

// NewDataService creates a new data service using default logger
func NewDataService(cfg *config.Config, paths *config.Paths) (*DataService, error) {
	return NewDataServiceWithDeps(cfg, paths, nil, slog.Default())
}

// NewDataServiceWithDeps creates a new data service with injected metrics and logger
func NewDataServiceWithDeps(cfg *config.Config, paths *config.Paths, metrics *infrastructure.AppMetrics, logger *slog.Logger) (*DataService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "data_service")

	schema, err := dataset.SchemaFromConfig(cfg.Dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema: %w", err)
	}

	source := paths.ResolveSource(cfg.Dataset.Source)
	logger.Info("DataService initialized",
		slog.String("source", source),
		slog.String("schema_preset", cfg.Dataset.SchemaPreset))

	return &DataService{
		cfg:      cfg,
		paths:    paths,
		schema:   schema,
		source:   source,
		loader:   dataset.NewLoader(logger, metrics),
		analyzer: analytics.NewAnalyzer(logger),
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// Snapshot returns the canonical table for the configured source, reloading
// it only when the file changed on disk.
func (ds *DataService) Snapshot(ctx context.Context) (*domain.Table, error) {
	return ds.loader.Load(ctx, ds.source, ds.schema)
}

// Filter loads the canonical table and applies the given filter config. A
// missing high-activity threshold falls back to the configured default, so
// every view carries the tag.
func (ds *DataService) Filter(ctx context.Context, cfg domain.FilterConfig) (domain.View, error) {
	if err := filter.Validate(cfg); err != nil {
		return domain.View{}, err
	}

	table, err := ds.Snapshot(ctx)
	if err != nil {
		return domain.View{}, err
	}

	if cfg.HighActivityThreshold == nil {
		threshold := ds.cfg.Dataset.HighActivityThreshold
		cfg.HighActivityThreshold = &threshold
	}

	view := filter.Apply(table, cfg)
	ds.metrics.RecordFilterRun(ctx, len(view.Records))

	ds.logger.DebugContext(ctx, "filter applied",
		slog.Int("total_rows", view.TotalRows),
		slog.Int("result_rows", len(view.Records)))

	return view, nil
}

// Aggregates computes the full aggregate bundle for a filtered view.
func (ds *DataService) Aggregates(ctx context.Context, cfg domain.FilterConfig) (domain.Bundle, error) {
	view, err := ds.Filter(ctx, cfg)
	if err != nil {
		return domain.Bundle{}, err
	}
	return ds.analyzer.Compute(ctx, view), nil
}

// ExportCSV renders a filtered view as CSV bytes in the source column layout.
func (ds *DataService) ExportCSV(ctx context.Context, cfg domain.FilterConfig) ([]byte, error) {
	view, err := ds.Filter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	data, err := exporter.RecordsCSV(view, ds.schema)
	if err != nil {
		return nil, fmt.Errorf("failed to export CSV: %w", err)
	}
	ds.metrics.RecordExport(ctx, "csv")
	return data, nil
}

// ExportExcel renders a filtered view plus its aggregates as an xlsx
// workbook.
func (ds *DataService) ExportExcel(ctx context.Context, cfg domain.FilterConfig) ([]byte, error) {
	view, err := ds.Filter(ctx, cfg)
	if err != nil {
		return nil, err
	}
	bundle := ds.analyzer.Compute(ctx, view)

	data, err := exporter.ExcelWorkbook(view, ds.schema, bundle)
	if err != nil {
		return nil, fmt.Errorf("failed to export workbook: %w", err)
	}
	ds.metrics.RecordExport(ctx, "xlsx")
	return data, nil
}

// SchemaInfo reports the resolved column mapping and the capabilities of the
// loaded source.
func (ds *DataService) SchemaInfo(ctx context.Context) (SchemaInfo, error) {
	table, err := ds.Snapshot(ctx)
	if err != nil {
		return SchemaInfo{}, err
	}
	return SchemaInfo{
		Source:       ds.source,
		Preset:       ds.cfg.Dataset.SchemaPreset,
		Columns:      ds.schema,
		Capabilities: table.Capabilities,
		RowsRead:     table.RowsRead,
		RowsDropped:  table.RowsDropped,
	}, nil
}

// Schema returns the resolved column mapping without touching the source.
func (ds *DataService) Schema() dataset.Schema {
	return ds.schema
}

// Source returns the resolved absolute source path.
func (ds *DataService) Source() string {
	return ds.source
}

// Invalidate drops the cached table; the next call re-reads the source.
func (ds *DataService) Invalidate() {
	ds.loader.Invalidate()
}
