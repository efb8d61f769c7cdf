// Package dataset loads the raw CSV source into the canonical in-memory
// table: column-name mapping, per-row enrichment, stable timestamp ordering,
// and a cache keyed by source identity so repeated loads are cheap.
package dataset

import (
	"fmt"
	"strings"

	"flarecli/internal/config"
	"flarecli/internal/errors"
)

// Schema maps the logical record fields to physical CSV header names.
// Timestamp and Flux are required; empty optional entries mean the source
// does not carry that field.
type Schema struct {
	Timestamp      string `json:"timestamp"`
	Flux           string `json:"flux"`
	Status         string `json:"status,omitempty"`
	FlareClass     string `json:"flare_class,omitempty"`
	IntegratedFlux string `json:"integrated_flux,omitempty"`
	BackgroundFlux string `json:"background_flux,omitempty"`
}

// SchemaEUVS is the column layout of the GOES EUVS 1-minute summary export.
func SchemaEUVS() Schema {
	return Schema{
		Timestamp:      "timestamp_utc",
		Flux:           "xrs_b_flux",
		Status:         "status",
		FlareClass:     "flare_class",
		IntegratedFlux: "integrated_flux",
		BackgroundFlux: "background_flux",
	}
}

// SchemaEvents is the column layout of the per-event export variant.
func SchemaEvents() Schema {
	return Schema{
		Timestamp:      "time",
		Flux:           "flux",
		Status:         "event_status",
		FlareClass:     "class",
		BackgroundFlux: "bg_flux",
	}
}

// SchemaFromConfig resolves the configured preset and applies any explicit
// column overrides on top of it.
func SchemaFromConfig(cfg config.DatasetConfig) (Schema, error) {
	var s Schema
	switch strings.ToLower(cfg.SchemaPreset) {
	case "euvs", "":
		s = SchemaEUVS()
	case "events":
		s = SchemaEvents()
	default:
		return Schema{}, errors.NewConfigError(
			fmt.Sprintf("unknown dataset schema preset %q", cfg.SchemaPreset), nil)
	}

	o := cfg.Columns
	if o.Timestamp != "" {
		s.Timestamp = o.Timestamp
	}
	if o.Flux != "" {
		s.Flux = o.Flux
	}
	if o.Status != "" {
		s.Status = o.Status
	}
	if o.FlareClass != "" {
		s.FlareClass = o.FlareClass
	}
	if o.IntegratedFlux != "" {
		s.IntegratedFlux = o.IntegratedFlux
	}
	if o.BackgroundFlux != "" {
		s.BackgroundFlux = o.BackgroundFlux
	}

	if s.Timestamp == "" || s.Flux == "" {
		return Schema{}, errors.NewConfigError("schema must name a timestamp and a flux column", nil)
	}
	return s, nil
}

// columnIndex resolves the physical positions of the schema's columns in a
// header row. Header names are whitespace-trimmed and matched
// case-insensitively. A missing optional column resolves to -1.
type columnIndex struct {
	timestamp      int
	flux           int
	status         int
	flareClass     int
	integratedFlux int
	backgroundFlux int
}

func resolveColumns(header []string, schema Schema) (columnIndex, error) {
	find := func(name string) int {
		if name == "" {
			return -1
		}
		for i, h := range header {
			h = strings.TrimPrefix(h, "\uFEFF") // BOM from Excel-friendly exports
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}

	idx := columnIndex{
		timestamp:      find(schema.Timestamp),
		flux:           find(schema.Flux),
		status:         find(schema.Status),
		flareClass:     find(schema.FlareClass),
		integratedFlux: find(schema.IntegratedFlux),
		backgroundFlux: find(schema.BackgroundFlux),
	}

	if idx.timestamp < 0 {
		return idx, errors.NewSchemaError(
			fmt.Sprintf("timestamp column %q not present in source header", schema.Timestamp), nil)
	}
	if idx.flux < 0 {
		return idx, errors.NewSchemaError(
			fmt.Sprintf("flux column %q not present in source header", schema.Flux), nil)
	}
	return idx, nil
}
