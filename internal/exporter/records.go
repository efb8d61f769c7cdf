package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"flarecli/internal/dataset"
	"flarecli/pkg/contracts/domain"
)

// RecordsCSV renders a filtered view as CSV bytes using the column names of
// the given schema, so re-parsing the output with the same schema yields the
// same records. Optional columns absent from the schema are omitted; absent
// measurements serialize as empty cells.
func RecordsCSV(view domain.View, schema dataset.Schema) ([]byte, error) {
	cols := recordColumns(schema)

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = c.name
	}
	if err := writer.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(cols))
	for i, rec := range view.Records {
		for j, c := range cols {
			row[j] = c.value(rec)
		}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type recordColumn struct {
	name  string
	value func(domain.Record) string
}

func recordColumns(schema dataset.Schema) []recordColumn {
	cols := []recordColumn{
		{schema.Timestamp, func(r domain.Record) string {
			return dataset.FormatTimestamp(r.TimestampUTC)
		}},
		{schema.Flux, func(r domain.Record) string {
			return dataset.FormatMeasurement(r.RawFlux)
		}},
	}
	if schema.Status != "" {
		cols = append(cols, recordColumn{schema.Status, func(r domain.Record) string {
			return r.Status
		}})
	}
	if schema.FlareClass != "" {
		cols = append(cols, recordColumn{schema.FlareClass, func(r domain.Record) string {
			return r.FlareClassRaw
		}})
	}
	if schema.IntegratedFlux != "" {
		cols = append(cols, recordColumn{schema.IntegratedFlux, func(r domain.Record) string {
			return dataset.FormatMeasurement(r.IntegratedFlux)
		}})
	}
	if schema.BackgroundFlux != "" {
		cols = append(cols, recordColumn{schema.BackgroundFlux, func(r domain.Record) string {
			return dataset.FormatMeasurement(r.BackgroundFlux)
		}})
	}
	return cols
}
