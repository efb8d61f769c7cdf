// Package domain defines the shared contract types for the flare analytics
// pipeline: canonical records, filter configurations, and aggregate bundles.
// These types carry no behavior beyond simple accessors so they can cross
// package boundaries without dragging implementation dependencies along.
package domain

import (
	"math"
	"time"
)

// TimestampLayout is the compact ISO-like token used by the GOES summary
// exports, e.g. "2022-09-24T123600Z". It is also the layout records are
// re-emitted with on export so a round trip preserves the column value.
const TimestampLayout = "2006-01-02T150405Z"

// DateLayout formats the derived calendar date column.
const DateLayout = "2006-01-02"

// Record is one row of the canonical table: a single instrument reading
// enriched with derived fields. TimestampUTC is always valid; rows whose
// timestamp could not be parsed are dropped at load time. Optional numeric
// measurements are NaN when absent, optional strings are empty.
type Record struct {
	TimestampUTC   time.Time `json:"timestamp_utc"`
	RawFlux        float64   `json:"raw_flux"`
	IntegratedFlux float64   `json:"integrated_flux"`
	BackgroundFlux float64   `json:"background_flux"`
	Status         string    `json:"status,omitempty"`
	FlareClassRaw  string    `json:"flare_class,omitempty"`

	// Derived class fields. Letter is empty and Magnitude NaN when the raw
	// token did not match the expected pattern.
	FlareClassLetter    string  `json:"flare_class_letter,omitempty"`
	FlareClassMagnitude float64 `json:"flare_class_magnitude"`

	// Derived calendar decomposition of TimestampUTC (UTC calendar).
	Date    string       `json:"date"`
	Hour    int          `json:"hour"`
	Month   time.Month   `json:"month"`
	Year    int          `json:"year"`
	Weekday time.Weekday `json:"weekday"`

	// IsHighActivity is a per-view tag set by the filter engine when a
	// high-activity threshold clause is configured. It is not part of the
	// canonical table.
	IsHighActivity bool `json:"is_high_activity"`
}

// HasFlux reports whether the raw flux measurement is present.
func (r Record) HasFlux() bool {
	return !math.IsNaN(r.RawFlux)
}

// HasBackgroundFlux reports whether the background flux measurement is present.
func (r Record) HasBackgroundFlux() bool {
	return !math.IsNaN(r.BackgroundFlux)
}

// HasStatus reports whether the record carries an event lifecycle marker
// (EVENTSTART, EVENTPEAK, EVENTEND in the GOES exports).
func (r Record) HasStatus() bool {
	return r.Status != ""
}

// HasClass reports whether the flare class token parsed to a known letter.
func (r Record) HasClass() bool {
	return r.FlareClassLetter != ""
}

// Capabilities describes which optional logical fields the loaded source
// actually carried. It is resolved once from the header at load time and
// consumed as typed checks thereafter.
type Capabilities struct {
	HasStatus         bool `json:"has_status"`
	HasFlareClass     bool `json:"has_flare_class"`
	HasIntegratedFlux bool `json:"has_integrated_flux"`
	HasBackgroundFlux bool `json:"has_background_flux"`
}

// Table is the canonical, immutable record table for one source snapshot.
// Records are sorted by timestamp ascending. Consumers must treat the slice
// as read-only; the filter engine returns fresh views instead of mutating.
type Table struct {
	Records      []Record     `json:"records"`
	Capabilities Capabilities `json:"capabilities"`

	// Load bookkeeping, surfaced for diagnostics.
	RowsRead         int `json:"rows_read"`
	RowsDropped      int `json:"rows_dropped"`
	FieldDegradation int `json:"field_degradations"`
}

// Span returns the observed timestamp range of the table. ok is false for
// an empty table.
func (t *Table) Span() (min, max time.Time, ok bool) {
	if len(t.Records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	return t.Records[0].TimestampUTC, t.Records[len(t.Records)-1].TimestampUTC, true
}
