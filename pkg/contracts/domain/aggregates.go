package domain

// Summary holds the headline counters for a filtered view. Mean values carry
// an explicit presence flag instead of NaN so an empty view serializes to a
// well-defined "no data" shape.
type Summary struct {
	TotalRecords      int     `json:"total_records"`
	HighActivityCount int     `json:"high_activity_count"`
	EventCount        int     `json:"event_count"`
	MeanFlux          float64 `json:"mean_flux"`
	HasMeanFlux       bool    `json:"has_mean_flux"`

	// Share of high-activity records in the view, percent. Zero when the
	// view is empty.
	HighActivityShare float64 `json:"high_activity_share"`
}

// DailyStat is one row of the daily rollup: aggregates over all records
// sharing a calendar date. Only dates present in the view appear; missing
// days are absent rather than zero-filled.
type DailyStat struct {
	Date              string  `json:"date"`
	MaxFlux           float64 `json:"max_flux"`
	MeanFlux          float64 `json:"mean_flux"`
	RecordCount       int     `json:"record_count"`
	HighActivityCount int     `json:"high_activity_count"`
}

// DistributionEntry is one bucket of a categorical histogram.
type DistributionEntry struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// HourlyStat is the mean flux profile for one hour of day across the view.
type HourlyStat struct {
	Hour        int     `json:"hour"`
	MeanFlux    float64 `json:"mean_flux"`
	RecordCount int     `json:"record_count"`
}

// RatioPoint is a per-record flux-to-background ratio. Records with a zero
// or absent background flux produce no point at all.
type RatioPoint struct {
	Timestamp string  `json:"timestamp"`
	Ratio     float64 `json:"ratio"`
}

// Bundle is the full set of named aggregates computed from one filtered
// view. Every member is independently computable and tolerates an empty
// view: counts are zero, slices are empty, never nil-dereferenced or
// NaN-laced.
type Bundle struct {
	Summary            Summary             `json:"summary"`
	Daily              []DailyStat         `json:"daily"`
	ClassDistribution  []DistributionEntry `json:"class_distribution"`
	StatusDistribution []DistributionEntry `json:"status_distribution"`
	HourlyProfile      []HourlyStat        `json:"hourly_profile"`
	FluxRatios         []RatioPoint        `json:"flux_ratios"`
}
