package domain

import "time"

// ClassAll is the permissive class filter value: no filtering by flare class.
const ClassAll = "All"

// FilterConfig is one user-chosen filter configuration. Every clause is
// optional and default-permissive; active clauses combine by logical AND.
//
// Threshold conventions (the two source dashboards disagreed, so the
// convention is fixed here): MinFlux keeps records with RawFlux >= MinFlux,
// while HighActivityThreshold tags records with RawFlux strictly greater
// than the threshold. Records with absent flux fail both clauses.
type FilterConfig struct {
	// From and To bound TimestampUTC inclusively.
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`

	// ToDateOnly marks a To bound that was supplied as a calendar date with
	// no time of day. Such a bound is widened to the last instant of that
	// day, so a date-only range covers its final day's measurements. An
	// explicit midnight timestamp is not widened.
	ToDateOnly bool `json:"to_date_only,omitempty"`

	// Classes keeps records whose derived class letter is a member. Empty,
	// or a single ClassAll entry, disables the clause.
	Classes []string `json:"classes,omitempty" validate:"omitempty,dive,oneof=All A B C M X"`

	// MinFlux keeps records with RawFlux >= MinFlux.
	MinFlux *float64 `json:"min_flux,omitempty" validate:"omitempty,gte=0"`

	// Status keeps records whose status equals this marker, compared
	// case-insensitively.
	Status string `json:"status,omitempty"`

	// HighActivityThreshold does not remove rows; it tags each surviving
	// record with IsHighActivity = RawFlux > threshold.
	HighActivityThreshold *float64 `json:"high_activity_threshold,omitempty" validate:"omitempty,gte=0"`
}

// View is a filtered, order-preserving subsequence of a canonical table.
// Each View owns its record slice; callers may not alias it back into the
// table it was derived from.
type View struct {
	Records []Record `json:"records"`

	// TotalRows is the canonical table size the view was filtered from,
	// kept so presentation can show "N of M records".
	TotalRows int `json:"total_rows"`

	// Config echoes the configuration that produced the view.
	Config FilterConfig `json:"config"`
}

// Empty reports whether the view holds no records. An empty view is a valid
// result, not an error.
func (v *View) Empty() bool {
	return len(v.Records) == 0
}
