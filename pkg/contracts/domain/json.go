package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Absent measurements are NaN in memory but must serialize as null:
// encoding/json rejects NaN outright, and the dashboard treats null as
// "no data".

func nullableFlux(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// MarshalJSON renders absent measurements as null.
func (r Record) MarshalJSON() ([]byte, error) {
	type recordJSON struct {
		TimestampUTC        time.Time    `json:"timestamp_utc"`
		RawFlux             *float64     `json:"raw_flux"`
		IntegratedFlux      *float64     `json:"integrated_flux"`
		BackgroundFlux      *float64     `json:"background_flux"`
		Status              string       `json:"status,omitempty"`
		FlareClassRaw       string       `json:"flare_class,omitempty"`
		FlareClassLetter    string       `json:"flare_class_letter,omitempty"`
		FlareClassMagnitude *float64     `json:"flare_class_magnitude"`
		Date                string       `json:"date"`
		Hour                int          `json:"hour"`
		Month               time.Month   `json:"month"`
		Year                int          `json:"year"`
		Weekday             time.Weekday `json:"weekday"`
		IsHighActivity      bool         `json:"is_high_activity"`
	}
	return json.Marshal(recordJSON{
		TimestampUTC:        r.TimestampUTC,
		RawFlux:             nullableFlux(r.RawFlux),
		IntegratedFlux:      nullableFlux(r.IntegratedFlux),
		BackgroundFlux:      nullableFlux(r.BackgroundFlux),
		Status:              r.Status,
		FlareClassRaw:       r.FlareClassRaw,
		FlareClassLetter:    r.FlareClassLetter,
		FlareClassMagnitude: nullableFlux(r.FlareClassMagnitude),
		Date:                r.Date,
		Hour:                r.Hour,
		Month:               r.Month,
		Year:                r.Year,
		Weekday:             r.Weekday,
		IsHighActivity:      r.IsHighActivity,
	})
}

// MarshalJSON renders flux aggregates of flux-free days as null.
func (d DailyStat) MarshalJSON() ([]byte, error) {
	type dailyJSON struct {
		Date              string   `json:"date"`
		MaxFlux           *float64 `json:"max_flux"`
		MeanFlux          *float64 `json:"mean_flux"`
		RecordCount       int      `json:"record_count"`
		HighActivityCount int      `json:"high_activity_count"`
	}
	return json.Marshal(dailyJSON{
		Date:              d.Date,
		MaxFlux:           nullableFlux(d.MaxFlux),
		MeanFlux:          nullableFlux(d.MeanFlux),
		RecordCount:       d.RecordCount,
		HighActivityCount: d.HighActivityCount,
	})
}

// MarshalJSON renders the mean of flux-free hours as null.
func (h HourlyStat) MarshalJSON() ([]byte, error) {
	type hourlyJSON struct {
		Hour        int      `json:"hour"`
		MeanFlux    *float64 `json:"mean_flux"`
		RecordCount int      `json:"record_count"`
	}
	return json.Marshal(hourlyJSON{
		Hour:        h.Hour,
		MeanFlux:    nullableFlux(h.MeanFlux),
		RecordCount: h.RecordCount,
	})
}
