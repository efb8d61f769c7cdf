// Package analytics computes the dashboard aggregates for a filtered view.
// Every aggregate is independently computable and tolerates an empty view.
package analytics

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"flarecli/internal/flare"
	"flarecli/internal/infrastructure"
	"flarecli/pkg/contracts/domain"
)

// UnknownClassLabel buckets records whose flare class string did not match
// any known letter.
const UnknownClassLabel = "unknown"

// Analyzer computes aggregate bundles from filtered views. It consolidates
// the rollup logic shared by the HTTP handlers and the report CLI so both
// surfaces always agree on the numbers.
type Analyzer struct {
	logger *slog.Logger
}

// NewAnalyzer creates an analyzer. A nil logger falls back to slog.Default.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analyzer{logger: infrastructure.WithComponent(logger, "analytics")}
}

// Compute produces the full aggregate bundle for a view. An empty view yields
// zero counts and empty slices, never nil members.
func (a *Analyzer) Compute(ctx context.Context, view domain.View) domain.Bundle {
	bundle := domain.Bundle{
		Summary:            Summarize(view),
		Daily:              DailyRollup(view),
		ClassDistribution:  ClassDistribution(view),
		StatusDistribution: StatusDistribution(view),
		HourlyProfile:      HourlyProfile(view),
		FluxRatios:         FluxRatios(view),
	}

	a.logger.DebugContext(ctx, "aggregates computed",
		slog.Int("records", len(view.Records)),
		slog.Int("daily_rows", len(bundle.Daily)),
		slog.Int("ratio_points", len(bundle.FluxRatios)))

	return bundle
}

// Summarize computes the headline counters for a view.
func Summarize(view domain.View) domain.Summary {
	s := domain.Summary{TotalRecords: len(view.Records)}

	var fluxSum float64
	var fluxCount int
	for _, rec := range view.Records {
		if rec.IsHighActivity {
			s.HighActivityCount++
		}
		if rec.HasStatus() {
			s.EventCount++
		}
		if rec.HasFlux() {
			fluxSum += rec.RawFlux
			fluxCount++
		}
	}

	if fluxCount > 0 {
		s.MeanFlux = fluxSum / float64(fluxCount)
		s.HasMeanFlux = true
	}
	if s.TotalRecords > 0 {
		s.HighActivityShare = 100 * float64(s.HighActivityCount) / float64(s.TotalRecords)
	}
	return s
}

// DailyRollup groups records by calendar date and aggregates flux per day.
// Only dates present in the view appear; output is sorted by date.
func DailyRollup(view domain.View) []domain.DailyStat {
	type acc struct {
		max       float64
		sum       float64
		fluxCount int
		records   int
		high      int
	}

	byDate := make(map[string]*acc)
	for _, rec := range view.Records {
		day, ok := byDate[rec.Date]
		if !ok {
			day = &acc{max: math.Inf(-1)}
			byDate[rec.Date] = day
		}
		day.records++
		if rec.IsHighActivity {
			day.high++
		}
		if rec.HasFlux() {
			day.sum += rec.RawFlux
			day.fluxCount++
			if rec.RawFlux > day.max {
				day.max = rec.RawFlux
			}
		}
	}

	stats := make([]domain.DailyStat, 0, len(byDate))
	for date, day := range byDate {
		stat := domain.DailyStat{
			Date:              date,
			RecordCount:       day.records,
			HighActivityCount: day.high,
			MaxFlux:           math.NaN(),
			MeanFlux:          math.NaN(),
		}
		if day.fluxCount > 0 {
			stat.MaxFlux = day.max
			stat.MeanFlux = day.sum / float64(day.fluxCount)
		}
		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Date < stats[j].Date })
	return stats
}

// ClassDistribution counts records per flare class letter. Records without a
// recognized class go into the "unknown" bucket. Output follows the canonical
// letter order with "unknown" last, and only non-empty buckets appear.
func ClassDistribution(view domain.View) []domain.DistributionEntry {
	counts := make(map[string]int)
	for _, rec := range view.Records {
		label := rec.FlareClassLetter
		if label == "" {
			label = UnknownClassLabel
		}
		counts[label]++
	}

	entries := make([]domain.DistributionEntry, 0, len(counts))
	for _, letter := range flare.Letters() {
		if n, ok := counts[letter]; ok {
			entries = append(entries, domain.DistributionEntry{Label: letter, Count: n})
		}
	}
	if n, ok := counts[UnknownClassLabel]; ok {
		entries = append(entries, domain.DistributionEntry{Label: UnknownClassLabel, Count: n})
	}
	return entries
}

// StatusDistribution counts records per status value. Records without a
// status are excluded. Output is ordered by count descending, then label.
func StatusDistribution(view domain.View) []domain.DistributionEntry {
	counts := make(map[string]int)
	for _, rec := range view.Records {
		if rec.HasStatus() {
			counts[rec.Status]++
		}
	}

	entries := make([]domain.DistributionEntry, 0, len(counts))
	for label, n := range counts {
		entries = append(entries, domain.DistributionEntry{Label: label, Count: n})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Label < entries[j].Label
	})
	return entries
}

// HourlyProfile computes the mean flux per hour of day across the view. Only
// hours with at least one record appear, sorted ascending.
func HourlyProfile(view domain.View) []domain.HourlyStat {
	type acc struct {
		sum       float64
		fluxCount int
		records   int
	}

	byHour := make(map[int]*acc)
	for _, rec := range view.Records {
		h, ok := byHour[rec.Hour]
		if !ok {
			h = &acc{}
			byHour[rec.Hour] = h
		}
		h.records++
		if rec.HasFlux() {
			h.sum += rec.RawFlux
			h.fluxCount++
		}
	}

	stats := make([]domain.HourlyStat, 0, len(byHour))
	for hour, h := range byHour {
		stat := domain.HourlyStat{Hour: hour, RecordCount: h.records, MeanFlux: math.NaN()}
		if h.fluxCount > 0 {
			stat.MeanFlux = h.sum / float64(h.fluxCount)
		}
		stats = append(stats, stat)
	}

	sort.Slice(stats, func(i, j int) bool { return stats[i].Hour < stats[j].Hour })
	return stats
}

// FluxRatios computes the per-record raw-to-background flux ratio. Records
// with an absent numerator, or a zero or absent denominator, produce no
// point: missing data stays missing instead of becoming ±Inf or NaN.
func FluxRatios(view domain.View) []domain.RatioPoint {
	points := make([]domain.RatioPoint, 0, len(view.Records))
	for _, rec := range view.Records {
		if !rec.HasFlux() || !rec.HasBackgroundFlux() || rec.BackgroundFlux == 0 {
			continue
		}
		points = append(points, domain.RatioPoint{
			Timestamp: rec.TimestampUTC.Format(domain.TimestampLayout),
			Ratio:     rec.RawFlux / rec.BackgroundFlux,
		})
	}
	return points
}
