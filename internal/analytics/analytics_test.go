package analytics

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flarecli/pkg/contracts/domain"
)

func rec(day, hour int, flux, bg float64, letter, status string, high bool) domain.Record {
	t := time.Date(2022, 9, day, hour, 0, 0, 0, time.UTC)
	return domain.Record{
		TimestampUTC:     t,
		RawFlux:          flux,
		BackgroundFlux:   bg,
		IntegratedFlux:   math.NaN(),
		FlareClassLetter: letter,
		Status:           status,
		IsHighActivity:   high,
		Date:             t.Format(domain.DateLayout),
		Hour:             t.Hour(),
	}
}

func sampleView() domain.View {
	nan := math.NaN()
	return domain.View{
		Records: []domain.Record{
			rec(24, 0, 1e-7, 1e-8, "B", "", false),
			rec(24, 1, 2e-6, 1e-8, "C", "EVENTPEAK", true),
			rec(24, 1, nan, nan, "", "EVENTEND", false),
			rec(25, 3, 4e-5, 0, "M", "EVENTPEAK", true),
		},
		TotalRows: 5,
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleView())

	assert.Equal(t, 4, s.TotalRecords)
	assert.Equal(t, 2, s.HighActivityCount)
	assert.Equal(t, 3, s.EventCount)
	require.True(t, s.HasMeanFlux)
	assert.InDelta(t, (1e-7+2e-6+4e-5)/3, s.MeanFlux, 1e-18)
	assert.InDelta(t, 50.0, s.HighActivityShare, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(domain.View{})

	assert.Zero(t, s.TotalRecords)
	assert.False(t, s.HasMeanFlux)
	assert.Zero(t, s.MeanFlux)
	assert.Zero(t, s.HighActivityShare)
}

func TestDailyRollup(t *testing.T) {
	daily := DailyRollup(sampleView())

	require.Len(t, daily, 2)
	assert.Equal(t, "2022-09-24", daily[0].Date)
	assert.Equal(t, "2022-09-25", daily[1].Date)

	first := daily[0]
	assert.Equal(t, 3, first.RecordCount)
	assert.Equal(t, 1, first.HighActivityCount)
	assert.InDelta(t, 2e-6, first.MaxFlux, 1e-18)
	assert.InDelta(t, (1e-7+2e-6)/2, first.MeanFlux, 1e-18)

	second := daily[1]
	assert.Equal(t, 1, second.RecordCount)
	assert.InDelta(t, 4e-5, second.MaxFlux, 1e-18)
}

func TestDailyRollupAllFluxMissing(t *testing.T) {
	view := domain.View{Records: []domain.Record{
		rec(24, 0, math.NaN(), math.NaN(), "", "", false),
	}}

	daily := DailyRollup(view)
	require.Len(t, daily, 1)
	assert.Equal(t, 1, daily[0].RecordCount)
	assert.True(t, math.IsNaN(daily[0].MaxFlux))
	assert.True(t, math.IsNaN(daily[0].MeanFlux))
}

func TestClassDistribution(t *testing.T) {
	entries := ClassDistribution(sampleView())

	require.Len(t, entries, 4)
	assert.Equal(t, domain.DistributionEntry{Label: "B", Count: 1}, entries[0])
	assert.Equal(t, domain.DistributionEntry{Label: "C", Count: 1}, entries[1])
	assert.Equal(t, domain.DistributionEntry{Label: "M", Count: 1}, entries[2])
	assert.Equal(t, domain.DistributionEntry{Label: UnknownClassLabel, Count: 1}, entries[3])
}

func TestStatusDistribution(t *testing.T) {
	entries := StatusDistribution(sampleView())

	require.Len(t, entries, 2)
	assert.Equal(t, domain.DistributionEntry{Label: "EVENTPEAK", Count: 2}, entries[0])
	assert.Equal(t, domain.DistributionEntry{Label: "EVENTEND", Count: 1}, entries[1])
}

func TestHourlyProfile(t *testing.T) {
	stats := HourlyProfile(sampleView())

	require.Len(t, stats, 3)
	assert.Equal(t, 0, stats[0].Hour)
	assert.Equal(t, 1, stats[1].Hour)
	assert.Equal(t, 3, stats[2].Hour)

	// Hour 1 has two records but only one valid flux sample.
	assert.Equal(t, 2, stats[1].RecordCount)
	assert.InDelta(t, 2e-6, stats[1].MeanFlux, 1e-18)
}

func TestFluxRatios(t *testing.T) {
	points := FluxRatios(sampleView())

	// NaN flux and zero background both drop out.
	require.Len(t, points, 2)
	assert.Equal(t, "2022-09-24T000000Z", points[0].Timestamp)
	assert.InDelta(t, 10.0, points[0].Ratio, 1e-9)
	assert.InDelta(t, 200.0, points[1].Ratio, 1e-9)
}

func TestComputeEmptyView(t *testing.T) {
	a := NewAnalyzer(nil)
	bundle := a.Compute(context.Background(), domain.View{})

	assert.Zero(t, bundle.Summary.TotalRecords)
	assert.Empty(t, bundle.Daily)
	assert.Empty(t, bundle.ClassDistribution)
	assert.Empty(t, bundle.StatusDistribution)
	assert.Empty(t, bundle.HourlyProfile)
	assert.Empty(t, bundle.FluxRatios)
	assert.NotNil(t, bundle.Daily)
	assert.NotNil(t, bundle.FluxRatios)
}
