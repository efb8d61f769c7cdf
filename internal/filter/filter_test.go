package filter

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flarecli/pkg/contracts/domain"
)

func ts(day, hour int) time.Time {
	return time.Date(2022, 9, day, hour, 0, 0, 0, time.UTC)
}

func rec(t time.Time, flux float64, letter, status string) domain.Record {
	r := domain.Record{
		TimestampUTC:        t,
		RawFlux:             flux,
		BackgroundFlux:      math.NaN(),
		IntegratedFlux:      math.NaN(),
		FlareClassLetter:    letter,
		FlareClassMagnitude: math.NaN(),
		Status:              status,
		Date:                t.Format(domain.DateLayout),
		Hour:                t.Hour(),
	}
	return r
}

func testTable() *domain.Table {
	return &domain.Table{
		Records: []domain.Record{
			rec(ts(24, 0), 1e-7, "B", ""),
			rec(ts(24, 1), 2e-6, "C", "EVENTPEAK"),
			rec(ts(24, 2), math.NaN(), "", "EVENTEND"),
			rec(ts(25, 0), 5e-8, "", ""),
			rec(ts(26, 3), 4e-5, "M", "EVENTSTART"),
		},
	}
}

func fptr(v float64) *float64     { return &v }
func tptr(t time.Time) *time.Time { return &t }

func TestApplyPermissiveDefaults(t *testing.T) {
	table := testTable()
	view := Apply(table, domain.FilterConfig{})

	assert.Len(t, view.Records, len(table.Records))
	assert.Equal(t, len(table.Records), view.TotalRows)
	for _, r := range view.Records {
		assert.False(t, r.IsHighActivity)
	}
}

func TestApplyDateRange(t *testing.T) {
	table := testTable()

	tests := []struct {
		name string
		cfg  domain.FilterConfig
		want int
	}{
		{
			name: "inclusive bounds",
			cfg:  domain.FilterConfig{From: tptr(ts(24, 1)), To: tptr(ts(25, 0))},
			want: 3,
		},
		{
			name: "date-only end widened to full day",
			cfg:  domain.FilterConfig{From: tptr(ts(24, 0)), To: tptr(ts(26, 0)), ToDateOnly: true},
			want: 5,
		},
		{
			name: "explicit midnight end not widened",
			cfg:  domain.FilterConfig{From: tptr(ts(24, 0)), To: tptr(ts(26, 0))},
			want: 4,
		},
		{
			name: "explicit midnight end keeps only that instant",
			cfg:  domain.FilterConfig{To: tptr(ts(24, 0))},
			want: 1,
		},
		{
			name: "empty window",
			cfg:  domain.FilterConfig{From: tptr(ts(27, 0))},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := Apply(table, tt.cfg)
			assert.Len(t, view.Records, tt.want)
		})
	}
}

func TestApplyClassFilter(t *testing.T) {
	table := testTable()

	tests := []struct {
		name    string
		classes []string
		want    int
	}{
		{name: "all keeps everything", classes: []string{"All"}, want: 5},
		{name: "single letter", classes: []string{"C"}, want: 1},
		{name: "letter set", classes: []string{"B", "M"}, want: 2},
		{name: "lowercase normalized", classes: []string{"m"}, want: 1},
		{name: "no class match excludes unknown", classes: []string{"X"}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := Apply(table, domain.FilterConfig{Classes: tt.classes})
			assert.Len(t, view.Records, tt.want)
		})
	}
}

func TestApplyMinFlux(t *testing.T) {
	table := testTable()

	// >= semantics: the record at exactly 2e-6 survives.
	view := Apply(table, domain.FilterConfig{MinFlux: fptr(2e-6)})
	require.Len(t, view.Records, 2)
	assert.Equal(t, "C", view.Records[0].FlareClassLetter)
	assert.Equal(t, "M", view.Records[1].FlareClassLetter)

	// Records with absent flux are excluded while the clause is active.
	view = Apply(table, domain.FilterConfig{MinFlux: fptr(0)})
	assert.Len(t, view.Records, 4)
}

func TestApplyStatusFilterCaseInsensitive(t *testing.T) {
	table := testTable()

	view := Apply(table, domain.FilterConfig{Status: "eventpeak"})
	require.Len(t, view.Records, 1)
	assert.Equal(t, "EVENTPEAK", view.Records[0].Status)
}

func TestApplyHighActivityTag(t *testing.T) {
	table := testTable()

	// Strictly greater: the 2e-6 record does not pass a 2e-6 threshold.
	view := Apply(table, domain.FilterConfig{HighActivityThreshold: fptr(2e-6)})
	require.Len(t, view.Records, len(table.Records))

	var tagged []string
	for _, r := range view.Records {
		if r.IsHighActivity {
			tagged = append(tagged, r.FlareClassLetter)
		}
	}
	assert.Equal(t, []string{"M"}, tagged)
}

// The scenario from the pipeline contract: three rows, min flux 1e-6.
func TestApplyScenario(t *testing.T) {
	table := &domain.Table{
		Records: []domain.Record{
			rec(time.Date(2022, 9, 24, 0, 0, 0, 0, time.UTC), 1e-7, "B", ""),
			rec(time.Date(2022, 9, 24, 1, 0, 0, 0, time.UTC), 2e-6, "C", ""),
			rec(time.Date(2022, 9, 25, 0, 0, 0, 0, time.UTC), 5e-8, "", ""),
		},
	}

	view := Apply(table, domain.FilterConfig{MinFlux: fptr(1e-6)})
	require.Len(t, view.Records, 1)
	assert.Equal(t, "C", view.Records[0].FlareClassLetter)
	assert.InDelta(t, 2e-6, view.Records[0].RawFlux, 1e-18)
}

// Adding an AND clause never grows the result.
func TestApplyMonotonicity(t *testing.T) {
	table := testTable()

	base := domain.FilterConfig{From: tptr(ts(24, 0)), To: tptr(ts(26, 23))}
	narrowed := base
	narrowed.MinFlux = fptr(1e-6)
	narrower := narrowed
	narrower.Classes = []string{"C"}

	n0 := len(Apply(table, base).Records)
	n1 := len(Apply(table, narrowed).Records)
	n2 := len(Apply(table, narrower).Records)

	assert.GreaterOrEqual(t, n0, n1)
	assert.GreaterOrEqual(t, n1, n2)
}

// Clause application order cannot matter: a combined config equals
// sequentially re-filtering through single-clause views.
func TestApplyCommutativity(t *testing.T) {
	table := testTable()

	combined := Apply(table, domain.FilterConfig{
		From:    tptr(ts(24, 0)),
		To:      tptr(ts(25, 23)),
		Classes: []string{"B", "C"},
		MinFlux: fptr(1e-7),
	})

	// Order 1: date → class → flux. Order 2: flux → class → date.
	byDate := Apply(table, domain.FilterConfig{From: tptr(ts(24, 0)), To: tptr(ts(25, 23))})
	byDateTable := &domain.Table{Records: byDate.Records}
	byDateClass := Apply(byDateTable, domain.FilterConfig{Classes: []string{"B", "C"}})
	order1 := Apply(&domain.Table{Records: byDateClass.Records}, domain.FilterConfig{MinFlux: fptr(1e-7)})

	byFlux := Apply(table, domain.FilterConfig{MinFlux: fptr(1e-7)})
	byFluxClass := Apply(&domain.Table{Records: byFlux.Records}, domain.FilterConfig{Classes: []string{"B", "C"}})
	order2 := Apply(&domain.Table{Records: byFluxClass.Records}, domain.FilterConfig{From: tptr(ts(24, 0)), To: tptr(ts(25, 23))})

	require.Equal(t, len(combined.Records), len(order1.Records))
	require.Equal(t, len(combined.Records), len(order2.Records))
	for i := range combined.Records {
		assert.Equal(t, combined.Records[i].TimestampUTC, order1.Records[i].TimestampUTC)
		assert.Equal(t, combined.Records[i].TimestampUTC, order2.Records[i].TimestampUTC)
	}
}

func TestApplyNeverMutatesTable(t *testing.T) {
	table := testTable()
	before := make([]domain.Record, len(table.Records))
	copy(before, table.Records)

	_ = Apply(table, domain.FilterConfig{HighActivityThreshold: fptr(1e-7)})

	for i := range before {
		assert.Equal(t, before[i].IsHighActivity, table.Records[i].IsHighActivity)
		assert.Equal(t, before[i].TimestampUTC, table.Records[i].TimestampUTC)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     domain.FilterConfig
		wantErr bool
	}{
		{name: "empty config valid", cfg: domain.FilterConfig{}},
		{name: "known classes valid", cfg: domain.FilterConfig{Classes: []string{"All", "C"}}},
		{name: "unknown class rejected", cfg: domain.FilterConfig{Classes: []string{"Q"}}, wantErr: true},
		{name: "negative min flux rejected", cfg: domain.FilterConfig{MinFlux: fptr(-1)}, wantErr: true},
		{name: "negative threshold rejected", cfg: domain.FilterConfig{HighActivityThreshold: fptr(-0.5)}, wantErr: true},
		{
			name:    "inverted range rejected",
			cfg:     domain.FilterConfig{From: tptr(ts(26, 0)), To: tptr(ts(24, 0))},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
