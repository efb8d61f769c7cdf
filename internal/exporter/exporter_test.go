package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"flarecli/internal/config"
	"flarecli/internal/dataset"
	"flarecli/pkg/contracts/domain"
)

func testRecord(day, hour int, flux float64, class, status string) domain.Record {
	t := time.Date(2022, 9, day, hour, 0, 0, 0, time.UTC)
	return domain.Record{
		TimestampUTC:   t,
		RawFlux:        flux,
		IntegratedFlux: math.NaN(),
		BackgroundFlux: math.NaN(),
		Status:         status,
		FlareClassRaw:  class,
		Date:           t.Format(domain.DateLayout),
		Hour:           t.Hour(),
	}
}

func testView() domain.View {
	return domain.View{
		Records: []domain.Record{
			testRecord(24, 0, 1e-7, "B2", ""),
			testRecord(24, 1, 2e-6, "C1.9", "EVENTPEAK"),
			testRecord(25, 0, math.NaN(), "", "EVENTEND"),
		},
		TotalRows: 3,
	}
}

func testPaths(t *testing.T) *config.Paths {
	t.Helper()
	base := t.TempDir()
	return &config.Paths{
		BaseDir:    base,
		DataDir:    filepath.Join(base, "data"),
		ReportsDir: filepath.Join(base, "reports"),
		LogsDir:    filepath.Join(base, "logs"),
	}
}

func TestRecordsCSVRoundTrip(t *testing.T) {
	view := testView()
	schema := dataset.SchemaEUVS()

	data, err := RecordsCSV(view, schema)
	require.NoError(t, err)

	table, err := dataset.Parse(context.Background(), bytes.NewReader(data), schema, nil)
	require.NoError(t, err)
	require.Len(t, table.Records, len(view.Records))

	for i, got := range table.Records {
		want := view.Records[i]
		assert.True(t, got.TimestampUTC.Equal(want.TimestampUTC), "record %d timestamp", i)
		assert.Equal(t, want.Status, got.Status, "record %d status", i)
		assert.Equal(t, want.FlareClassRaw, got.FlareClassRaw, "record %d class", i)
		if want.HasFlux() {
			assert.InDelta(t, want.RawFlux, got.RawFlux, 1e-18, "record %d flux", i)
		} else {
			assert.False(t, got.HasFlux(), "record %d flux should stay absent", i)
		}
	}
}

func TestRecordsCSVHeaderFollowsSchema(t *testing.T) {
	data, err := RecordsCSV(testView(), dataset.SchemaEvents())
	require.NoError(t, err)

	reader := csv.NewReader(bytes.NewReader(data))
	header, err := reader.Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "flux", "event_status", "class", "bg_flux"}, header)
}

func TestRecordsCSVEmptyView(t *testing.T) {
	data, err := RecordsCSV(domain.View{}, dataset.SchemaEUVS())
	require.NoError(t, err)

	reader := csv.NewReader(bytes.NewReader(data))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	assert.Len(t, rows, 1) // header only
}

func TestExcelWorkbook(t *testing.T) {
	view := testView()
	bundle := domain.Bundle{
		Summary: domain.Summary{TotalRecords: 3, EventCount: 2, MeanFlux: 1e-6, HasMeanFlux: true},
		Daily: []domain.DailyStat{
			{Date: "2022-09-24", MaxFlux: 2e-6, MeanFlux: 1.05e-6, RecordCount: 2},
			{Date: "2022-09-25", MaxFlux: math.NaN(), MeanFlux: math.NaN(), RecordCount: 1},
		},
	}

	data, err := ExcelWorkbook(view, dataset.SchemaEUVS(), bundle)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Records", "Summary", "Daily"}, f.GetSheetList())

	rows, err := f.GetRows("Records")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "timestamp_utc", rows[0][0])
	assert.Equal(t, "2022-09-24T000000Z", rows[1][0])

	daily, err := f.GetRows("Daily")
	require.NoError(t, err)
	require.Len(t, daily, 3)
	assert.Equal(t, "2022-09-24", daily[1][0])
}

func TestExportDailyReport(t *testing.T) {
	paths := testPaths(t)
	exporter := NewReportExporter(paths)

	daily := []domain.DailyStat{
		{Date: "2022-09-24", MaxFlux: 2e-6, MeanFlux: 1.05e-6, RecordCount: 2, HighActivityCount: 1},
	}
	require.NoError(t, exporter.ExportDailyReport(daily, "daily.csv"))

	data, err := os.ReadFile(filepath.Join(paths.ReportsDir, "daily.csv"))
	require.NoError(t, err)

	content := string(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))
	reader := csv.NewReader(bytes.NewReader([]byte(content)))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Date", "MaxFlux", "MeanFlux", "RecordCount", "HighActivityCount"}, rows[0])
	assert.Equal(t, "2022-09-24", rows[1][0])
	assert.Equal(t, "2", rows[1][3])
}

func TestExportDistributions(t *testing.T) {
	paths := testPaths(t)
	exporter := NewReportExporter(paths)

	bundle := domain.Bundle{
		ClassDistribution:  []domain.DistributionEntry{{Label: "C", Count: 3}},
		StatusDistribution: []domain.DistributionEntry{{Label: "EVENTPEAK", Count: 2}},
	}
	require.NoError(t, exporter.ExportDistributions(bundle, "dist.csv"))

	data, err := os.ReadFile(filepath.Join(paths.ReportsDir, "dist.csv"))
	require.NoError(t, err)
	content := string(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	reader := csv.NewReader(bytes.NewReader([]byte(content)))
	rows, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"class", "C", "3"}, rows[1])
	assert.Equal(t, []string{"status", "EVENTPEAK", "2"}, rows[2])
}

func TestExportBundleJSON(t *testing.T) {
	paths := testPaths(t)
	exporter := NewReportExporter(paths)

	bundle := domain.Bundle{Summary: domain.Summary{TotalRecords: 7}}
	require.NoError(t, exporter.ExportBundleJSON(bundle, "aggregates.json"))

	data, err := os.ReadFile(filepath.Join(paths.ReportsDir, "aggregates.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"total_records": 7`)
}

func TestExportRecordsCSVStreamsView(t *testing.T) {
	paths := testPaths(t)
	exporter := NewReportExporter(paths)

	require.NoError(t, exporter.ExportRecordsCSV(testView(), dataset.SchemaEUVS(), "records.csv"))

	file, err := os.Open(filepath.Join(paths.ReportsDir, "records.csv"))
	require.NoError(t, err)
	defer file.Close()

	table, err := dataset.Parse(context.Background(), file, dataset.SchemaEUVS(), nil)
	require.NoError(t, err)
	assert.Len(t, table.Records, 3)
}
