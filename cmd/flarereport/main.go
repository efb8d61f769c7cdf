package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"flarecli/internal/config"
	"flarecli/internal/exporter"
	"flarecli/internal/infrastructure"
	"flarecli/internal/services"
	"flarecli/pkg/contracts/domain"
)

// timeLayouts are the accepted -from/-to formats, tried in order.
var timeLayouts = []string{
	domain.TimestampLayout,
	time.RFC3339,
	domain.DateLayout,
}

func main() {
	source := flag.String("source", "", "source CSV path (defaults to the configured dataset source)")
	preset := flag.String("preset", "", "schema preset: euvs or events (defaults to the configured preset)")
	from := flag.String("from", "", "keep records at or after this instant (2006-01-02T150405Z, RFC 3339, or 2006-01-02)")
	to := flag.String("to", "", "keep records at or before this instant; a bare date covers the whole day")
	classes := flag.String("class", "", "comma-separated flare class letters to keep (A,B,C,M,X); empty keeps all")
	minFlux := flag.Float64("min-flux", -1, "keep records with flux >= this value in W/m²; negative disables the clause")
	status := flag.String("status", "", "keep records whose status marker equals this value, case-insensitively")
	threshold := flag.Float64("threshold", -1, "high-activity tagging threshold in W/m²; negative uses the configured default")
	out := flag.String("out", "", "output directory for the reports (defaults to the configured reports dir)")
	prefix := flag.String("prefix", "flare", "filename prefix for the generated reports")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *source != "" {
		cfg.Dataset.Source = *source
	}
	if *preset != "" {
		cfg.Dataset.SchemaPreset = *preset
	}
	if *out != "" {
		cfg.Paths.ReportsDir = *out
	}
	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		slog.Error("Failed to resolve paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}
	cfg.Logging.FilePath = paths.GetLogPath("flarereport.log")

	if _, err := infrastructure.InitializeLogger(cfg.Logging); err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
	}

	// Each run carries one trace id, so the run's log lines can be grepped
	// out of a shared log file.
	ctx := infrastructure.EnsureTraceID(context.Background())
	logger := infrastructure.LoggerWithContext(ctx)

	filterCfg, err := buildFilterConfig(*from, *to, *classes, *minFlux, *status, *threshold)
	if err != nil {
		logger.Error("Invalid filter arguments", "error", err)
		os.Exit(1)
	}

	service, err := services.NewDataServiceWithDeps(cfg, paths, nil, logger)
	if err != nil {
		logger.Error("Failed to initialize data service", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting report generation",
		slog.String("source", service.Source()),
		slog.String("preset", cfg.Dataset.SchemaPreset),
		slog.String("reports_dir", paths.ReportsDir))

	view, err := service.Filter(ctx, filterCfg)
	if err != nil {
		logger.Error("Failed to filter dataset", "error", err)
		os.Exit(1)
	}
	bundle, err := service.Aggregates(ctx, filterCfg)
	if err != nil {
		logger.Error("Failed to compute aggregates", "error", err)
		os.Exit(1)
	}

	logger.Info("Dataset filtered",
		slog.Int("matched", len(view.Records)),
		slog.Int("total_rows", view.TotalRows),
		slog.Int("days", len(bundle.Daily)))

	reports := exporter.NewReportExporter(paths)
	schema := service.Schema()

	// The four report files are independent, so write them concurrently.
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return reports.ExportRecordsCSV(view, schema, *prefix+"_records.csv")
	})
	g.Go(func() error {
		return reports.ExportDailyReport(bundle.Daily, *prefix+"_daily.csv")
	})
	g.Go(func() error {
		return reports.ExportDistributions(bundle, *prefix+"_distributions.csv")
	})
	g.Go(func() error {
		return reports.ExportBundleJSON(bundle, *prefix+"_aggregates.json")
	})
	if err := g.Wait(); err != nil {
		logger.Error("Failed to write reports", "error", err)
		os.Exit(1)
	}

	logger.Info("Reports written",
		slog.String("records", paths.GetReportPath(*prefix+"_records.csv")),
		slog.String("daily", paths.GetReportPath(*prefix+"_daily.csv")),
		slog.String("distributions", paths.GetReportPath(*prefix+"_distributions.csv")),
		slog.String("aggregates", paths.GetReportPath(*prefix+"_aggregates.json")))
}

// buildFilterConfig turns the command line flags into a filter configuration.
// Range validation is left to the data service.
func buildFilterConfig(from, to, classes string, minFlux float64, status string, threshold float64) (domain.FilterConfig, error) {
	var cfg domain.FilterConfig

	if from != "" {
		t, _, err := parseTimeFlag(from)
		if err != nil {
			return cfg, fmt.Errorf("invalid -from value %q: %w", from, err)
		}
		cfg.From = &t
	}
	if to != "" {
		t, dateOnly, err := parseTimeFlag(to)
		if err != nil {
			return cfg, fmt.Errorf("invalid -to value %q: %w", to, err)
		}
		cfg.To = &t
		cfg.ToDateOnly = dateOnly
	}
	if classes != "" {
		for _, c := range strings.Split(classes, ",") {
			c = strings.ToUpper(strings.TrimSpace(c))
			if c == "ALL" {
				c = domain.ClassAll
			}
			if c != "" {
				cfg.Classes = append(cfg.Classes, c)
			}
		}
	}
	if minFlux >= 0 {
		v := minFlux
		cfg.MinFlux = &v
	}
	if status != "" {
		cfg.Status = strings.TrimSpace(status)
	}
	if threshold >= 0 {
		v := threshold
		cfg.HighActivityThreshold = &v
	}
	return cfg, nil
}

// parseTimeFlag reports, alongside the parsed instant, whether the value was
// a bare date; a bare-date end bound covers the whole day.
func parseTimeFlag(raw string) (time.Time, bool, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), layout == domain.DateLayout, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized time format")
}
