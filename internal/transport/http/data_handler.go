package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "flarecli/internal/errors"
	"flarecli/pkg/contracts/domain"
)

// DataHandler serves the filtered dataset API with RFC 7807 compliance
type DataHandler struct {
	service      DataServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDataHandler creates a new data handler with RFC 7807 error handling
func NewDataHandler(service DataServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the data routes. Every endpoint accepts the same filter
// query parameters: from, to, class, min_flux, status, threshold.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.GetSummary)
	r.Get("/records", h.GetRecords)
	r.Get("/daily", h.GetDaily)
	r.Get("/distributions", h.GetDistributions)
	r.Get("/ratios", h.GetRatios)
	r.Get("/hourly", h.GetHourly)
	r.Get("/schema", h.GetSchema)
	r.Get("/export.csv", h.ExportCSV)
	r.Get("/export.xlsx", h.ExportExcel)

	return r
}

// GetSummary handles GET /api/data/summary
func (h *DataHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseFilterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	bundle, err := h.service.Aggregates(r.Context(), cfg)
	if err != nil {
		h.handleServiceError(w, r, "summary", err)
		return
	}

	render.JSON(w, r, bundle.Summary)
}

// GetRecords handles GET /api/data/records. An optional limit parameter caps
// the returned rows; the total before capping is always reported.
func (h *DataHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseFilterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	limit, err := parseLimit(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.Filter(r.Context(), cfg)
	if err != nil {
		h.handleServiceError(w, r, "records", err)
		return
	}

	records := view.Records
	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}

	render.JSON(w, r, map[string]interface{}{
		"status":     "success",
		"data":       records,
		"count":      len(records),
		"matched":    len(view.Records),
		"total_rows": view.TotalRows,
	})
}

// GetDaily handles GET /api/data/daily
func (h *DataHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseFilterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	bundle, err := h.service.Aggregates(r.Context(), cfg)
	if err != nil {
		h.handleServiceError(w, r, "daily", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   bundle.Daily,
		"count":  len(bundle.Daily),
	})
}

// GetDistributions handles GET /api/data/distributions
func (h *DataHandler) GetDistributions(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseFilterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	bundle, err := h.service.Aggregates(r.Context(), cfg)
	if err != nil {
		h.handleServiceError(w, r, "distributions", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status":        "success",
		"class":         bundle.ClassDistribution,
		"status_values": bundle.StatusDistribution,
	})
}

// GetRatios handles GET /api/data/ratios
func (h *DataHandler) GetRatios(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseFilterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	bundle, err := h.service.Aggregates(r.Context(), cfg)
	if err != nil {
		h.handleServiceError(w, r, "ratios", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   bundle.FluxRatios,
		"count":  len(bundle.FluxRatios),
	})
}

// GetHourly handles GET /api/data/hourly
func (h *DataHandler) GetHourly(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseFilterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	bundle, err := h.service.Aggregates(r.Context(), cfg)
	if err != nil {
		h.handleServiceError(w, r, "hourly", err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   bundle.HourlyProfile,
		"count":  len(bundle.HourlyProfile),
	})
}

// GetSchema handles GET /api/data/schema
func (h *DataHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.SchemaInfo(r.Context())
	if err != nil {
		h.handleServiceError(w, r, "schema", err)
		return
	}
	render.JSON(w, r, info)
}

// ExportCSV handles GET /api/data/export.csv
func (h *DataHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseFilterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	data, err := h.service.ExportCSV(r.Context(), cfg)
	if err != nil {
		h.handleServiceError(w, r, "export.csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="flare_records.csv"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ExportExcel handles GET /api/data/export.xlsx
func (h *DataHandler) ExportExcel(w http.ResponseWriter, r *http.Request) {
	cfg, err := parseFilterQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	data, err := h.service.ExportExcel(r.Context(), cfg)
	if err != nil {
		h.handleServiceError(w, r, "export.xlsx", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="flare_report.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *DataHandler) handleServiceError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	h.logger.ErrorContext(r.Context(), "data request failed",
		slog.String("endpoint", endpoint),
		slog.String("error", err.Error()),
	)
	h.errorHandler.HandleError(w, r, err)
}

// timeQueryLayouts are the accepted from/to formats, tried in order.
var timeQueryLayouts = []string{
	domain.TimestampLayout,
	time.RFC3339,
	domain.DateLayout,
}

// parseFilterQuery builds a filter config from the shared query parameters.
func parseFilterQuery(r *http.Request) (domain.FilterConfig, error) {
	q := r.URL.Query()
	var cfg domain.FilterConfig

	if raw := q.Get("from"); raw != "" {
		t, _, err := parseTimeParam(raw)
		if err != nil {
			return cfg, apierrors.ErrValidation("from", err.Error())
		}
		cfg.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, dateOnly, err := parseTimeParam(raw)
		if err != nil {
			return cfg, apierrors.ErrValidation("to", err.Error())
		}
		cfg.To = &t
		cfg.ToDateOnly = dateOnly
	}

	if raw := q.Get("class"); raw != "" {
		for _, c := range strings.Split(raw, ",") {
			c = strings.ToUpper(strings.TrimSpace(c))
			if c == "ALL" {
				c = domain.ClassAll
			}
			if c != "" {
				cfg.Classes = append(cfg.Classes, c)
			}
		}
	}

	if raw := q.Get("min_flux"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return cfg, apierrors.ErrValidation("min_flux", "must be a number")
		}
		cfg.MinFlux = &v
	}

	cfg.Status = strings.TrimSpace(q.Get("status"))

	if raw := q.Get("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return cfg, apierrors.ErrValidation("threshold", "must be a number")
		}
		cfg.HighActivityThreshold = &v
	}

	return cfg, nil
}

// parseTimeParam accepts the compact source token, RFC 3339, or a bare date.
// The second result reports whether the value was a bare date, which the
// filter engine needs to widen an end bound over its whole day.
func parseTimeParam(raw string) (time.Time, bool, error) {
	for _, layout := range timeQueryLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), layout == domain.DateLayout, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unrecognized time %q", raw)
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, apierrors.ErrValidation("limit", "must be a non-negative integer")
	}
	return limit, nil
}
