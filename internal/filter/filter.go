// Package filter composes the independent predicate clauses of a filter
// configuration into a single filtered view over the canonical table.
// Clauses are ANDed; each one defaults to permissive when unset.
package filter

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"flarecli/internal/errors"
	"flarecli/internal/flare"
	"flarecli/pkg/contracts/domain"
)

var validate = validator.New()

// Validate checks a filter configuration for structural problems before it
// reaches the engine: unknown class letters, negative thresholds, or an
// inverted date range.
func Validate(cfg domain.FilterConfig) error {
	if err := validate.Struct(cfg); err != nil {
		return errors.NewAppValidationError(err.Error())
	}
	if cfg.From != nil && cfg.To != nil && cfg.From.After(*cfg.To) {
		return errors.NewAppValidationError("filter start must not be after filter end")
	}
	return nil
}

// Apply runs the configuration against the canonical table and returns an
// order-preserving view. The table is never mutated; every call allocates a
// fresh record slice, so views remain valid independently of one another.
func Apply(table *domain.Table, cfg domain.FilterConfig) domain.View {
	view := domain.View{
		Records:   make([]domain.Record, 0, len(table.Records)),
		TotalRows: len(table.Records),
		Config:    cfg,
	}

	from, to := bounds(cfg)
	classSet := classSet(cfg.Classes)
	status := strings.TrimSpace(cfg.Status)

	for _, rec := range table.Records {
		if from != nil && rec.TimestampUTC.Before(*from) {
			continue
		}
		if to != nil && rec.TimestampUTC.After(*to) {
			continue
		}
		if classSet != nil && !classSet[rec.FlareClassLetter] {
			continue
		}
		if cfg.MinFlux != nil && !(rec.HasFlux() && rec.RawFlux >= *cfg.MinFlux) {
			continue
		}
		if status != "" && !strings.EqualFold(rec.Status, status) {
			continue
		}

		// The high-activity clause tags rather than removes. NaN flux never
		// counts as high activity.
		if cfg.HighActivityThreshold != nil {
			rec.IsHighActivity = rec.HasFlux() && rec.RawFlux > *cfg.HighActivityThreshold
		} else {
			rec.IsHighActivity = false
		}

		view.Records = append(view.Records, rec)
	}

	return view
}

// bounds resolves the inclusive timestamp range. A date-only To bound is
// widened to the last instant of its calendar day; an explicit timestamp,
// midnight included, is taken as-is.
func bounds(cfg domain.FilterConfig) (from, to *time.Time) {
	if cfg.From != nil {
		f := cfg.From.UTC()
		from = &f
	}
	if cfg.To != nil {
		t := cfg.To.UTC()
		if cfg.ToDateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		to = &t
	}
	return from, to
}

// classSet builds the membership set for the class clause. A nil result
// means the clause is inactive ("All", or nothing configured). Unknown
// letters have already been rejected by Validate; records whose class did
// not parse carry an empty letter and never match an active clause.
func classSet(classes []string) map[string]bool {
	if len(classes) == 0 {
		return nil
	}
	set := make(map[string]bool, len(classes))
	for _, c := range classes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if strings.EqualFold(c, domain.ClassAll) {
			return nil
		}
		if flare.KnownLetter(c) {
			set[c] = true
		}
	}
	if len(set) == 0 {
		return nil
	}
	return set
}
