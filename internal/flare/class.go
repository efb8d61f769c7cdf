// Package flare derives structured fields from the raw string tokens carried
// by GOES X-ray summary exports: flare class tokens like "C1.9" and the UTC
// calendar decomposition of measurement timestamps.
package flare

import (
	"math"
	"strconv"
	"strings"
	"time"

	"flarecli/pkg/contracts/domain"
)

// Class is the result of parsing a flare class token. It is a tagged value:
// Matched reports whether the token fit the expected pattern; when it did
// not, Letter is empty and Magnitude is NaN.
type Class struct {
	Letter    string
	Magnitude float64
	Matched   bool
}

// letters are the recognized GOES flare classification categories in
// ascending intensity order.
var letters = []string{"A", "B", "C", "M", "X"}

// KnownLetter reports whether s is one of the recognized class letters.
func KnownLetter(s string) bool {
	for _, l := range letters {
		if s == l {
			return true
		}
	}
	return false
}

// Letters returns the recognized class letters in ascending intensity order.
func Letters() []string {
	out := make([]string, len(letters))
	copy(out, letters)
	return out
}

// ParseClass parses a raw flare class token such as "C1.9" into its letter
// and numeric magnitude. The function is pure and total: every input maps to
// exactly one Class and it never panics or returns an error. Unrecognized
// input degrades to an unmatched Class rather than failing the row.
//
//	"C1.9" -> {Letter: "C", Magnitude: 1.9, Matched: true}
//	"B8"   -> {Letter: "B", Magnitude: 8.0, Matched: true}
//	"M"    -> {Letter: "M", Magnitude: NaN, Matched: true}
//	"Z9"   -> {Matched: false}
//	""     -> {Matched: false}
func ParseClass(raw string) Class {
	unmatched := Class{Magnitude: math.NaN()}

	token := strings.ToUpper(strings.TrimSpace(raw))
	if token == "" {
		return unmatched
	}

	letter := token[:1]
	if !KnownLetter(letter) {
		return unmatched
	}

	rest := token[1:]
	if rest == "" {
		// Letter-only token: class known, magnitude absent.
		return Class{Letter: letter, Magnitude: math.NaN(), Matched: true}
	}

	// The magnitude must be a plain unsigned decimal. strconv.ParseFloat
	// also accepts signs, exponents, hex floats, "NaN"/"Inf" spellings,
	// and underscore separators, so the grammar is checked first.
	if !isDecimalMagnitude(rest) {
		return unmatched
	}
	mag, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return unmatched
	}
	return Class{Letter: letter, Magnitude: mag, Matched: true}
}

// isDecimalMagnitude reports whether s consists of decimal digits with at
// most one dot and at least one digit.
func isDecimalMagnitude(s string) bool {
	digits, dots := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

// Calendar is the UTC calendar decomposition of a measurement timestamp.
type Calendar struct {
	Date    string
	Hour    int
	Month   time.Month
	Year    int
	Weekday time.Weekday
}

// Decompose splits a timestamp into its UTC calendar components. The source
// data is UTC already; no timezone conversion happens beyond normalizing the
// location.
func Decompose(t time.Time) Calendar {
	u := t.UTC()
	return Calendar{
		Date:    u.Format(domain.DateLayout),
		Hour:    u.Hour(),
		Month:   u.Month(),
		Year:    u.Year(),
		Weekday: u.Weekday(),
	}
}
