// Package domain holds the follow-up date rules shared by the service and stats code.
package domain

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// CanonicalLayout is the calendar-date form used for grouping and comparison.
const CanonicalLayout = "2006-01-02"

const shortDayMonthYearLayout = "2-1-06"

// maxNumericDateLen bounds digit-only input to yyyymmdd or epoch seconds.
const maxNumericDateLen = 10

// NormalizedDate is the result of normalizing a raw follow-up date.
// Date is only meaningful when OK is true.
type NormalizedDate struct {
	Date string
	OK   bool
}

// OrRaw returns the canonical date, or raw when normalization failed.
func (d NormalizedDate) OrRaw(raw string) string {
	if d.OK {
		return d.Date
	}
	return raw
}

// DateNormalizer turns free-form follow-up dates into CanonicalLayout.
type DateNormalizer struct {
	loc *time.Location
	now func() time.Time
}

// NewDateNormalizer returns a normalizer resolving dates in loc.
// now defaults to time.Now and loc to time.Local.
func NewDateNormalizer(loc *time.Location, now func() time.Time) *DateNormalizer {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &DateNormalizer{loc: loc, now: now}
}

// Location returns the zone calendar dates are resolved in.
func (n *DateNormalizer) Location() *time.Location {
	return n.loc
}

// Now returns the reference time in the normalizer's location.
func (n *DateNormalizer) Now() time.Time {
	return n.now().In(n.loc)
}

// Today returns the current calendar date in CanonicalLayout.
func (n *DateNormalizer) Today() string {
	return n.Now().Format(CanonicalLayout)
}

// IsFuture reports whether canonical is strictly after today.
func (n *DateNormalizer) IsFuture(canonical string) bool {
	return canonical > n.Today()
}

// Normalize tries the short day-month-year form first and falls back to a
// generic parse. Empty or blank input and digit runs longer than an epoch in
// seconds never normalize.
func (n *DateNormalizer) Normalize(raw string) NormalizedDate {
	s := strings.TrimSpace(raw)
	if s == "" {
		return NormalizedDate{}
	}

	if t, ok := n.parseShort(s); ok {
		return canonical(t)
	}
	if len(s) > maxNumericDateLen && isDigits(s) {
		return NormalizedDate{}
	}

	t, err := dateparse.ParseIn(s, n.loc)
	if err != nil {
		return NormalizedDate{}
	}
	return canonical(t.In(n.loc))
}

func (n *DateNormalizer) parseShort(s string) (time.Time, bool) {
	parsed, err := time.ParseInLocation(shortDayMonthYearLayout, s, n.loc)
	if err != nil {
		return time.Time{}, false
	}

	year := resolveTwoDigitYear(parsed.Year()%100, n.Now().Year())
	t := time.Date(year, parsed.Month(), parsed.Day(), 0, 0, 0, 0, n.loc)
	// 29 February may not exist once the century is resolved.
	if t.Day() != parsed.Day() || t.Month() != parsed.Month() {
		return time.Time{}, false
	}
	return t, true
}

// resolveTwoDigitYear picks the year ending in yy that falls within
// 50 years after and 49 years before refYear.
func resolveTwoDigitYear(yy, refYear int) int {
	rangeEnd := refYear + 50
	century := (rangeEnd / 100) * 100
	year := yy + century
	if yy >= rangeEnd%100 {
		year -= 100
	}
	return year
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func canonical(t time.Time) NormalizedDate {
	if t.Year() < 1 || t.Year() > 9999 {
		return NormalizedDate{}
	}
	return NormalizedDate{Date: t.Format(CanonicalLayout), OK: true}
}
