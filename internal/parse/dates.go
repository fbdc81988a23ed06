package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Resolver turns free-text due-date strings into ISO (YYYY-MM-DD)
// dates. It is an explicit state object rather than package-level
// globals so the natural-language parser is built once per session.
type Resolver struct {
	w   *when.Parser
	now func() time.Time
}

// NewResolver builds a Resolver. now may be nil, in which case
// time.Now is used; tests inject a fixed clock to pin the
// current-year default.
func NewResolver(now func() time.Time) *Resolver {
	if now == nil {
		now = time.Now
	}
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &Resolver{w: w, now: now}
}

var (
	isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// "14 Jan" / "14 January 2026"
	dayMonthRe = regexp.MustCompile(`^(\d{1,2})(?:st|nd|rd|th)?\s+([A-Za-z]+)\.?(?:,?\s+(\d{4}))?$`)

	// "Jan 14" / "January 14, 2026"
	monthDayRe = regexp.MustCompile(`^([A-Za-z]+)\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?$`)
)

var monthNames = map[string]time.Month{
	"january": time.January, "february": time.February, "march": time.March,
	"april": time.April, "may": time.May, "june": time.June,
	"july": time.July, "august": time.August, "september": time.September,
	"october": time.October, "november": time.November, "december": time.December,
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "jun": time.June, "jul": time.July,
	"aug": time.August, "sep": time.September, "oct": time.October,
	"nov": time.November, "dec": time.December,
}

// Resolve parses a free-text due date and returns an ISO date string,
// or "" when nothing matches. Never errors.
//
// Already-ISO input passes through unchanged. The fixed day-month and
// month-day patterns are tried next; a missing year defaults to the
// current calendar year at resolution time, which can misplace dates
// written near a year boundary; preserved behavior, covered in tests.
// Anything else falls through to the natural-language parser
// (olebedev/when) as a last resort.
func (r *Resolver) Resolve(input string) string {
	s := strings.TrimSpace(input)
	if s == "" {
		return ""
	}
	if isoDateRe.MatchString(s) {
		return s
	}

	if m := dayMonthRe.FindStringSubmatch(s); m != nil {
		if d := r.calendarDate(m[2], m[1], m[3]); d != "" {
			return d
		}
	}
	if m := monthDayRe.FindStringSubmatch(s); m != nil {
		if d := r.calendarDate(m[1], m[2], m[3]); d != "" {
			return d
		}
	}

	if res, err := r.w.Parse(s, r.now()); err == nil && res != nil {
		return res.Time.Format("2006-01-02")
	}
	return ""
}

// calendarDate assembles an ISO date from month-name, day, and optional
// year strings; "" if the month name is unknown or the day is out of
// range.
func (r *Resolver) calendarDate(month, day, year string) string {
	mon, ok := monthNames[strings.ToLower(month)]
	if !ok {
		return ""
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return ""
	}
	y := r.now().Year()
	if year != "" {
		y, err = strconv.Atoi(year)
		if err != nil {
			return ""
		}
	}
	return fmt.Sprintf("%04d-%02d-%02d", y, mon, d)
}
