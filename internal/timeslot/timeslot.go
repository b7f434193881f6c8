// Package timeslot parses the free-text meeting times stored with class
// schedules and decides overlap against the fixed display grid. Parsing
// happens at read time; storage keeps the heterogeneous historical text.
package timeslot

import (
	"strconv"
	"strings"
)

// PeriodMinutes is the school's standard period length, assumed when a
// schedule entry carries a single start time instead of a range.
const PeriodMinutes = 50

// Range is a meeting time in minutes since midnight, half-open [Start, End).
type Range struct {
	Start int
	End   int
}

// DisplaySlots are the fixed columns of the weekly timetable grid.
var DisplaySlots = []string{
	"08:00-08:50",
	"09:00-09:50",
	"10:00-10:50",
	"11:00-11:50",
	"12:00-12:50",
	"13:00-13:50",
	"14:00-14:50",
	"15:00-15:50",
}

// rangeSeparators accepted between the two time tokens.
var rangeSeparators = []string{"–", "—", "-"}

// ParseRange parses text like "8:00-8:50", "08:00 – 09:30" or a bare
// "13:00" (treated as one period) into a minute interval. Returns nil for
// anything it cannot understand.
func ParseRange(text string) *Range {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	for _, sep := range rangeSeparators {
		if idx := strings.Index(text, sep); idx >= 0 {
			start, okStart := parseClock(text[:idx])
			end, okEnd := parseClock(text[idx+len(sep):])
			if !okStart || !okEnd || end <= start {
				return nil
			}
			return &Range{Start: start, End: end}
		}
	}

	start, ok := parseClock(text)
	if !ok {
		return nil
	}
	return &Range{Start: start, End: start + PeriodMinutes}
}

// Overlaps reports whether two ranges share any time. Boundary touches do
// not count: a slot ending at 9:00 does not overlap one starting at 9:00.
func Overlaps(a, b Range) bool {
	return a.Start < b.End && a.End > b.Start
}

func parseClock(token string) (int, bool) {
	token = strings.TrimSpace(token)
	parts := strings.Split(token, ":")
	if len(parts) != 2 {
		return 0, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}

// Canonical Thai day names, Monday first, used for grouping the weekly grid.
var WeekDays = []string{
	"จันทร์",
	"อังคาร",
	"พุธ",
	"พฤหัสบดี",
	"ศุกร์",
	"เสาร์",
	"อาทิตย์",
}

var dayAliases = map[string]string{
	// Thai full names map to themselves.
	"จันทร์":    "จันทร์",
	"อังคาร":    "อังคาร",
	"พุธ":       "พุธ",
	"พฤหัสบดี":  "พฤหัสบดี",
	"พฤหัส":     "พฤหัสบดี",
	"ศุกร์":     "ศุกร์",
	"เสาร์":     "เสาร์",
	"อาทิตย์":   "อาทิตย์",
	"วันจันทร์":  "จันทร์",
	"วันอังคาร":  "อังคาร",
	"วันพุธ":    "พุธ",
	"วันพฤหัสบดี": "พฤหัสบดี",
	"วันศุกร์":   "ศุกร์",
	"วันเสาร์":   "เสาร์",
	"วันอาทิตย์":  "อาทิตย์",
	// Thai abbreviations.
	"จ":   "จันทร์",
	"อ":   "อังคาร",
	"พ":   "พุธ",
	"พฤ":  "พฤหัสบดี",
	"ศ":   "ศุกร์",
	"ส":   "เสาร์",
	"อา":  "อาทิตย์",
	// English names and abbreviations, matched lowercase.
	"monday":    "จันทร์",
	"mon":       "จันทร์",
	"tuesday":   "อังคาร",
	"tue":       "อังคาร",
	"tues":      "อังคาร",
	"wednesday": "พุธ",
	"wed":       "พุธ",
	"thursday":  "พฤหัสบดี",
	"thu":       "พฤหัสบดี",
	"thur":      "พฤหัสบดี",
	"thurs":     "พฤหัสบดี",
	"friday":    "ศุกร์",
	"fri":       "ศุกร์",
	"saturday":  "เสาร์",
	"sat":       "เสาร์",
	"sunday":    "อาทิตย์",
	"sun":       "อาทิตย์",
}

// NormalizeDay canonicalizes a Thai or English day name or abbreviation to
// the full Thai day name. Unrecognized input is returned trimmed so the
// caller can still group by it.
func NormalizeDay(name string) string {
	trimmed := strings.TrimSpace(name)
	key := strings.ToLower(strings.TrimSuffix(trimmed, "."))
	if canonical, ok := dayAliases[key]; ok {
		return canonical
	}
	return trimmed
}

var englishDays = map[string]string{
	"จันทร์":   "Monday",
	"อังคาร":   "Tuesday",
	"พุธ":      "Wednesday",
	"พฤหัสบดี": "Thursday",
	"ศุกร์":    "Friday",
	"เสาร์":    "Saturday",
	"อาทิตย์":  "Sunday",
}

// EnglishDay translates a canonical Thai day name to English. PDF export
// uses it for column headers since the core PDF fonts cannot render Thai.
// Unknown input is returned unchanged.
func EnglishDay(day string) string {
	if english, ok := englishDays[NormalizeDay(day)]; ok {
		return english
	}
	return day
}

// DayIndex returns the Monday-first ordering position of a canonical Thai
// day name, or len(WeekDays) for unknown days so they sort last.
func DayIndex(day string) int {
	for i, d := range WeekDays {
		if d == day {
			return i
		}
	}
	return len(WeekDays)
}
