// Package timeutil converts clinic-local wall-clock dates and times to
// absolute instants. Every conversion is anchored to a specific civil date in
// the clinic's fixed timezone, never the host process's zone, so results stay
// correct across DST transitions.
package timeutil

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidTimeFormat is returned for dates that are not ISO YYYY-MM-DD or
// clock strings that are not 24-hour HH:mm.
var ErrInvalidTimeFormat = errors.New("timeutil: invalid date or time format")

var (
	dateRE  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockRE = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)
)

// ValidDate reports whether s is a well-formed ISO calendar date.
func ValidDate(s string) bool {
	if !dateRE.MatchString(s) {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// ValidClock reports whether s is a well-formed 24-hour HH:mm string.
func ValidClock(s string) bool {
	return clockRE.MatchString(s)
}

// MinuteOfDay converts an HH:mm string to minutes since midnight.
func MinuteOfDay(clock string) (int, error) {
	m := clockRE.FindStringSubmatch(clock)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, clock)
	}
	hours, _ := strconv.Atoi(m[1])
	minutes, _ := strconv.Atoi(m[2])
	return hours*60 + minutes, nil
}

// FormatMinute renders minutes since midnight as an HH:mm string.
func FormatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}

// ToAbsolute resolves a wall-clock date+time in loc to an absolute instant.
// The conversion goes through time.Date for the specific civil date, so a
// clock reading on a DST-transition day maps to the instant that date's
// offset dictates.
func ToAbsolute(date, clock string, loc *time.Location) (time.Time, error) {
	minute, err := MinuteOfDay(clock)
	if err != nil {
		return time.Time{}, err
	}
	return AtMinute(date, minute, loc)
}

// AtMinute resolves a civil date plus minutes-since-midnight to an instant.
// Minutes are applied as clock fields, not as elapsed duration from
// midnight, so 09:00 stays 09:00 wall clock on a DST-transition day.
func AtMinute(date string, minute int, loc *time.Location) (time.Time, error) {
	day, err := parseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, loc), nil
}

// CivilDayBounds returns the half-open instant interval [start, end) covering
// the civil date in loc. The end bound is computed with AddDate so a 23- or
// 25-hour DST day still ends at the next civil midnight.
func CivilDayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	day, err := parseDate(date, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return day, day.AddDate(0, 0, 1), nil
}

// Weekday returns the day of week of a civil date in loc.
func Weekday(date string, loc *time.Location) (time.Weekday, error) {
	day, err := parseDate(date, loc)
	if err != nil {
		return 0, err
	}
	return day.Weekday(), nil
}

func parseDate(date string, loc *time.Location) (time.Time, error) {
	if !dateRE.MatchString(date) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, date)
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, date)
	}
	return time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, loc), nil
}
