package availability

import (
	"time"

	"github.com/oakwellhealth/clinic-scheduler/internal/calendar"
	"github.com/oakwellhealth/clinic-scheduler/internal/schedule"
)

// DefaultGranularityMin is the slot step used when clinic settings carry none.
const DefaultGranularityMin = 15

// GenerateSlots discretizes a day's open ranges into candidate start times,
// in minutes since midnight. Each range is walked independently: starts
// advance by granularityMin while the full duration still fits before the
// range end, so a range shorter than the duration yields nothing and a range
// of exactly the duration yields its start. Candidates from overlapping
// ranges are not deduplicated; overlapping ranges are a configuration error
// the store is expected to reject.
func GenerateSlots(ranges []schedule.TimeRange, granularityMin, durationMin int) []int {
	if granularityMin <= 0 || durationMin <= 0 {
		return nil
	}
	var slots []int
	for _, r := range ranges {
		start, end := r.Minutes()
		for cur := start; cur+durationMin <= end; cur += granularityMin {
			slots = append(slots, cur)
		}
	}
	return slots
}

// Conflicts reports whether the half-open slot [start, end) overlaps any
// busy interval. This is the one overlap predicate shared by the resolver
// and the committer: aStart < bEnd && bStart < aEnd, so a slot ending
// exactly when a busy interval begins does not conflict.
func Conflicts(start, end time.Time, busy []calendar.BusyInterval) bool {
	for _, b := range busy {
		if start.Before(b.End) && b.Start.Before(end) {
			return true
		}
	}
	return false
}

// HolidayConflicts reports whether the wall-clock minute slot
// [startMin, endMin) intersects any of the given (already scope-filtered)
// holiday exceptions. Holiday windows stay in the wall-clock domain while
// busy intervals are absolute instants; comparing each in its own domain
// avoids spurious mismatches on DST-transition days.
func HolidayConflicts(startMin, endMin int, holidays []schedule.HolidayException) bool {
	for _, h := range holidays {
		if h.Block.Overlaps(startMin, endMin) {
			return true
		}
	}
	return false
}
