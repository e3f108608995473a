// Package schedule holds the clinic's admin-authored scheduling
// configuration: recurring weekly availability per practitioner-location
// pair, and dated holiday exceptions. Configuration is read-only here;
// admin CRUD lives outside this engine.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/oakwellhealth/clinic-scheduler/internal/timeutil"
)

// ErrNoMapping is returned when no active calendar mapping exists for a
// practitioner-location pair.
var ErrNoMapping = errors.New("schedule: no active calendar mapping")

// TimeRange is a wall-clock open interval within one civil day, half-open
// [Start, End) in "HH:mm".
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Validate checks the HH:mm format and the start < end invariant.
func (r TimeRange) Validate() error {
	startMin, err := timeutil.MinuteOfDay(r.Start)
	if err != nil {
		return err
	}
	endMin, err := timeutil.MinuteOfDay(r.End)
	if err != nil {
		return err
	}
	if startMin >= endMin {
		return fmt.Errorf("schedule: range %s-%s must start before it ends", r.Start, r.End)
	}
	return nil
}

// Minutes returns the range bounds as minutes since midnight. The range must
// have been validated.
func (r TimeRange) Minutes() (start, end int) {
	start, _ = timeutil.MinuteOfDay(r.Start)
	end, _ = timeutil.MinuteOfDay(r.End)
	return start, end
}

// WeeklySchedule maps a weekday to its open ranges. A missing or nil entry
// means the practitioner is closed that day at that location.
type WeeklySchedule map[time.Weekday][]TimeRange

// ForDay returns the open ranges for a weekday, or nil when closed.
func (ws WeeklySchedule) ForDay(day time.Weekday) []TimeRange {
	if ws == nil {
		return nil
	}
	return ws[day]
}

// CalendarMapping joins a practitioner's presence at a location to a weekly
// schedule and a remote calendar identity. One mapping exists per
// (practitioner, location) pair.
type CalendarMapping struct {
	ID               string
	PractitionerID   string
	LocationID       string
	RemoteCalendarID string
	Active           bool
	Schedule         WeeklySchedule
}

// Block is the blocked portion of a holiday exception: either the whole day
// or a wall-clock window. The zero value is not meaningful; use AllDay or
// Window.
type Block struct {
	allDay   bool
	startMin int
	endMin   int
}

// AllDay returns a block covering the entire civil day.
func AllDay() Block {
	return Block{allDay: true}
}

// Window returns a block covering the wall-clock interval [start, end).
func Window(start, end string) (Block, error) {
	startMin, err := timeutil.MinuteOfDay(start)
	if err != nil {
		return Block{}, err
	}
	endMin, err := timeutil.MinuteOfDay(end)
	if err != nil {
		return Block{}, err
	}
	if startMin >= endMin {
		return Block{}, fmt.Errorf("schedule: holiday window %s-%s must start before it ends", start, end)
	}
	return Block{startMin: startMin, endMin: endMin}, nil
}

// IsAllDay reports whether the block covers the whole day.
func (b Block) IsAllDay() bool {
	return b.allDay
}

// Overlaps reports whether the block intersects the wall-clock minute
// interval [startMin, endMin). Holiday windows are compared in wall-clock
// minutes, not absolute instants: exceptions are authored by staff without
// timezone ambiguity, and staying in the wall-clock domain avoids spurious
// mismatches on DST-transition days.
func (b Block) Overlaps(startMin, endMin int) bool {
	if b.allDay {
		return true
	}
	return b.startMin < endMin && startMin < b.endMin
}

// Bounds returns the window bounds in minutes since midnight. For an all-day
// block it returns the full day.
func (b Block) Bounds() (start, end int) {
	if b.allDay {
		return 0, 24 * 60
	}
	return b.startMin, b.endMin
}

// HolidayException is a dated override blocking bookability. An exception
// with neither practitioner nor location scope applies to everyone;
// otherwise every scope field that is set must match.
type HolidayException struct {
	ID             string
	PractitionerID string // empty = any practitioner
	LocationID     string // empty = any location
	Date           string // ISO YYYY-MM-DD
	Block          Block
	Reason         string
}

// AppliesTo reports whether the exception is in scope for the given
// practitioner at the given location.
func (h HolidayException) AppliesTo(practitionerID, locationID string) bool {
	if h.PractitionerID != "" && h.PractitionerID != practitionerID {
		return false
	}
	if h.LocationID != "" && h.LocationID != locationID {
		return false
	}
	return true
}
