// Package calendar talks to the clinic's remote calendar, the single source
// of truth for booked events. Busy state is queried live per call and never
// cached; the gateway owns its own credential lifecycle behind the interface.
package calendar

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned for any gateway I/O failure or timeout. Callers
// must treat it as "unknown", never as "free".
var ErrUnavailable = errors.New("calendar: gateway unavailable")

// ErrEventNotFound is returned when the remote calendar has no such event.
var ErrEventNotFound = errors.New("calendar: event not found")

// BusyInterval is an occupied half-open interval [Start, End) in absolute
// instants, as reported by the remote calendar at query time.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// EventDraft is the payload for creating an appointment event.
type EventDraft struct {
	Title        string
	Description  string
	Start        time.Time
	End          time.Time
	PatientName  string
	PatientEmail string
}

// Event is a booked appointment as stored remotely.
type Event struct {
	ID      string
	Title   string
	Start   time.Time
	End     time.Time
	Status  string
	Created time.Time
}

// Gateway is the remote calendar boundary. Every method is a blocking
// network call; callers bound it with their context.
type Gateway interface {
	// QueryBusy returns the calendar's busy intervals overlapping
	// [from, to), fresh at call time.
	QueryBusy(ctx context.Context, calendarID string, from, to time.Time) ([]BusyInterval, error)
	// CreateEvent books an event and returns the remote event id.
	CreateEvent(ctx context.Context, calendarID string, draft EventDraft) (string, error)
	// UpdateEventTime moves an existing event; all other fields are
	// preserved remotely.
	UpdateEventTime(ctx context.Context, calendarID, eventID string, start, end time.Time) error
	// DeleteEvent removes an event. Unknown events yield ErrEventNotFound.
	DeleteEvent(ctx context.Context, calendarID, eventID string) error
	// GetEvent fetches a single event.
	GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error)
}
