package calendar

import (
	"context"
	"time"
)

type timeoutGateway struct {
	next Gateway
	d    time.Duration
}

// WithTimeout bounds every gateway call with its own deadline. A call that
// runs out of time fails like any other gateway I/O error; it must never be
// read as "free".
func WithTimeout(next Gateway, d time.Duration) Gateway {
	if d <= 0 {
		return next
	}
	return &timeoutGateway{next: next, d: d}
}

func (g *timeoutGateway) QueryBusy(ctx context.Context, calendarID string, from, to time.Time) ([]BusyInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.next.QueryBusy(ctx, calendarID, from, to)
}

func (g *timeoutGateway) CreateEvent(ctx context.Context, calendarID string, draft EventDraft) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.next.CreateEvent(ctx, calendarID, draft)
}

func (g *timeoutGateway) UpdateEventTime(ctx context.Context, calendarID, eventID string, start, end time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.next.UpdateEventTime(ctx, calendarID, eventID, start, end)
}

func (g *timeoutGateway) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.next.DeleteEvent(ctx, calendarID, eventID)
}

func (g *timeoutGateway) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	ctx, cancel := context.WithTimeout(ctx, g.d)
	defer cancel()
	return g.next.GetEvent(ctx, calendarID, eventID)
}
