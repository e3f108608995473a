package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/oakwellhealth/clinic-scheduler/pkg/logging"
)

// GoogleGateway implements Gateway over the Google Calendar v3 API. The
// underlying client refreshes its OAuth token transparently, so a single
// gateway instance stays valid for the process lifetime.
type GoogleGateway struct {
	svc    *gcal.Service
	logger *logging.Logger
}

// NewGoogleGateway builds a gateway from service-account credentials.
// Exactly one of credentialsJSON or credentialsFile should be set; with
// neither, Google's application-default credentials are used.
func NewGoogleGateway(ctx context.Context, credentialsJSON, credentialsFile string, logger *logging.Logger) (*GoogleGateway, error) {
	if logger == nil {
		logger = logging.Default()
	}
	opts := []option.ClientOption{option.WithScopes(gcal.CalendarScope)}
	switch {
	case credentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: create google service: %w", err)
	}
	return &GoogleGateway{svc: svc, logger: logger}, nil
}

// NewGoogleGatewayWithOptions allows tests to point the client at an
// httptest server.
func NewGoogleGatewayWithOptions(ctx context.Context, logger *logging.Logger, opts ...option.ClientOption) (*GoogleGateway, error) {
	if logger == nil {
		logger = logging.Default()
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar: create google service: %w", err)
	}
	return &GoogleGateway{svc: svc, logger: logger}, nil
}

func (g *GoogleGateway) QueryBusy(ctx context.Context, calendarID string, from, to time.Time) ([]BusyInterval, error) {
	req := &gcal.FreeBusyRequest{
		TimeMin: from.Format(time.RFC3339),
		TimeMax: to.Format(time.RFC3339),
		Items:   []*gcal.FreeBusyRequestItem{{Id: calendarID}},
	}
	res, err := g.svc.Freebusy.Query(req).Context(ctx).Do()
	if err != nil {
		return nil, g.mapError("freebusy query", calendarID, err)
	}
	cal, ok := res.Calendars[calendarID]
	if !ok {
		return nil, fmt.Errorf("%w: calendar %s absent from freebusy response", ErrUnavailable, calendarID)
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("%w: freebusy reported %s for calendar %s", ErrUnavailable, cal.Errors[0].Reason, calendarID)
	}

	busy := make([]BusyInterval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: bad busy start %q", ErrUnavailable, period.Start)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("%w: bad busy end %q", ErrUnavailable, period.End)
		}
		busy = append(busy, BusyInterval{Start: start, End: end})
	}
	return busy, nil
}

func (g *GoogleGateway) CreateEvent(ctx context.Context, calendarID string, draft EventDraft) (string, error) {
	ev := &gcal.Event{
		Summary:     draft.Title,
		Description: draft.Description,
		Start:       &gcal.EventDateTime{DateTime: draft.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: draft.End.Format(time.RFC3339)},
	}
	if draft.PatientEmail != "" {
		ev.Attendees = []*gcal.EventAttendee{{Email: draft.PatientEmail, DisplayName: draft.PatientName}}
	}
	created, err := g.svc.Events.Insert(calendarID, ev).Context(ctx).Do()
	if err != nil {
		return "", g.mapError("create event", calendarID, err)
	}
	g.logger.Info("calendar event created", "calendar_id", calendarID, "event_id", created.Id)
	return created.Id, nil
}

func (g *GoogleGateway) UpdateEventTime(ctx context.Context, calendarID, eventID string, start, end time.Time) error {
	patch := &gcal.Event{
		Start: &gcal.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:   &gcal.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}
	if _, err := g.svc.Events.Patch(calendarID, eventID, patch).Context(ctx).Do(); err != nil {
		return g.mapError("update event", calendarID, err)
	}
	g.logger.Info("calendar event moved", "calendar_id", calendarID, "event_id", eventID)
	return nil
}

func (g *GoogleGateway) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := g.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return g.mapError("delete event", calendarID, err)
	}
	g.logger.Info("calendar event deleted", "calendar_id", calendarID, "event_id", eventID)
	return nil
}

func (g *GoogleGateway) GetEvent(ctx context.Context, calendarID, eventID string) (*Event, error) {
	ev, err := g.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, g.mapError("get event", calendarID, err)
	}
	out := &Event{ID: ev.Id, Title: ev.Summary, Status: ev.Status}
	if ev.Start != nil && ev.Start.DateTime != "" {
		t, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			return nil, fmt.Errorf("%w: bad event start %q", ErrUnavailable, ev.Start.DateTime)
		}
		out.Start = t
	}
	if ev.End != nil && ev.End.DateTime != "" {
		t, err := time.Parse(time.RFC3339, ev.End.DateTime)
		if err != nil {
			return nil, fmt.Errorf("%w: bad event end %q", ErrUnavailable, ev.End.DateTime)
		}
		out.End = t
	}
	if ev.Created != "" {
		t, err := time.Parse(time.RFC3339, ev.Created)
		if err != nil {
			return nil, fmt.Errorf("%w: bad event created %q", ErrUnavailable, ev.Created)
		}
		out.Created = t
	}
	return out, nil
}

// mapError normalizes transport failures into the gateway taxonomy: a
// 404/410 means the event is gone, everything else is ErrUnavailable.
func (g *GoogleGateway) mapError(op, calendarID string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone {
			return fmt.Errorf("%w: %s on calendar %s", ErrEventNotFound, op, calendarID)
		}
		g.logger.Warn("google calendar api error", "op", op, "calendar_id", calendarID, "status", apiErr.Code)
		return fmt.Errorf("%w: %s returned status %d", ErrUnavailable, op, apiErr.Code)
	}
	g.logger.Warn("google calendar unreachable", "op", op, "calendar_id", calendarID, "error", err)
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
