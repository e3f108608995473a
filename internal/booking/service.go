// Package booking commits, moves, and cancels appointments against the
// remote calendar. Commit uses re-check-then-commit as its only concurrency
// control: the slot is re-verified against a freshly fetched busy list
// immediately before create-event. No lock spans the gateway call, so two
// truly simultaneous submits can still both pass the re-check and race at
// the remote insert; that residual window is accepted.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/oakwellhealth/clinic-scheduler/internal/availability"
	"github.com/oakwellhealth/clinic-scheduler/internal/calendar"
	"github.com/oakwellhealth/clinic-scheduler/internal/observability/metrics"
	"github.com/oakwellhealth/clinic-scheduler/internal/schedule"
	"github.com/oakwellhealth/clinic-scheduler/internal/timeutil"
	"github.com/oakwellhealth/clinic-scheduler/pkg/logging"
)

var bookingTracer = otel.Tracer("clinic.internal.booking")

var (
	// ErrInvalidInput is returned for malformed ids, dates, or times,
	// before any I/O happens.
	ErrInvalidInput = errors.New("booking: invalid input")
	// ErrSlotTaken is returned when the requested slot stopped being free
	// between display and commit.
	ErrSlotTaken = errors.New("booking: slot no longer available")
	// ErrScheduleClosed is returned when the requested slot falls outside
	// the practitioner's open ranges for that day.
	ErrScheduleClosed = errors.New("booking: schedule closed at requested time")
	// ErrHolidayBlocked is returned when a holiday exception covers the
	// requested slot.
	ErrHolidayBlocked = errors.New("booking: holiday blocks requested time")
)

// Request asks for a new appointment at an exact slot.
type Request struct {
	PractitionerID string `json:"practitionerId"`
	LocationID     string `json:"locationId"`
	Date           string `json:"date"`
	Start          string `json:"time"`
	DurationMin    int    `json:"durationMinutes,omitempty"`
	PatientName    string `json:"patientName"`
	PatientEmail   string `json:"patientEmail,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

// Validate checks the request shape before any I/O.
func (r Request) Validate() error {
	if r.PractitionerID == "" || r.LocationID == "" {
		return fmt.Errorf("%w: practitioner and location are required", ErrInvalidInput)
	}
	if !timeutil.ValidDate(r.Date) {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidInput, r.Date)
	}
	if !timeutil.ValidClock(r.Start) {
		return fmt.Errorf("%w: time %q is not HH:mm", ErrInvalidInput, r.Start)
	}
	if r.DurationMin < 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	if r.PatientName == "" {
		return fmt.Errorf("%w: patient name is required", ErrInvalidInput)
	}
	return nil
}

// RescheduleRequest moves an existing event to a new slot on the same
// calendar. The calendar id is immutable across a reschedule; moving to a
// different practitioner or location is cancel plus a new booking.
type RescheduleRequest struct {
	CalendarID  string `json:"calendarId"`
	EventID     string `json:"eventId"`
	Date        string `json:"date"`
	Start       string `json:"time"`
	DurationMin int    `json:"durationMinutes,omitempty"`
}

// Validate checks the request shape before any I/O.
func (r RescheduleRequest) Validate() error {
	if r.CalendarID == "" || r.EventID == "" {
		return fmt.Errorf("%w: calendar and event ids are required", ErrInvalidInput)
	}
	if !timeutil.ValidDate(r.Date) {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidInput, r.Date)
	}
	if !timeutil.ValidClock(r.Start) {
		return fmt.Errorf("%w: time %q is not HH:mm", ErrInvalidInput, r.Start)
	}
	if r.DurationMin < 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	return nil
}

// Confirmation is returned for a committed booking.
type Confirmation struct {
	BookingID  string `json:"bookingId"`
	CalendarID string `json:"calendarId"`
	Date       string `json:"date"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

// Service orchestrates commit, reschedule, and cancel.
type Service struct {
	store    schedule.Store
	gateway  calendar.Gateway
	settings availability.SettingsSource
	clinicID string
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
}

// NewService constructs a booking service.
func NewService(store schedule.Store, gateway calendar.Gateway, settings availability.SettingsSource, clinicID string, m *metrics.SchedulingMetrics, logger *logging.Logger) *Service {
	if store == nil {
		panic("booking: schedule store required")
	}
	if gateway == nil {
		panic("booking: calendar gateway required")
	}
	if settings == nil {
		panic("booking: settings source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		gateway:  gateway,
		settings: settings,
		clinicID: clinicID,
		metrics:  m,
		logger:   logger,
	}
}

// Commit books the requested slot. The slot is re-verified against schedule,
// holidays, and a fresh busy list immediately before the event is created;
// a slot that stopped being free yields ErrSlotTaken and no event.
func (s *Service) Commit(ctx context.Context, req Request) (*Confirmation, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.commit")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.practitioner_id", req.PractitionerID),
		attribute.String("clinic.location_id", req.LocationID),
		attribute.String("clinic.date", req.Date),
		attribute.String("clinic.start", req.Start),
	)

	if err := req.Validate(); err != nil {
		s.metrics.ObserveCommit("commit", "invalid")
		return nil, err
	}

	mapping, err := s.store.MappingFor(ctx, req.PractitionerID, req.LocationID)
	if err != nil {
		s.metrics.ObserveCommit("commit", commitOutcome(err))
		return nil, err
	}
	loc, durationMin, err := s.slotParams(ctx, req.DurationMin)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveCommit("commit", "error")
		return nil, err
	}
	startMin, _ := timeutil.MinuteOfDay(req.Start)

	if err := s.checkSlot(ctx, mapping, loc, req.Date, startMin, durationMin, nil); err != nil {
		s.metrics.ObserveCommit("commit", commitOutcome(err))
		return nil, err
	}

	slotStart, err := timeutil.AtMinute(req.Date, startMin, loc)
	if err != nil {
		return nil, err
	}
	slotEnd, err := timeutil.AtMinute(req.Date, startMin+durationMin, loc)
	if err != nil {
		return nil, err
	}
	createStart := time.Now()
	eventID, err := s.gateway.CreateEvent(ctx, mapping.RemoteCalendarID, calendar.EventDraft{
		Title:        fmt.Sprintf("Appointment: %s", req.PatientName),
		Description:  req.Notes,
		Start:        slotStart,
		End:          slotEnd,
		PatientName:  req.PatientName,
		PatientEmail: req.PatientEmail,
	})
	s.metrics.ObserveGatewayLatency("create_event", time.Since(createStart).Seconds())
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveCommit("commit", "error")
		return nil, err
	}

	s.metrics.ObserveCommit("commit", "booked")
	s.logger.Info("booking committed",
		"event_id", eventID, "calendar_id", mapping.RemoteCalendarID,
		"date", req.Date, "start", req.Start)
	return &Confirmation{
		BookingID:  eventID,
		CalendarID: mapping.RemoteCalendarID,
		Date:       req.Date,
		Start:      timeutil.FormatMinute(startMin),
		End:        timeutil.FormatMinute(startMin + durationMin),
	}, nil
}

// Reschedule moves an event to a new slot on its own calendar. The target
// slot runs the same checks as a commit, except busy time covered by the
// event being moved does not count against it. A taken slot leaves the
// original event untouched.
func (s *Service) Reschedule(ctx context.Context, req RescheduleRequest) error {
	ctx, span := bookingTracer.Start(ctx, "booking.reschedule")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.calendar_id", req.CalendarID),
		attribute.String("clinic.event_id", req.EventID),
		attribute.String("clinic.date", req.Date),
	)

	if err := req.Validate(); err != nil {
		s.metrics.ObserveCommit("reschedule", "invalid")
		return err
	}

	mapping, err := s.store.MappingByCalendarID(ctx, req.CalendarID)
	if err != nil {
		s.metrics.ObserveCommit("reschedule", commitOutcome(err))
		return err
	}
	loc, durationMin, err := s.slotParams(ctx, req.DurationMin)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveCommit("reschedule", "error")
		return err
	}
	startMin, _ := timeutil.MinuteOfDay(req.Start)

	event, err := s.gateway.GetEvent(ctx, req.CalendarID, req.EventID)
	if err != nil {
		s.metrics.ObserveCommit("reschedule", commitOutcome(err))
		return err
	}
	original := &calendar.BusyInterval{Start: event.Start, End: event.End}

	if err := s.checkSlot(ctx, mapping, loc, req.Date, startMin, durationMin, original); err != nil {
		s.metrics.ObserveCommit("reschedule", commitOutcome(err))
		return err
	}

	slotStart, err := timeutil.AtMinute(req.Date, startMin, loc)
	if err != nil {
		return err
	}
	slotEnd, err := timeutil.AtMinute(req.Date, startMin+durationMin, loc)
	if err != nil {
		return err
	}
	updateStart := time.Now()
	err = s.gateway.UpdateEventTime(ctx, req.CalendarID, req.EventID, slotStart, slotEnd)
	s.metrics.ObserveGatewayLatency("update_event", time.Since(updateStart).Seconds())
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveCommit("reschedule", commitOutcome(err))
		return err
	}

	s.metrics.ObserveCommit("reschedule", "booked")
	s.logger.Info("booking rescheduled",
		"event_id", req.EventID, "calendar_id", req.CalendarID,
		"date", req.Date, "start", req.Start)
	return nil
}

// Cancel deletes an event. An already-deleted or unknown event counts as
// cancelled, so cancel is idempotent from the caller's view.
func (s *Service) Cancel(ctx context.Context, calendarID, eventID string) error {
	ctx, span := bookingTracer.Start(ctx, "booking.cancel")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.calendar_id", calendarID),
		attribute.String("clinic.event_id", eventID),
	)

	if calendarID == "" || eventID == "" {
		s.metrics.ObserveCommit("cancel", "invalid")
		return fmt.Errorf("%w: calendar and event ids are required", ErrInvalidInput)
	}

	deleteStart := time.Now()
	err := s.gateway.DeleteEvent(ctx, calendarID, eventID)
	s.metrics.ObserveGatewayLatency("delete_event", time.Since(deleteStart).Seconds())
	if errors.Is(err, calendar.ErrEventNotFound) {
		s.metrics.ObserveCommit("cancel", "already_cancelled")
		s.logger.Info("cancel of unknown event treated as already cancelled",
			"event_id", eventID, "calendar_id", calendarID)
		return nil
	}
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveCommit("cancel", "error")
		return err
	}

	s.metrics.ObserveCommit("cancel", "cancelled")
	s.logger.Info("booking cancelled", "event_id", eventID, "calendar_id", calendarID)
	return nil
}

// slotParams resolves the clinic timezone and the effective duration.
func (s *Service) slotParams(ctx context.Context, requested int) (*time.Location, int, error) {
	settings, err := s.settings.Get(ctx, s.clinicID)
	if err != nil {
		return nil, 0, err
	}
	loc, err := settings.Location()
	if err != nil {
		return nil, 0, err
	}
	if requested == 0 {
		requested = settings.DefaultDurationMin
	}
	return loc, requested, nil
}

// checkSlot verifies a single slot against the open schedule, holiday
// exceptions, and a freshly fetched busy list. ignore, when set, exempts
// busy time lying inside that interval (the event being rescheduled).
func (s *Service) checkSlot(ctx context.Context, mapping *schedule.CalendarMapping, loc *time.Location, date string, startMin, durationMin int, ignore *calendar.BusyInterval) error {
	endMin := startMin + durationMin

	weekday, err := timeutil.Weekday(date, loc)
	if err != nil {
		return err
	}
	if !withinSchedule(mapping.Schedule.ForDay(weekday), startMin, endMin) {
		return ErrScheduleClosed
	}

	holidays, err := s.store.HolidaysOn(ctx, date)
	if err != nil {
		return err
	}
	holidays = schedule.ApplicableHolidays(holidays, mapping.PractitionerID, mapping.LocationID)
	if availability.HolidayConflicts(startMin, endMin, holidays) {
		return ErrHolidayBlocked
	}

	dayStart, dayEnd, err := timeutil.CivilDayBounds(date, loc)
	if err != nil {
		return err
	}
	busyStart := time.Now()
	busy, err := s.gateway.QueryBusy(ctx, mapping.RemoteCalendarID, dayStart, dayEnd)
	s.metrics.ObserveGatewayLatency("query_busy", time.Since(busyStart).Seconds())
	if err != nil {
		return err
	}
	if ignore != nil {
		busy = withoutInterval(busy, *ignore)
	}

	slotStart, err := timeutil.AtMinute(date, startMin, loc)
	if err != nil {
		return err
	}
	slotEnd, err := timeutil.AtMinute(date, endMin, loc)
	if err != nil {
		return err
	}
	if availability.Conflicts(slotStart, slotEnd, busy) {
		return ErrSlotTaken
	}
	return nil
}

// withinSchedule reports whether [startMin, endMin) fits entirely inside one
// open range.
func withinSchedule(ranges []schedule.TimeRange, startMin, endMin int) bool {
	for _, r := range ranges {
		rStart, rEnd := r.Minutes()
		if startMin >= rStart && endMin <= rEnd {
			return true
		}
	}
	return false
}

// withoutInterval drops busy intervals fully covered by exempt.
func withoutInterval(busy []calendar.BusyInterval, exempt calendar.BusyInterval) []calendar.BusyInterval {
	out := busy[:0:0]
	for _, b := range busy {
		if !b.Start.Before(exempt.Start) && !b.End.After(exempt.End) {
			continue
		}
		out = append(out, b)
	}
	return out
}

// commitOutcome maps an error to its metrics label.
func commitOutcome(err error) string {
	switch {
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ErrScheduleClosed):
		return "schedule_closed"
	case errors.Is(err, ErrHolidayBlocked):
		return "holiday_blocked"
	case errors.Is(err, schedule.ErrNoMapping):
		return "no_mapping"
	case errors.Is(err, calendar.ErrEventNotFound):
		return "not_found"
	default:
		return "error"
	}
}
