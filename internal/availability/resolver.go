// Package availability answers "which start times are bookable" for one
// practitioner at one location on one civil day. Every answer is computed
// from a live config read and a live busy query; nothing is cached, so the
// result is a snapshot that can be stale the moment it is returned.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/oakwellhealth/clinic-scheduler/internal/calendar"
	"github.com/oakwellhealth/clinic-scheduler/internal/clinic"
	"github.com/oakwellhealth/clinic-scheduler/internal/observability/metrics"
	"github.com/oakwellhealth/clinic-scheduler/internal/schedule"
	"github.com/oakwellhealth/clinic-scheduler/internal/timeutil"
	"github.com/oakwellhealth/clinic-scheduler/pkg/logging"
)

var availabilityTracer = otel.Tracer("clinic.internal.availability")

// ErrInvalidInput is returned when a request carries a malformed date,
// identifier, or duration.
var ErrInvalidInput = errors.New("availability: invalid input")

// Blocked-day reasons reported in DayAvailability.Reason.
const (
	ReasonNoSchedule = "no_schedule"
	ReasonHoliday    = "holiday"
)

// SettingsSource yields per-clinic scheduling settings.
type SettingsSource interface {
	Get(ctx context.Context, clinicID string) (*clinic.Settings, error)
}

// Request identifies the day being queried. DurationMin of zero means the
// clinic's default appointment length.
type Request struct {
	PractitionerID string `json:"practitionerId"`
	LocationID     string `json:"locationId"`
	Date           string `json:"date"`
	DurationMin    int    `json:"durationMinutes,omitempty"`
}

// Validate checks identifiers, the ISO date, and the duration.
func (r Request) Validate() error {
	if r.PractitionerID == "" || r.LocationID == "" {
		return fmt.Errorf("%w: practitioner and location are required", ErrInvalidInput)
	}
	if !timeutil.ValidDate(r.Date) {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrInvalidInput, r.Date)
	}
	if r.DurationMin < 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	return nil
}

// DayAvailability is the answer for one day. Blocked days carry a reason and
// an empty slot list; an open day with every slot occupied has Blocked false
// and an empty list.
type DayAvailability struct {
	Slots   []string
	Blocked bool
	Reason  string
}

// Resolver computes bookable start times.
type Resolver struct {
	store    schedule.Store
	gateway  calendar.Gateway
	settings SettingsSource
	clinicID string
	metrics  *metrics.SchedulingMetrics
	logger   *logging.Logger
}

// NewResolver constructs an availability resolver.
func NewResolver(store schedule.Store, gateway calendar.Gateway, settings SettingsSource, clinicID string, m *metrics.SchedulingMetrics, logger *logging.Logger) *Resolver {
	if store == nil {
		panic("availability: schedule store required")
	}
	if gateway == nil {
		panic("availability: calendar gateway required")
	}
	if settings == nil {
		panic("availability: settings source required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		store:    store,
		gateway:  gateway,
		settings: settings,
		clinicID: clinicID,
		metrics:  m,
		logger:   logger,
	}
}

// Resolve returns the bookable start times for the requested day. It reads
// configuration and busy state live; any gateway failure surfaces as
// calendar.ErrUnavailable rather than an optimistic empty list.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*DayAvailability, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.resolve")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinic.practitioner_id", req.PractitionerID),
		attribute.String("clinic.location_id", req.LocationID),
		attribute.String("clinic.date", req.Date),
	)

	if err := req.Validate(); err != nil {
		r.metrics.ObserveAvailability("invalid")
		return nil, err
	}

	mapping, err := r.store.MappingFor(ctx, req.PractitionerID, req.LocationID)
	if err != nil {
		if errors.Is(err, schedule.ErrNoMapping) {
			r.metrics.ObserveAvailability("no_mapping")
		} else {
			span.RecordError(err)
			r.metrics.ObserveAvailability("error")
		}
		return nil, err
	}

	settings, err := r.settings.Get(ctx, r.clinicID)
	if err != nil {
		span.RecordError(err)
		r.metrics.ObserveAvailability("error")
		return nil, err
	}
	loc, err := settings.Location()
	if err != nil {
		span.RecordError(err)
		r.metrics.ObserveAvailability("error")
		return nil, err
	}
	durationMin := req.DurationMin
	if durationMin == 0 {
		durationMin = settings.DefaultDurationMin
	}

	weekday, err := timeutil.Weekday(req.Date, loc)
	if err != nil {
		r.metrics.ObserveAvailability("invalid")
		return nil, err
	}
	ranges := mapping.Schedule.ForDay(weekday)
	if len(ranges) == 0 {
		r.metrics.ObserveAvailability(ReasonNoSchedule)
		return &DayAvailability{Blocked: true, Reason: ReasonNoSchedule}, nil
	}

	holidays, err := r.store.HolidaysOn(ctx, req.Date)
	if err != nil {
		span.RecordError(err)
		r.metrics.ObserveAvailability("error")
		return nil, err
	}
	holidays = schedule.ApplicableHolidays(holidays, req.PractitionerID, req.LocationID)
	if schedule.FullyBlocked(holidays) {
		r.metrics.ObserveAvailability(ReasonHoliday)
		return &DayAvailability{Blocked: true, Reason: ReasonHoliday}, nil
	}

	candidates := GenerateSlots(ranges, settings.SlotGranularityMin, durationMin)

	dayStart, dayEnd, err := timeutil.CivilDayBounds(req.Date, loc)
	if err != nil {
		r.metrics.ObserveAvailability("invalid")
		return nil, err
	}
	busyStart := time.Now()
	busy, err := r.gateway.QueryBusy(ctx, mapping.RemoteCalendarID, dayStart, dayEnd)
	r.metrics.ObserveGatewayLatency("query_busy", time.Since(busyStart).Seconds())
	if err != nil {
		span.RecordError(err)
		r.metrics.ObserveAvailability("error")
		r.logger.Warn("busy query failed",
			"calendar_id", mapping.RemoteCalendarID, "date", req.Date, "error", err)
		return nil, err
	}

	slots := make([]string, 0, len(candidates))
	for _, startMin := range candidates {
		endMin := startMin + durationMin
		if HolidayConflicts(startMin, endMin, holidays) {
			continue
		}
		slotStart, err := timeutil.AtMinute(req.Date, startMin, loc)
		if err != nil {
			return nil, err
		}
		slotEnd, err := timeutil.AtMinute(req.Date, endMin, loc)
		if err != nil {
			return nil, err
		}
		if Conflicts(slotStart, slotEnd, busy) {
			continue
		}
		slots = append(slots, timeutil.FormatMinute(startMin))
	}

	r.metrics.ObserveAvailability("slots")
	r.logger.Info("availability resolved",
		"practitioner_id", req.PractitionerID, "location_id", req.LocationID,
		"date", req.Date, "slots", len(slots), "busy", len(busy))
	return &DayAvailability{Slots: slots}, nil
}
