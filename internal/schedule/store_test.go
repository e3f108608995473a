package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
)

const mondaySchedule = `{"1":[{"start":"09:00","end":"12:00"}]}`

func TestMappingFor(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStoreWithQuerier(mock)

	mock.ExpectQuery("SELECT (.+) FROM calendar_mappings").
		WithArgs("prac-1", "loc-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "practitioner_id", "location_id", "remote_calendar_id", "active", "weekly_schedule"}).
			AddRow("map-1", "prac-1", "loc-1", "cal-1@group.calendar.google.com", true, []byte(mondaySchedule)))

	m, err := store.MappingFor(context.Background(), "prac-1", "loc-1")
	if err != nil {
		t.Fatalf("MappingFor error: %v", err)
	}
	if m.RemoteCalendarID != "cal-1@group.calendar.google.com" {
		t.Fatalf("unexpected calendar id: %s", m.RemoteCalendarID)
	}
	if got := m.Schedule.ForDay(time.Monday); len(got) != 1 || got[0].Start != "09:00" {
		t.Fatalf("unexpected schedule: %+v", m.Schedule)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMappingForMissingOrInactive(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStoreWithQuerier(mock)

	mock.ExpectQuery("SELECT (.+) FROM calendar_mappings").
		WithArgs("prac-x", "loc-x").
		WillReturnRows(pgxmock.NewRows([]string{"id", "practitioner_id", "location_id", "remote_calendar_id", "active", "weekly_schedule"}))
	if _, err := store.MappingFor(context.Background(), "prac-x", "loc-x"); !errors.Is(err, ErrNoMapping) {
		t.Fatalf("expected ErrNoMapping for missing row, got %v", err)
	}

	mock.ExpectQuery("SELECT (.+) FROM calendar_mappings").
		WithArgs("prac-1", "loc-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "practitioner_id", "location_id", "remote_calendar_id", "active", "weekly_schedule"}).
			AddRow("map-1", "prac-1", "loc-1", "cal-1", false, []byte(mondaySchedule)))
	if _, err := store.MappingFor(context.Background(), "prac-1", "loc-1"); !errors.Is(err, ErrNoMapping) {
		t.Fatalf("expected ErrNoMapping for inactive mapping, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestHolidaysOn(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := NewPostgresStoreWithQuerier(mock)

	start := "13:00"
	end := "17:00"
	mock.ExpectQuery("SELECT (.+) FROM holiday_exceptions").
		WithArgs("2026-07-04").
		WillReturnRows(pgxmock.NewRows([]string{"id", "practitioner_id", "location_id", "start_time", "end_time", "reason"}).
			AddRow("hol-1", "", "", nil, nil, "Independence Day").
			AddRow("hol-2", "prac-1", "loc-1", &start, &end, "staff offsite"))

	hols, err := store.HolidaysOn(context.Background(), "2026-07-04")
	if err != nil {
		t.Fatalf("HolidaysOn error: %v", err)
	}
	if len(hols) != 2 {
		t.Fatalf("expected 2 holidays, got %d", len(hols))
	}
	if !hols[0].Block.IsAllDay() {
		t.Fatalf("expected first holiday all-day, got %+v", hols[0].Block)
	}
	if hols[1].Block.IsAllDay() || !hols[1].Block.Overlaps(13*60, 13*60+30) {
		t.Fatalf("expected second holiday to be the 13:00-17:00 window")
	}
	if hols[1].Date != "2026-07-04" {
		t.Fatalf("expected date backfilled, got %s", hols[1].Date)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	store.AddMapping(CalendarMapping{
		PractitionerID:   "prac-1",
		LocationID:       "loc-1",
		RemoteCalendarID: "cal-1",
		Active:           true,
		Schedule:         WeeklySchedule{time.Monday: {{Start: "09:00", End: "12:00"}}},
	})
	store.AddMapping(CalendarMapping{
		PractitionerID:   "prac-2",
		LocationID:       "loc-1",
		RemoteCalendarID: "cal-2",
		Active:           false,
	})
	store.AddHoliday(HolidayException{Date: "2026-12-25", Block: AllDay(), Reason: "Christmas"})

	if _, err := store.MappingFor(context.Background(), "prac-1", "loc-1"); err != nil {
		t.Fatalf("expected mapping, got %v", err)
	}
	if _, err := store.MappingFor(context.Background(), "prac-2", "loc-1"); !errors.Is(err, ErrNoMapping) {
		t.Fatalf("expected ErrNoMapping for inactive mapping, got %v", err)
	}
	if _, err := store.MappingByCalendarID(context.Background(), "cal-1"); err != nil {
		t.Fatalf("expected mapping by calendar id, got %v", err)
	}
	hols, err := store.HolidaysOn(context.Background(), "2026-12-25")
	if err != nil || len(hols) != 1 {
		t.Fatalf("expected one holiday, got %v %v", hols, err)
	}
	if hols, _ := store.HolidaysOn(context.Background(), "2026-12-26"); hols != nil {
		t.Fatalf("expected no holidays on other dates, got %v", hols)
	}
}
