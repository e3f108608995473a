package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store provides read-only access to scheduling configuration. It is
// injected per request and reads live on every call; nothing is cached
// across requests.
type Store interface {
	// MappingFor returns the active mapping for a practitioner-location
	// pair, or ErrNoMapping when none exists or it is inactive.
	MappingFor(ctx context.Context, practitionerID, locationID string) (*CalendarMapping, error)
	// MappingByCalendarID resolves a mapping from its remote calendar id.
	MappingByCalendarID(ctx context.Context, calendarID string) (*CalendarMapping, error)
	// HolidaysOn returns every holiday exception dated on the given ISO
	// date, unfiltered by scope.
	HolidaysOn(ctx context.Context, date string) ([]HolidayException, error)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads scheduling configuration from Postgres.
type PostgresStore struct {
	db querier
}

// NewPostgresStore creates a store backed by a pgx pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("schedule: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

// NewPostgresStoreWithQuerier allows injecting mocks for tests.
func NewPostgresStoreWithQuerier(q querier) *PostgresStore {
	return &PostgresStore{db: q}
}

const mappingColumns = `id, practitioner_id, location_id, remote_calendar_id, active, weekly_schedule`

func (s *PostgresStore) MappingFor(ctx context.Context, practitionerID, locationID string) (*CalendarMapping, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+mappingColumns+`
		FROM calendar_mappings
		WHERE practitioner_id = $1 AND location_id = $2`,
		practitionerID, locationID)
	return scanMapping(row)
}

func (s *PostgresStore) MappingByCalendarID(ctx context.Context, calendarID string) (*CalendarMapping, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+mappingColumns+`
		FROM calendar_mappings
		WHERE remote_calendar_id = $1`,
		calendarID)
	return scanMapping(row)
}

func scanMapping(row pgx.Row) (*CalendarMapping, error) {
	var m CalendarMapping
	var rawSchedule []byte
	err := row.Scan(&m.ID, &m.PractitionerID, &m.LocationID, &m.RemoteCalendarID, &m.Active, &rawSchedule)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoMapping
	}
	if err != nil {
		return nil, fmt.Errorf("schedule: load mapping: %w", err)
	}
	if !m.Active {
		return nil, ErrNoMapping
	}
	if len(rawSchedule) > 0 {
		if err := json.Unmarshal(rawSchedule, &m.Schedule); err != nil {
			return nil, fmt.Errorf("schedule: decode weekly schedule for mapping %s: %w", m.ID, err)
		}
	}
	return &m, nil
}

func (s *PostgresStore) HolidaysOn(ctx context.Context, date string) ([]HolidayException, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, COALESCE(practitioner_id, ''), COALESCE(location_id, ''),
		       start_time, end_time, reason
		FROM holiday_exceptions
		WHERE date = $1
		ORDER BY id`,
		date)
	if err != nil {
		return nil, fmt.Errorf("schedule: load holidays: %w", err)
	}
	defer rows.Close()

	var out []HolidayException
	for rows.Next() {
		var h HolidayException
		var start, end *string
		if err := rows.Scan(&h.ID, &h.PractitionerID, &h.LocationID, &start, &end, &h.Reason); err != nil {
			return nil, fmt.Errorf("schedule: scan holiday: %w", err)
		}
		h.Date = date
		if start == nil || end == nil {
			h.Block = AllDay()
		} else {
			block, err := Window(*start, *end)
			if err != nil {
				return nil, fmt.Errorf("schedule: holiday %s: %w", h.ID, err)
			}
			h.Block = block
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
