package schedule

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store for tests and dev mode without Postgres.
type MemoryStore struct {
	mu       sync.RWMutex
	mappings []*CalendarMapping
	holidays []HolidayException
}

// NewMemoryStore creates an empty in-memory configuration store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// AddMapping registers a mapping, assigning an id when absent.
func (s *MemoryStore) AddMapping(m CalendarMapping) *CalendarMapping {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mappings = append(s.mappings, &m)
	return &m
}

// AddHoliday registers a holiday exception, assigning an id when absent.
func (s *MemoryStore) AddHoliday(h HolidayException) HolidayException {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays = append(s.holidays, h)
	return h
}

func (s *MemoryStore) MappingFor(ctx context.Context, practitionerID, locationID string) (*CalendarMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.mappings {
		if m.PractitionerID == practitionerID && m.LocationID == locationID {
			if !m.Active {
				return nil, ErrNoMapping
			}
			cp := *m
			return &cp, nil
		}
	}
	return nil, ErrNoMapping
}

func (s *MemoryStore) MappingByCalendarID(ctx context.Context, calendarID string) (*CalendarMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.mappings {
		if m.RemoteCalendarID == calendarID {
			if !m.Active {
				return nil, ErrNoMapping
			}
			cp := *m
			return &cp, nil
		}
	}
	return nil, ErrNoMapping
}

func (s *MemoryStore) HolidaysOn(ctx context.Context, date string) ([]HolidayException, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []HolidayException
	for _, h := range s.holidays {
		if h.Date == date {
			out = append(out, h)
		}
	}
	return out, nil
}
