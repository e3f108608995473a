// Package clinic provides per-clinic operational settings: the fixed civil
// timezone all scheduling math runs in, and slot sizing defaults.
package clinic

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Settings holds a clinic's scheduling parameters. The timezone is the single
// fixed zone for all wall-clock arithmetic; it never falls back to the host
// zone.
type Settings struct {
	ClinicID           string `json:"clinic_id"`
	DisplayName        string `json:"display_name,omitempty"`
	Timezone           string `json:"timezone"`
	SlotGranularityMin int    `json:"slot_granularity_min"`
	DefaultDurationMin int    `json:"default_duration_min"`
}

// Location resolves the clinic's IANA timezone.
func (s *Settings) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("clinic: invalid timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// DefaultSettings returns the settings used when the store has no entry.
func DefaultSettings(clinicID, timezone string, granularityMin, durationMin int) *Settings {
	return &Settings{
		ClinicID:           clinicID,
		Timezone:           timezone,
		SlotGranularityMin: granularityMin,
		DefaultDurationMin: durationMin,
	}
}

// Store keeps clinic settings in Redis. Reads are live per request; nothing
// is cached in process.
type Store struct {
	redis    *redis.Client
	defaults *Settings
}

// NewStore creates a settings store. defaults are returned for clinics with
// no stored entry and when redisClient is nil (dev mode).
func NewStore(redisClient *redis.Client, defaults *Settings) *Store {
	return &Store{redis: redisClient, defaults: defaults}
}

func (s *Store) key(clinicID string) string {
	return fmt.Sprintf("clinic:settings:%s", clinicID)
}

// Get retrieves clinic settings, returning the defaults if not found.
func (s *Store) Get(ctx context.Context, clinicID string) (*Settings, error) {
	if s.redis == nil {
		return s.defaults, nil
	}
	data, err := s.redis.Get(ctx, s.key(clinicID)).Bytes()
	if err == redis.Nil {
		return s.defaults, nil
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: get settings: %w", err)
	}

	var out Settings
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("clinic: unmarshal settings: %w", err)
	}
	if out.SlotGranularityMin <= 0 {
		out.SlotGranularityMin = s.defaults.SlotGranularityMin
	}
	if out.DefaultDurationMin <= 0 {
		out.DefaultDurationMin = s.defaults.DefaultDurationMin
	}
	if out.Timezone == "" {
		out.Timezone = s.defaults.Timezone
	}
	return &out, nil
}

// Set saves clinic settings.
func (s *Store) Set(ctx context.Context, settings *Settings) error {
	if s.redis == nil {
		return fmt.Errorf("clinic: settings store has no redis backend")
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("clinic: marshal settings: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(settings.ClinicID), data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set settings: %w", err)
	}
	return nil
}
