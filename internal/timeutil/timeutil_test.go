package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2026-03-09", true},
		{"2026-02-29", false}, // not a leap year
		{"2024-02-29", true},
		{"2026-3-9", false},
		{"03-09-2026", false},
		{"2026-03-09T00:00", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidDate(tt.in))
		})
	}
}

func TestMinuteOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"9:30", 0, true},
		{"09:60", 0, true},
		{"0930", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := MinuteOfDay(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTimeFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatMinuteRoundTrip(t *testing.T) {
	for _, clock := range []string{"00:00", "08:05", "12:00", "23:45"} {
		minute, err := MinuteOfDay(clock)
		require.NoError(t, err)
		assert.Equal(t, clock, FormatMinute(minute))
	}
}

func TestToAbsoluteUsesClinicZone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	got, err := ToAbsolute("2026-01-12", "09:00", ny)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 12, 9, 0, 0, 0, ny), got)
	// EST in January: 09:00 wall clock is 14:00 UTC.
	assert.Equal(t, 14, got.UTC().Hour())
}

func TestToAbsoluteDSTTransition(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 2026-03-08 is the spring-forward date in America/New_York.
	before, err := ToAbsolute("2026-03-08", "01:30", ny)
	require.NoError(t, err)
	after, err := ToAbsolute("2026-03-08", "03:30", ny)
	require.NoError(t, err)
	// Wall clock moved two hours but only one absolute hour elapsed.
	assert.Equal(t, time.Hour, after.Sub(before))
}

func TestToAbsoluteRejectsMalformed(t *testing.T) {
	_, err := ToAbsolute("2026/03/08", "09:00", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)

	_, err = ToAbsolute("2026-03-08", "9am", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
}

func TestCivilDayBounds(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	start, end, err := CivilDayBounds("2026-03-08", ny)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 8, 0, 0, 0, 0, ny), start)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, ny), end)
	// Spring-forward day is 23 absolute hours long.
	assert.Equal(t, 23*time.Hour, end.Sub(start))
}

func TestWeekday(t *testing.T) {
	wd, err := Weekday("2026-01-12", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, time.Monday, wd)

	_, err = Weekday("not-a-date", time.UTC)
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
}
