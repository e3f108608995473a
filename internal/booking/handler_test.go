package booking

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwellhealth/clinic-scheduler/internal/calendar"
)

func postJSON(t *testing.T, fn http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestCreateBookingCreated(t *testing.T) {
	gw := newFakeGateway()
	h := NewHandler(NewService(mondayMorningStore(t), gw, testSettings(), "clinic-1", nil, nil), nil)

	rec := postJSON(t, h.CreateBooking, "/api/bookings", commitRequest())
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decode(t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "evt-1", resp.BookingID)
	assert.Equal(t, "09:30", resp.Start)
	assert.Equal(t, "10:00", resp.End)
}

func TestCreateBookingWireKeys(t *testing.T) {
	gw := newFakeGateway()
	h := NewHandler(NewService(mondayMorningStore(t), gw, testSettings(), "clinic-1", nil, nil), nil)

	raw := `{"practitionerId":"prac-1","locationId":"loc-1","date":"2026-01-12","time":"09:30","durationMinutes":45,"patientName":"Dana Reeves"}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(raw))
	rec := httptest.NewRecorder()
	h.CreateBooking(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	resp := decode(t, rec)
	assert.Equal(t, "09:30", resp.Start)
	assert.Equal(t, "10:15", resp.End)
	require.Len(t, gw.created, 1)
	assert.Equal(t, nyMinute(t, testDate, 10, 15), gw.created[0].End)
}

func TestRescheduleBookingWireKeys(t *testing.T) {
	gw := newFakeGateway()
	gw.events["evt-1"] = &calendar.Event{
		ID:    "evt-1",
		Start: nyMinute(t, testDate, 9, 0),
		End:   nyMinute(t, testDate, 9, 30),
	}
	h := NewHandler(NewService(mondayMorningStore(t), gw, testSettings(), "clinic-1", nil, nil), nil)

	raw := `{"calendarId":"cal-1","eventId":"evt-1","date":"2026-01-12","time":"10:00","durationMinutes":30}`
	req := httptest.NewRequest(http.MethodPost, "/api/bookings/reschedule", strings.NewReader(raw))
	rec := httptest.NewRecorder()
	h.RescheduleBooking(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	moved, ok := gw.updated["evt-1"]
	require.True(t, ok)
	assert.Equal(t, nyMinute(t, testDate, 10, 0), moved[0])
	assert.Equal(t, nyMinute(t, testDate, 10, 30), moved[1])
}

func TestCreateBookingConflictStatuses(t *testing.T) {
	busy := []calendar.BusyInterval{{
		Start: nyMinute(t, testDate, 9, 30),
		End:   nyMinute(t, testDate, 10, 0),
	}}

	tests := []struct {
		name  string
		setup func(*fakeGateway, *Request)
		check func(*testing.T, Response)
	}{
		{
			name:  "slot taken",
			setup: func(gw *fakeGateway, r *Request) { gw.busy = busy },
			check: func(t *testing.T, resp Response) { assert.True(t, resp.SlotTaken) },
		},
		{
			name:  "schedule closed",
			setup: func(gw *fakeGateway, r *Request) { r.Start = "18:00" },
			check: func(t *testing.T, resp Response) { assert.True(t, resp.IsClosed) },
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newFakeGateway()
			req := commitRequest()
			tt.setup(gw, &req)
			h := NewHandler(NewService(mondayMorningStore(t), gw, testSettings(), "clinic-1", nil, nil), nil)

			rec := postJSON(t, h.CreateBooking, "/api/bookings", req)
			require.Equal(t, http.StatusConflict, rec.Code)
			resp := decode(t, rec)
			assert.False(t, resp.Success)
			tt.check(t, resp)
		})
	}
}

func TestCreateBookingGatewayDown(t *testing.T) {
	gw := newFakeGateway()
	gw.busyErr = calendar.ErrUnavailable
	h := NewHandler(NewService(mondayMorningStore(t), gw, testSettings(), "clinic-1", nil, nil), nil)

	rec := postJSON(t, h.CreateBooking, "/api/bookings", commitRequest())
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCreateBookingBadBody(t *testing.T) {
	h := NewHandler(NewService(mondayMorningStore(t), newFakeGateway(), testSettings(), "clinic-1", nil, nil), nil)

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	h.CreateBooking(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRescheduleBookingOK(t *testing.T) {
	gw := newFakeGateway()
	gw.events["evt-1"] = &calendar.Event{
		ID:    "evt-1",
		Start: nyMinute(t, testDate, 9, 0),
		End:   nyMinute(t, testDate, 9, 30),
	}
	h := NewHandler(NewService(mondayMorningStore(t), gw, testSettings(), "clinic-1", nil, nil), nil)

	rec := postJSON(t, h.RescheduleBooking, "/api/bookings/reschedule", RescheduleRequest{
		CalendarID: "cal-1", EventID: "evt-1", Date: testDate, Start: "10:00",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)
	assert.Contains(t, gw.updated, "evt-1")
}

func TestRescheduleBookingUnknownEvent(t *testing.T) {
	h := NewHandler(NewService(mondayMorningStore(t), newFakeGateway(), testSettings(), "clinic-1", nil, nil), nil)

	rec := postJSON(t, h.RescheduleBooking, "/api/bookings/reschedule", RescheduleRequest{
		CalendarID: "cal-1", EventID: "evt-404", Date: testDate, Start: "10:00",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelBookingOK(t *testing.T) {
	gw := newFakeGateway()
	gw.events["evt-1"] = &calendar.Event{ID: "evt-1"}
	h := NewHandler(NewService(mondayMorningStore(t), gw, testSettings(), "clinic-1", nil, nil), nil)

	rec := postJSON(t, h.CancelBooking, "/api/bookings/cancel", CancelRequest{
		CalendarID: "cal-1", EventID: "evt-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode(t, rec).Success)
}

func TestCancelBookingAlreadyGoneStillOK(t *testing.T) {
	h := NewHandler(NewService(mondayMorningStore(t), newFakeGateway(), testSettings(), "clinic-1", nil, nil), nil)

	rec := postJSON(t, h.CancelBooking, "/api/bookings/cancel", CancelRequest{
		CalendarID: "cal-1", EventID: "evt-gone",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCancelBookingMissingIDs(t *testing.T) {
	h := NewHandler(NewService(mondayMorningStore(t), newFakeGateway(), testSettings(), "clinic-1", nil, nil), nil)

	rec := postJSON(t, h.CancelBooking, "/api/bookings/cancel", CancelRequest{EventID: "evt-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
