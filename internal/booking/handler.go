package booking

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oakwellhealth/clinic-scheduler/internal/calendar"
	"github.com/oakwellhealth/clinic-scheduler/internal/schedule"
	"github.com/oakwellhealth/clinic-scheduler/internal/timeutil"
	"github.com/oakwellhealth/clinic-scheduler/pkg/logging"
)

// Handler serves booking commits, reschedules, and cancels over HTTP.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a booking handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("booking: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Response is the wire shape for booking answers.
type Response struct {
	Success    bool   `json:"success"`
	BookingID  string `json:"bookingId,omitempty"`
	CalendarID string `json:"calendarId,omitempty"`
	Date       string `json:"date,omitempty"`
	Start      string `json:"start,omitempty"`
	End        string `json:"end,omitempty"`
	SlotTaken  bool   `json:"slotTaken,omitempty"`
	IsClosed   bool   `json:"isClosed,omitempty"`
	IsHoliday  bool   `json:"isHoliday,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CreateBooking handles POST /api/bookings requests.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode booking request", "error", err)
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	conf, err := h.service.Commit(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Response{
		Success:    true,
		BookingID:  conf.BookingID,
		CalendarID: conf.CalendarID,
		Date:       conf.Date,
		Start:      conf.Start,
		End:        conf.End,
	})
}

// RescheduleBooking handles POST /api/bookings/reschedule requests.
func (h *Handler) RescheduleBooking(w http.ResponseWriter, r *http.Request) {
	var req RescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode reschedule request", "error", err)
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if err := h.service.Reschedule(r.Context(), req); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{
		Success:    true,
		BookingID:  req.EventID,
		CalendarID: req.CalendarID,
		Date:       req.Date,
		Start:      req.Start,
	})
}

// CancelRequest identifies the event to cancel.
type CancelRequest struct {
	CalendarID string `json:"calendarId"`
	EventID    string `json:"eventId"`
}

// CancelBooking handles POST /api/bookings/cancel requests.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var req CancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode cancel request", "error", err)
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if err := h.service.Cancel(r.Context(), req.CalendarID, req.EventID); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, timeutil.ErrInvalidTimeFormat):
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, schedule.ErrNoMapping):
		writeJSON(w, http.StatusNotFound, Response{Success: false, Error: "no calendar configured for this practitioner and location"})
	case errors.Is(err, calendar.ErrEventNotFound):
		writeJSON(w, http.StatusNotFound, Response{Success: false, Error: "booking not found"})
	case errors.Is(err, ErrSlotTaken):
		writeJSON(w, http.StatusConflict, Response{Success: false, SlotTaken: true, Error: "slot no longer available"})
	case errors.Is(err, ErrScheduleClosed):
		writeJSON(w, http.StatusConflict, Response{Success: false, IsClosed: true, Error: "schedule closed at requested time"})
	case errors.Is(err, ErrHolidayBlocked):
		writeJSON(w, http.StatusConflict, Response{Success: false, IsHoliday: true, Error: "holiday blocks requested time"})
	case errors.Is(err, calendar.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, Response{Success: false, Error: "calendar temporarily unavailable"})
	default:
		h.logger.Error("booking operation failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
