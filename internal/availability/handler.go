package availability

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/oakwellhealth/clinic-scheduler/internal/calendar"
	"github.com/oakwellhealth/clinic-scheduler/internal/schedule"
	"github.com/oakwellhealth/clinic-scheduler/internal/timeutil"
	"github.com/oakwellhealth/clinic-scheduler/pkg/logging"
)

// Handler serves availability queries over HTTP.
type Handler struct {
	resolver *Resolver
	logger   *logging.Logger
}

// NewHandler creates an availability handler.
func NewHandler(resolver *Resolver, logger *logging.Logger) *Handler {
	if resolver == nil {
		panic("availability: resolver required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{resolver: resolver, logger: logger}
}

// Response is the wire shape for an availability answer.
type Response struct {
	Success   bool     `json:"success"`
	Slots     []string `json:"slots,omitempty"`
	IsClosed  bool     `json:"isClosed,omitempty"`
	IsHoliday bool     `json:"isHoliday,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// GetAvailability handles POST /api/availability requests.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode availability request", "error", err)
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	day, err := h.resolver.Resolve(r.Context(), req)
	if err != nil {
		status, msg := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("availability resolution failed", "error", err,
				"practitioner_id", req.PractitionerID, "location_id", req.LocationID, "date", req.Date)
		}
		writeJSON(w, status, Response{Success: false, Error: msg})
		return
	}

	if day.Blocked {
		writeJSON(w, http.StatusOK, Response{
			Success:   false,
			IsClosed:  day.Reason == ReasonNoSchedule,
			IsHoliday: day.Reason == ReasonHoliday,
			Error:     "not bookable on this date",
		})
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Slots: day.Slots})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, timeutil.ErrInvalidTimeFormat):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, schedule.ErrNoMapping):
		return http.StatusNotFound, "no calendar configured for this practitioner and location"
	case errors.Is(err, calendar.ErrUnavailable):
		return http.StatusServiceUnavailable, "calendar temporarily unavailable"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
