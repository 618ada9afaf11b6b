package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dom/wedding-planner/internal/api/middleware"
	"github.com/dom/wedding-planner/internal/domain"
	"github.com/dom/wedding-planner/internal/platform/logger"
	"github.com/dom/wedding-planner/internal/service"
)

type CalendarHandler struct {
	calendar *service.CalendarService
	log      *logger.Logger
}

func NewCalendarHandler(calendar *service.CalendarService, log *logger.Logger) *CalendarHandler {
	return &CalendarHandler{
		calendar: calendar,
		log:      log.With("component", "handlers.Calendar"),
	}
}

type CreateEventRequest struct {
	Title    string                 `json:"title"`
	StartsAt time.Time              `json:"starts_at"`
	EndsAt   *time.Time             `json:"ends_at"`
	Details  map[string]interface{} `json:"details"`
}

type EventResponse struct {
	ID        uint64          `json:"id"`
	UserID    uint64          `json:"user_id"`
	CoupleID  *uint64         `json:"couple_id"`
	Title     string          `json:"title"`
	StartsAt  time.Time       `json:"starts_at"`
	EndsAt    *time.Time      `json:"ends_at,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func eventResponse(e *domain.CalendarEvent) EventResponse {
	resp := EventResponse{
		ID:        e.ID,
		UserID:    e.UserID,
		CoupleID:  e.CoupleID,
		Title:     e.Title,
		StartsAt:  e.StartsAt,
		EndsAt:    e.EndsAt,
		CreatedAt: e.CreatedAt,
	}
	if len(e.Details) > 0 {
		resp.Details = json.RawMessage(e.Details)
	}
	return resp
}

func (h *CalendarHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body")
		return
	}

	event, err := h.calendar.Create(r.Context(), userID, service.CreateEventInput{
		Title:    req.Title,
		StartsAt: req.StartsAt,
		EndsAt:   req.EndsAt,
		Details:  req.Details,
	})
	if err != nil {
		writeError(w, h.log, "calendar.Create", err)
		return
	}

	writeJSON(w, http.StatusCreated, eventResponse(event))
}

// List accepts optional RFC 3339 from/to query parameters.
func (h *CalendarHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	from, err := parseTimeParam(r, "from")
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_QUERY", "from must be an RFC 3339 timestamp")
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "INVALID_QUERY", "to must be an RFC 3339 timestamp")
		return
	}

	events, err := h.calendar.List(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, h.log, "calendar.List", err)
		return
	}

	resp := make([]EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, eventResponse(e))
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseTimeParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
