package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gatherhub/gatherly/internal/http/respond"
	"github.com/gatherhub/gatherly/internal/middleware"
	"github.com/gatherhub/gatherly/internal/models"
	"github.com/gatherhub/gatherly/internal/models/dto"
	"github.com/gatherhub/gatherly/internal/storage"
)

const defaultCapacity = 100

// EventsHandler owns event CRUD endpoints.
type EventsHandler struct {
	store storage.EventStore
}

// NewEventsHandler constructs the handler.
func NewEventsHandler(store storage.EventStore) *EventsHandler {
	return &EventsHandler{store: store}
}

// Register attaches event routes to the mux.
func (h *EventsHandler) Register(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /events", h.handleList)
	mux.HandleFunc("GET /events/{id}", h.handleGet)
	mux.Handle("POST /events", protect(http.HandlerFunc(h.handleCreate)))
	mux.Handle("PATCH /events/{id}", protect(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("DELETE /events/{id}", protect(http.HandlerFunc(h.handleDelete)))
}

func (h *EventsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.ListEvents(r.Context())
	if err != nil {
		log.Printf("list events: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	respond.JSON(w, http.StatusOK, dto.EventListResponse{Events: events})
}

func (h *EventsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	event, err := h.store.FindEventByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "event not found")
			return
		}
		log.Printf("get event %d: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "failed to fetch event")
		return
	}
	respond.JSON(w, http.StatusOK, dto.EventResponse{Event: event})
}

func (h *EventsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	var req dto.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Location = strings.TrimSpace(req.Location)
	switch {
	case req.Title == "":
		respond.Error(w, http.StatusBadRequest, "title required")
		return
	case strings.TrimSpace(req.Date) == "":
		respond.Error(w, http.StatusBadRequest, "date required")
		return
	case req.Location == "":
		respond.Error(w, http.StatusBadRequest, "location required")
		return
	}
	date, err := parseEventDate(req.Date)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid date format")
		return
	}

	price := 0.0
	if req.Price != nil {
		price = *req.Price
	}
	if price < 0 {
		respond.Error(w, http.StatusBadRequest, "price must be non-negative")
		return
	}
	capacity := defaultCapacity
	if req.Capacity != nil {
		capacity = *req.Capacity
	}
	if capacity <= 0 {
		respond.Error(w, http.StatusBadRequest, "capacity must be positive")
		return
	}

	description := ""
	if req.Description != nil {
		description = *req.Description
	}
	created, err := h.store.CreateEvent(r.Context(), models.Event{
		Title:       req.Title,
		Description: description,
		Date:        date,
		Location:    req.Location,
		Price:       price,
		Capacity:    capacity,
		CreatorID:   claims.UserID,
	})
	if err != nil {
		log.Printf("create event: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to create event")
		return
	}
	respond.JSON(w, http.StatusCreated, dto.EventResponse{Message: "Event created", Event: created})
}

func (h *EventsHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	event, err := h.store.FindEventByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "event not found")
			return
		}
		log.Printf("update event %d: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "failed to update event")
		return
	}
	if event.CreatorID != claims.UserID {
		respond.Error(w, http.StatusForbidden, "not authorized")
		return
	}

	var req dto.EventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if title := strings.TrimSpace(req.Title); title != "" {
		event.Title = title
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if location := strings.TrimSpace(req.Location); location != "" {
		event.Location = location
	}
	if strings.TrimSpace(req.Date) != "" {
		date, err := parseEventDate(req.Date)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid date format")
			return
		}
		event.Date = date
	}
	if req.Price != nil {
		if *req.Price < 0 {
			respond.Error(w, http.StatusBadRequest, "price must be non-negative")
			return
		}
		event.Price = *req.Price
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			respond.Error(w, http.StatusBadRequest, "capacity must be positive")
			return
		}
		event.Capacity = *req.Capacity
	}

	updated, err := h.store.UpdateEvent(r.Context(), event)
	if err != nil {
		log.Printf("update event %d: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "failed to update event")
		return
	}
	respond.JSON(w, http.StatusOK, dto.EventResponse{Message: "Event updated", Event: updated})
}

func (h *EventsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	event, err := h.store.FindEventByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "event not found")
			return
		}
		log.Printf("delete event %d: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "failed to delete event")
		return
	}
	if event.CreatorID != claims.UserID {
		respond.Error(w, http.StatusForbidden, "not authorized")
		return
	}
	if err := h.store.DeleteEvent(r.Context(), id); err != nil {
		log.Printf("delete event %d: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "failed to delete event")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"message": "Event deleted"})
}

// pathID parses the {id} path segment, writing the error response itself.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

// parseEventDate accepts RFC 3339 and the datetime-local format browsers emit.
func parseEventDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04", raw)
}
