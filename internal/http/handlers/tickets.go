package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gatherhub/gatherly/internal/http/respond"
	"github.com/gatherhub/gatherly/internal/middleware"
	"github.com/gatherhub/gatherly/internal/models"
	"github.com/gatherhub/gatherly/internal/models/dto"
	"github.com/gatherhub/gatherly/internal/storage"
)

// TicketsHandler owns booking and ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets storage.TicketStore
	events  storage.EventStore
}

// NewTicketsHandler constructs the handler.
func NewTicketsHandler(tickets storage.TicketStore, events storage.EventStore) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, events: events}
}

// Register attaches ticket routes to the mux. All of them require auth.
func (h *TicketsHandler) Register(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("POST /tickets", protect(http.HandlerFunc(h.handleBook)))
	mux.Handle("GET /tickets/my", protect(http.HandlerFunc(h.handleMy)))
	mux.Handle("PATCH /tickets/{id}/confirm", protect(http.HandlerFunc(h.handleConfirm)))
	mux.Handle("PATCH /tickets/{id}/cancel", protect(http.HandlerFunc(h.handleCancel)))
}

func (h *TicketsHandler) handleBook(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	var req dto.BookTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.EventID <= 0 {
		respond.Error(w, http.StatusBadRequest, "event id required")
		return
	}

	event, err := h.events.FindEventByID(r.Context(), req.EventID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "event not found")
			return
		}
		log.Printf("book ticket: fetch event %d: %v", req.EventID, err)
		respond.Error(w, http.StatusInternalServerError, "failed to book ticket")
		return
	}

	// Free events are confirmed immediately; paid ones wait for payment.
	ticket := models.Ticket{
		UserID:        claims.UserID,
		EventID:       event.ID,
		Status:        models.TicketPending,
		PaymentStatus: models.PaymentUnpaid,
	}
	if event.Price == 0 {
		ticket.Status = models.TicketConfirmed
		ticket.PaymentStatus = models.PaymentFree
	}

	created, err := h.tickets.CreateTicket(r.Context(), ticket)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			respond.Error(w, http.StatusBadRequest, "ticket already exists")
		case errors.Is(err, storage.ErrSoldOut):
			respond.Error(w, http.StatusConflict, "event sold out")
		case errors.Is(err, storage.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "event not found")
		default:
			log.Printf("book ticket: %v", err)
			respond.Error(w, http.StatusInternalServerError, "failed to book ticket")
		}
		return
	}
	respond.JSON(w, http.StatusCreated, dto.TicketResponse{Message: "Ticket created", Ticket: created})
}

func (h *TicketsHandler) handleMy(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	tickets, err := h.tickets.ListTicketsByUser(r.Context(), claims.UserID)
	if err != nil {
		log.Printf("list tickets for user %d: %v", claims.UserID, err)
		respond.Error(w, http.StatusInternalServerError, "failed to list tickets")
		return
	}
	respond.JSON(w, http.StatusOK, dto.TicketListResponse{Tickets: tickets})
}

func (h *TicketsHandler) handleConfirm(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ticket, err := h.findTicket(w, id, r)
	if err != nil {
		return
	}
	if ticket.UserID != claims.UserID {
		respond.Error(w, http.StatusForbidden, "not authorized")
		return
	}

	updated, err := h.tickets.UpdateTicketStatus(r.Context(), id, models.TicketConfirmed, models.PaymentPaid)
	if err != nil {
		log.Printf("confirm ticket %d: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "failed to confirm ticket")
		return
	}
	respond.JSON(w, http.StatusOK, dto.TicketResponse{Message: "Ticket confirmed", Ticket: updated})
}

func (h *TicketsHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ticket, err := h.findTicket(w, id, r)
	if err != nil {
		return
	}
	if ticket.UserID != claims.UserID {
		// The event creator may also cancel attendees' tickets.
		event, err := h.events.FindEventByID(r.Context(), ticket.EventID)
		if err != nil || event.CreatorID != claims.UserID {
			respond.Error(w, http.StatusForbidden, "not authorized")
			return
		}
	}

	payment := ticket.PaymentStatus
	if payment == models.PaymentPaid {
		payment = models.PaymentRefunded
	}
	updated, err := h.tickets.UpdateTicketStatus(r.Context(), id, models.TicketCanceled, payment)
	if err != nil {
		log.Printf("cancel ticket %d: %v", id, err)
		respond.Error(w, http.StatusInternalServerError, "failed to cancel ticket")
		return
	}
	respond.JSON(w, http.StatusOK, dto.TicketResponse{Message: "Ticket canceled", Ticket: updated})
}

// findTicket fetches a ticket, writing the error response on failure.
func (h *TicketsHandler) findTicket(w http.ResponseWriter, id int64, r *http.Request) (models.Ticket, error) {
	ticket, err := h.tickets.FindTicketByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "ticket not found")
		} else {
			log.Printf("fetch ticket %d: %v", id, err)
			respond.Error(w, http.StatusInternalServerError, "failed to fetch ticket")
		}
		return models.Ticket{}, err
	}
	return ticket, nil
}
