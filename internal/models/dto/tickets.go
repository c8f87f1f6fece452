package dto

import "github.com/gatherhub/gatherly/internal/models"

type BookTicketRequest struct {
	EventID int64 `json:"event_id"`
}

type TicketResponse struct {
	Message string        `json:"message,omitempty"`
	Ticket  models.Ticket `json:"ticket"`
}

type TicketListResponse struct {
	Tickets []models.Ticket `json:"tickets"`
}
