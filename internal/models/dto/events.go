package dto

import "github.com/gatherhub/gatherly/internal/models"

// EventRequest carries create/update payloads. Date arrives as a string so the
// handler can accept both RFC 3339 and the datetime-local form emitted by
// browser inputs. Description is a pointer so a partial update can tell an
// absent field from an explicit empty string that clears it.
type EventRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Date        string   `json:"date"`
	Location    string   `json:"location"`
	Price       *float64 `json:"price"`
	Capacity    *int     `json:"capacity"`
}

type EventResponse struct {
	Message string       `json:"message,omitempty"`
	Event   models.Event `json:"event"`
}

type EventListResponse struct {
	Events []models.Event `json:"events"`
}
