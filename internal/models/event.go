package models

import "time"

// Event represents a ticketed event owned by its creator.
//
// AvailableTickets and Creator are read-model fields: stores populate them on
// reads (capacity minus non-canceled tickets, plus the creator summary) and
// ignore them on writes.
type Event struct {
	ID               int64        `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Date             time.Time    `json:"date"`
	Location         string       `json:"location"`
	Price            float64      `json:"price"`
	Capacity         int          `json:"capacity"`
	CreatorID        int64        `json:"creator_id"`
	AvailableTickets int          `json:"available_tickets"`
	Creator          *UserSummary `json:"creator,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
}

// EventSummary is the shape embedded in ticket responses.
type EventSummary struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
	Price    float64   `json:"price"`
}

// Summary projects the fields embedded in a ticket.
func (e Event) Summary() EventSummary {
	return EventSummary{ID: e.ID, Title: e.Title, Date: e.Date, Location: e.Location, Price: e.Price}
}
