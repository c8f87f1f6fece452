package client

import (
	"time"

	"github.com/gatherhub/gatherly/pkg/session"
)

// Event is the one strict event schema on the client side. Responses are
// decoded into it once, at the request boundary; callers never probe shapes.
type Event struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Date             time.Time `json:"date"`
	Location         string    `json:"location"`
	Price            float64   `json:"price"`
	Capacity         int       `json:"capacity"`
	CreatorID        int64     `json:"creator_id"`
	AvailableTickets int       `json:"available_tickets"`
	Creator          *Creator  `json:"creator,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// Creator is the embedded owner summary on events.
type Creator struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// EventSummary is the event shape embedded in tickets.
type EventSummary struct {
	ID       int64     `json:"id"`
	Title    string    `json:"title"`
	Date     time.Time `json:"date"`
	Location string    `json:"location"`
	Price    float64   `json:"price"`
}

// Ticket is the strict ticket schema.
type Ticket struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"user_id"`
	EventID       int64         `json:"event_id"`
	Status        string        `json:"status"`
	PaymentStatus string        `json:"payment_status"`
	Event         *EventSummary `json:"event,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

type authResponse struct {
	Message     string       `json:"message"`
	AccessToken string       `json:"access_token"`
	User        session.User `json:"user"`
}

type profileResponse struct {
	Message string       `json:"message"`
	User    session.User `json:"user"`
}

type eventResponse struct {
	Message string `json:"message"`
	Event   Event  `json:"event"`
}

type eventListResponse struct {
	Events []Event `json:"events"`
}

type ticketResponse struct {
	Message string `json:"message"`
	Ticket  Ticket `json:"ticket"`
}

type ticketListResponse struct {
	Tickets []Ticket `json:"tickets"`
}
