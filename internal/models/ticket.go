package models

import "time"

// Ticket lifecycle states.
const (
	TicketPending   = "pending"
	TicketConfirmed = "confirmed"
	TicketCanceled  = "canceled"
)

// Ticket payment states.
const (
	PaymentFree     = "free"
	PaymentUnpaid   = "unpaid"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

// Ticket is one user's booking against one event. A user holds at most one
// ticket per event.
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
