package storage

import (
	"context"
	"errors"

	"github.com/gatherhub/gatherly/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrSoldOut indicates an event has no remaining ticket capacity.
var ErrSoldOut = errors.New("event sold out")

// UserStore captures user persistence operations needed by handlers.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByID(ctx context.Context, id int64) (models.User, error)
	FindUserByEmail(ctx context.Context, email string) (models.User, error)
	FindUserByUsername(ctx context.Context, username string) (models.User, error)
	UpdateUsername(ctx context.Context, id int64, username string) (models.User, error)
}

// EventStore captures event persistence operations. Reads return events with
// the creator summary and remaining-ticket count populated.
type EventStore interface {
	CreateEvent(ctx context.Context, event models.Event) (models.Event, error)
	ListEvents(ctx context.Context) ([]models.Event, error)
	FindEventByID(ctx context.Context, id int64) (models.Event, error)
	UpdateEvent(ctx context.Context, event models.Event) (models.Event, error)
	DeleteEvent(ctx context.Context, id int64) error
}

// TicketStore captures ticket persistence operations. CreateTicket enforces
// the one-ticket-per-user-per-event constraint (ErrAlreadyExists) and the
// event capacity (ErrSoldOut).
type TicketStore interface {
	CreateTicket(ctx context.Context, ticket models.Ticket) (models.Ticket, error)
	FindTicketByID(ctx context.Context, id int64) (models.Ticket, error)
	UpdateTicketStatus(ctx context.Context, id int64, status, paymentStatus string) (models.Ticket, error)
	ListTicketsByUser(ctx context.Context, userID int64) ([]models.Ticket, error)
}

// Store is the full persistence surface the server wires together.
type Store interface {
	UserStore
	EventStore
	TicketStore
	Close()
}
