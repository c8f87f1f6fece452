package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gatherhub/gatherly/internal/models"
	"github.com/gatherhub/gatherly/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store keeps everything in maps behind one mutex. It backs handler tests and
// the no-database development mode.
type Store struct {
	mu      sync.RWMutex
	users   map[int64]models.User
	events  map[int64]models.Event
	tickets map[int64]models.Ticket
	nextID  int64
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{
		users:   make(map[int64]models.User),
		events:  make(map[int64]models.Event),
		tickets: make(map[int64]models.Ticket),
	}
}

// Close is a no-op; it exists to satisfy storage.Store.
func (s *Store) Close() {}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// CreateUser inserts a user, enforcing username and email uniqueness.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	user.ID = s.id()
	user.CreatedAt = time.Now()
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) FindUserByID(_ context.Context, id int64) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) FindUserByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Username == username {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) UpdateUsername(_ context.Context, id int64, username string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	for _, existing := range s.users {
		if existing.ID != id && existing.Username == username {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	user.Username = username
	s.users[id] = user
	return user, nil
}

// CreateEvent inserts an event owned by event.CreatorID.
func (s *Store) CreateEvent(_ context.Context, event models.Event) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[event.CreatorID]; !ok {
		return models.Event{}, storage.ErrNotFound
	}
	event.ID = s.id()
	event.CreatedAt = time.Now()
	event.Creator = nil
	event.AvailableTickets = 0
	s.events[event.ID] = event
	return s.readEvent(event.ID)
}

func (s *Store) ListEvents(_ context.Context) ([]models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	events := []models.Event{}
	for id := range s.events {
		event, err := s.readEvent(id)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	sortEventsByDate(events)
	return events, nil
}

func (s *Store) FindEventByID(_ context.Context, id int64) (models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readEvent(id)
}

func (s *Store) UpdateEvent(_ context.Context, event models.Event) (models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.events[event.ID]
	if !ok {
		return models.Event{}, storage.ErrNotFound
	}
	stored.Title = event.Title
	stored.Description = event.Description
	stored.Date = event.Date
	stored.Location = event.Location
	stored.Price = event.Price
	stored.Capacity = event.Capacity
	s.events[event.ID] = stored
	return s.readEvent(event.ID)
}

func (s *Store) DeleteEvent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.events, id)
	for ticketID, ticket := range s.tickets {
		if ticket.EventID == id {
			delete(s.tickets, ticketID)
		}
	}
	return nil
}

// CreateTicket books one seat, enforcing the unique (user, event) pair and the
// event capacity.
func (s *Store) CreateTicket(_ context.Context, ticket models.Ticket) (models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.events[ticket.EventID]
	if !ok {
		return models.Ticket{}, storage.ErrNotFound
	}
	active := 0
	for _, existing := range s.tickets {
		if existing.EventID != ticket.EventID {
			continue
		}
		if existing.UserID == ticket.UserID {
			return models.Ticket{}, storage.ErrAlreadyExists
		}
		if existing.Status != models.TicketCanceled {
			active++
		}
	}
	if active >= event.Capacity {
		return models.Ticket{}, storage.ErrSoldOut
	}
	now := time.Now()
	ticket.ID = s.id()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	ticket.Event = nil
	s.tickets[ticket.ID] = ticket
	return s.readTicket(ticket.ID)
}

func (s *Store) FindTicketByID(_ context.Context, id int64) (models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readTicket(id)
}

func (s *Store) UpdateTicketStatus(_ context.Context, id int64, status, paymentStatus string) (models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.tickets[id]
	if !ok {
		return models.Ticket{}, storage.ErrNotFound
	}
	ticket.Status = status
	ticket.PaymentStatus = paymentStatus
	ticket.UpdatedAt = time.Now()
	s.tickets[id] = ticket
	return s.readTicket(id)
}

func (s *Store) ListTicketsByUser(_ context.Context, userID int64) ([]models.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tickets := []models.Ticket{}
	for id, ticket := range s.tickets {
		if ticket.UserID != userID {
			continue
		}
		read, err := s.readTicket(id)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, read)
	}
	sortTicketsByCreation(tickets)
	return tickets, nil
}

// readEvent builds the read-model view. Callers hold at least a read lock.
func (s *Store) readEvent(id int64) (models.Event, error) {
	event, ok := s.events[id]
	if !ok {
		return models.Event{}, storage.ErrNotFound
	}
	active := 0
	for _, ticket := range s.tickets {
		if ticket.EventID == id && ticket.Status != models.TicketCanceled {
			active++
		}
	}
	event.AvailableTickets = event.Capacity - active
	if creator, ok := s.users[event.CreatorID]; ok {
		summary := creator.Summary()
		event.Creator = &summary
	}
	return event, nil
}

func (s *Store) readTicket(id int64) (models.Ticket, error) {
	ticket, ok := s.tickets[id]
	if !ok {
		return models.Ticket{}, storage.ErrNotFound
	}
	if event, ok := s.events[ticket.EventID]; ok {
		summary := event.Summary()
		ticket.Event = &summary
	}
	return ticket, nil
}

func sortEventsByDate(events []models.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date.Equal(events[j].Date) {
			return events[i].ID < events[j].ID
		}
		return events[i].Date.Before(events[j].Date)
	})
}

func sortTicketsByCreation(tickets []models.Ticket) {
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].ID < tickets[j].ID })
}
