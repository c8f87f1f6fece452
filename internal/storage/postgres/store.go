package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatherhub/gatherly/internal/models"
	"github.com/gatherhub/gatherly/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// availableExpr computes remaining capacity; canceled tickets release seats.
const availableExpr = `e.capacity - (
	SELECT COUNT(*) FROM tickets t
	WHERE t.event_id = e.id AND t.status <> 'canceled'
)`

// Store provides Postgres-backed persistence for users, events, and tickets.
type Store struct {
	pool *pgxpool.Pool
}

// New connects a pool and runs migrations.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			date TIMESTAMPTZ NOT NULL,
			location TEXT NOT NULL,
			price NUMERIC(12,2) NOT NULL DEFAULT 0,
			capacity INT NOT NULL,
			creator_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS tickets (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			event_id BIGINT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			status TEXT NOT NULL DEFAULT 'pending',
			payment_status TEXT NOT NULL DEFAULT 'unpaid',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT tickets_user_event_unique UNIQUE (user_id, event_id)
		);`,
		`CREATE INDEX IF NOT EXISTS events_creator_idx ON events (creator_id);`,
		`CREATE INDEX IF NOT EXISTS tickets_user_idx ON tickets (user_id);`,
		`CREATE INDEX IF NOT EXISTS tickets_event_idx ON tickets (event_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
	INSERT INTO users (username, email, password_hash)
	VALUES ($1, $2, $3)
	RETURNING id, username, email, password_hash, created_at;
	`
	row := s.pool.QueryRow(ctx, query, user.Username, user.Email, user.PasswordHash)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindUserByID fetches a user by primary key.
func (s *Store) FindUserByID(ctx context.Context, id int64) (models.User, error) {
	const query = `SELECT id, username, email, password_hash, created_at FROM users WHERE id = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, id))
}

// FindUserByEmail fetches a user by email address.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (models.User, error) {
	const query = `SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, email))
}

// FindUserByUsername fetches a user by username.
func (s *Store) FindUserByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1;`
	return scanUser(s.pool.QueryRow(ctx, query, username))
}

// UpdateUsername replaces a user's username.
func (s *Store) UpdateUsername(ctx context.Context, id int64, username string) (models.User, error) {
	const query = `
	UPDATE users SET username = $2 WHERE id = $1
	RETURNING id, username, email, password_hash, created_at;
	`
	updated, err := scanUser(s.pool.QueryRow(ctx, query, id, username))
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return updated, nil
}

// CreateEvent inserts a new event row and returns it in read-model form.
func (s *Store) CreateEvent(ctx context.Context, event models.Event) (models.Event, error) {
	const query = `
	INSERT INTO events (title, description, date, location, price, capacity, creator_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id;
	`
	var id int64
	err := s.pool.QueryRow(ctx, query,
		event.Title, event.Description, event.Date, event.Location,
		event.Price, event.Capacity, event.CreatorID,
	).Scan(&id)
	if err != nil {
		return models.Event{}, err
	}
	return s.FindEventByID(ctx, id)
}

// ListEvents returns all events with creator and availability populated.
func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	query := `
	SELECT e.id, e.title, e.description, e.date, e.location, e.price, e.capacity,
		e.creator_id, e.created_at, u.id, u.username, ` + availableExpr + `
	FROM events e
	JOIN users u ON u.id = e.creator_id
	ORDER BY e.date;
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// FindEventByID fetches one event with creator and availability populated.
func (s *Store) FindEventByID(ctx context.Context, id int64) (models.Event, error) {
	query := `
	SELECT e.id, e.title, e.description, e.date, e.location, e.price, e.capacity,
		e.creator_id, e.created_at, u.id, u.username, ` + availableExpr + `
	FROM events e
	JOIN users u ON u.id = e.creator_id
	WHERE e.id = $1;
	`
	return scanEvent(s.pool.QueryRow(ctx, query, id))
}

// UpdateEvent persists mutable event fields.
func (s *Store) UpdateEvent(ctx context.Context, event models.Event) (models.Event, error) {
	const query = `
	UPDATE events
	SET title = $2, description = $3, date = $4, location = $5, price = $6, capacity = $7
	WHERE id = $1;
	`
	tag, err := s.pool.Exec(ctx, query,
		event.ID, event.Title, event.Description, event.Date,
		event.Location, event.Price, event.Capacity,
	)
	if err != nil {
		return models.Event{}, err
	}
	if tag.RowsAffected() == 0 {
		return models.Event{}, storage.ErrNotFound
	}
	return s.FindEventByID(ctx, event.ID)
}

// DeleteEvent removes an event; tickets cascade.
func (s *Store) DeleteEvent(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM events WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateTicket books one seat. The event row is locked for the capacity check
// so concurrent bookings cannot oversell.
func (s *Store) CreateTicket(ctx context.Context, ticket models.Ticket) (models.Ticket, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Ticket{}, err
	}
	defer tx.Rollback(ctx)

	var capacity, active int
	err = tx.QueryRow(ctx, `
		SELECT e.capacity,
			(SELECT COUNT(*) FROM tickets t WHERE t.event_id = e.id AND t.status <> 'canceled')
		FROM events e WHERE e.id = $1 FOR UPDATE;
	`, ticket.EventID).Scan(&capacity, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Ticket{}, storage.ErrNotFound
		}
		return models.Ticket{}, err
	}
	if active >= capacity {
		return models.Ticket{}, storage.ErrSoldOut
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO tickets (user_id, event_id, status, payment_status)
		VALUES ($1, $2, $3, $4)
		RETURNING id;
	`, ticket.UserID, ticket.EventID, ticket.Status, ticket.PaymentStatus).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return models.Ticket{}, storage.ErrAlreadyExists
		}
		return models.Ticket{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Ticket{}, err
	}
	return s.FindTicketByID(ctx, id)
}

// FindTicketByID fetches one ticket with its event summary populated.
func (s *Store) FindTicketByID(ctx context.Context, id int64) (models.Ticket, error) {
	const query = `
	SELECT t.id, t.user_id, t.event_id, t.status, t.payment_status, t.created_at, t.updated_at,
		e.id, e.title, e.date, e.location, e.price
	FROM tickets t
	JOIN events e ON e.id = t.event_id
	WHERE t.id = $1;
	`
	return scanTicket(s.pool.QueryRow(ctx, query, id))
}

// UpdateTicketStatus transitions a ticket's lifecycle and payment state.
func (s *Store) UpdateTicketStatus(ctx context.Context, id int64, status, paymentStatus string) (models.Ticket, error) {
	const query = `
	UPDATE tickets SET status = $2, payment_status = $3, updated_at = NOW()
	WHERE id = $1;
	`
	tag, err := s.pool.Exec(ctx, query, id, status, paymentStatus)
	if err != nil {
		return models.Ticket{}, err
	}
	if tag.RowsAffected() == 0 {
		return models.Ticket{}, storage.ErrNotFound
	}
	return s.FindTicketByID(ctx, id)
}

// ListTicketsByUser returns the user's tickets with event summaries.
func (s *Store) ListTicketsByUser(ctx context.Context, userID int64) ([]models.Ticket, error) {
	const query = `
	SELECT t.id, t.user_id, t.event_id, t.status, t.payment_status, t.created_at, t.updated_at,
		e.id, e.title, e.date, e.location, e.price
	FROM tickets t
	JOIN events e ON e.id = t.event_id
	WHERE t.user_id = $1
	ORDER BY t.created_at;
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := []models.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func scanEvent(row pgx.Row) (models.Event, error) {
	var event models.Event
	var creator models.UserSummary
	err := row.Scan(
		&event.ID, &event.Title, &event.Description, &event.Date, &event.Location,
		&event.Price, &event.Capacity, &event.CreatorID, &event.CreatedAt,
		&creator.ID, &creator.Username, &event.AvailableTickets,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Event{}, storage.ErrNotFound
		}
		return models.Event{}, err
	}
	event.Creator = &creator
	return event, nil
}

func scanTicket(row pgx.Row) (models.Ticket, error) {
	var ticket models.Ticket
	var event models.EventSummary
	err := row.Scan(
		&ticket.ID, &ticket.UserID, &ticket.EventID, &ticket.Status, &ticket.PaymentStatus,
		&ticket.CreatedAt, &ticket.UpdatedAt,
		&event.ID, &event.Title, &event.Date, &event.Location, &event.Price,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Ticket{}, storage.ErrNotFound
		}
		return models.Ticket{}, err
	}
	ticket.Event = &event
	return ticket, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
