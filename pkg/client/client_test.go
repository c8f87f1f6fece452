package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherhub/gatherly/pkg/session"
)

var ada = session.User{ID: 1, Username: "ada", Email: "ada@x.com"}

// newTestClient returns a client over fresh in-memory backends and a server
// running the given handler, counting every request that reaches it.
func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		handler(w, r)
	}))
	t.Cleanup(ts.Close)

	manager := session.NewManager(session.NewMemStore(), session.NewMemStore())
	require.NoError(t, manager.Hydrate())
	return New(ts.URL, manager), &hits
}

func loginTestClient(t *testing.T, c *Client, token string) {
	t.Helper()
	require.NoError(t, c.Session().Login(ada, token, false))
}

func TestAuthenticatedCallRequiresToken(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should never have been issued")
	})

	_, err := c.MyTickets(context.Background())
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Zero(t, hits.Load(), "unauthenticated call must not hit the network")
}

func TestBearerTokenAttached(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(ticketListResponse{Tickets: []Ticket{}})
	})
	loginTestClient(t, c, "tok-123")

	tickets, err := c.MyTickets(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tickets, "empty ticket list is a normal result, not an error")
}

func TestUnauthorizedForcesLogout(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid or expired token"})
	})
	loginTestClient(t, c, "stale-token")

	_, err := c.MyTickets(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)

	// The local session must be destroyed, never silently retried.
	_, ok := c.Session().User()
	assert.False(t, ok)
	assert.Empty(t, c.Session().ResolveToken())
}

func TestCreateEventValidatedBeforeNetwork(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid event must be rejected before any network call")
	})
	loginTestClient(t, c, "tok-123")

	date := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		input CreateEventInput
	}{
		{
			name:  "negative price",
			input: CreateEventInput{Title: "Launch", Date: date, Location: "HQ", Price: -5, Capacity: 10},
		},
		{
			name:  "blank title",
			input: CreateEventInput{Date: date, Location: "HQ", Capacity: 10},
		},
		{
			name:  "blank location",
			input: CreateEventInput{Title: "Launch", Date: date, Capacity: 10},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := c.CreateEvent(context.Background(), test.input)
			assert.Error(t, err)
		})
	}
	assert.Zero(t, hits.Load())
}

func TestUpdateEventSendsOnlyChangedFields(t *testing.T) {
	var body map[string]json.RawMessage
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/events/3", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode(eventResponse{Event: Event{ID: 3, Title: "Launch v2", Price: 10}})
	})
	loginTestClient(t, c, "tok-123")

	title := "Launch v2"
	price := 10.0
	updated, err := c.UpdateEvent(context.Background(), 3, UpdateEventInput{Title: &title, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Launch v2", updated.Title)

	// Untouched fields stay out of the payload entirely.
	assert.Len(t, body, 2)
	assert.Contains(t, body, "title")
	assert.Contains(t, body, "price")
	assert.NotContains(t, body, "location")
	assert.NotContains(t, body, "description")
}

func TestUpdateEventRejectsNegativePriceLocally(t *testing.T) {
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid update must be rejected before any network call")
	})
	loginTestClient(t, c, "tok-123")

	price := -1.0
	_, err := c.UpdateEvent(context.Background(), 3, UpdateEventInput{Price: &price})
	assert.Error(t, err)
	assert.Zero(t, hits.Load())
}

func TestServerErrorSurfacedVerbatim(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "ticket already exists"})
	})
	loginTestClient(t, c, "tok-123")

	_, err := c.BookTicket(context.Background(), 1)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "ticket already exists", apiErr.Message)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestNotFoundMapped(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "event not found"})
	})

	_, err := c.Event(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "event not found")
}

func TestBookTicketSingleFlight(t *testing.T) {
	arrived := make(chan struct{}, 2)
	release := make(chan struct{})
	c, hits := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		<-release
		json.NewEncoder(w).Encode(ticketResponse{Ticket: Ticket{ID: 7, EventID: 1}})
	})
	loginTestClient(t, c, "tok-123")

	done := make(chan error, 1)
	go func() {
		_, err := c.BookTicket(context.Background(), 1)
		done <- err
	}()
	<-arrived

	// A rapid second click while the first booking is in flight.
	_, err := c.BookTicket(context.Background(), 1)
	assert.ErrorIs(t, err, ErrBookingInFlight)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, int64(1), hits.Load(), "exactly one booking request issued")

	// Once the flight settles the latch is released and the event can be
	// booked again, e.g. after a cancellation.
	_, err = c.BookTicket(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestLoginEstablishesSession(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/login", r.URL.Path)
		json.NewEncoder(w).Encode(authResponse{
			Message:     "Login successful",
			AccessToken: "tok-123",
			User:        ada,
		})
	})

	user, err := c.Login(context.Background(), "ada@x.com", "secret1", false)
	require.NoError(t, err)
	assert.Equal(t, ada, user)

	held, ok := c.Session().User()
	require.True(t, ok)
	assert.Equal(t, ada, held)
	assert.Equal(t, "tok-123", c.Session().Token())
}

func TestUpdateProfileRefreshesSessionUser(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/update-profile", r.URL.Path)
		require.Equal(t, http.MethodPatch, r.Method)
		json.NewEncoder(w).Encode(profileResponse{
			Message: "Profile updated",
			User:    session.User{ID: 1, Username: "countess", Email: "ada@x.com"},
		})
	})
	loginTestClient(t, c, "tok-123")

	updated, err := c.UpdateProfile(context.Background(), "countess")
	require.NoError(t, err)
	assert.Equal(t, "countess", updated.Username)

	held, ok := c.Session().User()
	require.True(t, ok)
	assert.Equal(t, "countess", held.Username)
}
