package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/gatherhub/gatherly/internal/models"
	"github.com/gatherhub/gatherly/internal/storage"
)

// TestStoreIntegration exercises the full booking path against a live
// database. Rows it creates are cleaned up through the event cascade.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_DB_INTEGRATION") != "true" {
		t.Skip("set RUN_DB_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	defer store.Close()

	stamp := time.Now().UnixNano()
	organizer, err := store.CreateUser(ctx, models.User{
		Username:     fmt.Sprintf("itest_org_%d", stamp),
		Email:        fmt.Sprintf("itest_org_%d@example.com", stamp),
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create organizer: %v", err)
	}
	attendee, err := store.CreateUser(ctx, models.User{
		Username:     fmt.Sprintf("itest_att_%d", stamp),
		Email:        fmt.Sprintf("itest_att_%d@example.com", stamp),
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create attendee: %v", err)
	}

	event, err := store.CreateEvent(ctx, models.Event{
		Title:     "Integration Meetup",
		Date:      time.Now().Add(24 * time.Hour).UTC(),
		Location:  "Test Hall",
		Price:     10,
		Capacity:  1,
		CreatorID: organizer.ID,
	})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	defer func() {
		if err := store.DeleteEvent(ctx, event.ID); err != nil {
			t.Errorf("cleanup event: %v", err)
		}
	}()
	if event.AvailableTickets != 1 {
		t.Errorf("available = %d, want 1", event.AvailableTickets)
	}
	if event.Creator == nil || event.Creator.ID != organizer.ID {
		t.Errorf("creator summary = %+v", event.Creator)
	}

	ticket, err := store.CreateTicket(ctx, models.Ticket{
		UserID:        attendee.ID,
		EventID:       event.ID,
		Status:        models.TicketPending,
		PaymentStatus: models.PaymentUnpaid,
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if ticket.Event == nil || ticket.Event.ID != event.ID {
		t.Errorf("ticket event summary = %+v", ticket.Event)
	}

	if _, err := store.CreateTicket(ctx, models.Ticket{
		UserID:        attendee.ID,
		EventID:       event.ID,
		Status:        models.TicketPending,
		PaymentStatus: models.PaymentUnpaid,
	}); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate booking: err = %v, want ErrAlreadyExists", err)
	}

	if _, err := store.CreateTicket(ctx, models.Ticket{
		UserID:        organizer.ID,
		EventID:       event.ID,
		Status:        models.TicketPending,
		PaymentStatus: models.PaymentUnpaid,
	}); !errors.Is(err, storage.ErrSoldOut) {
		t.Fatalf("overbooking: err = %v, want ErrSoldOut", err)
	}

	canceled, err := store.UpdateTicketStatus(ctx, ticket.ID, models.TicketCanceled, models.PaymentRefunded)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if canceled.Status != models.TicketCanceled {
		t.Errorf("status = %q, want canceled", canceled.Status)
	}

	refreshed, err := store.FindEventByID(ctx, event.ID)
	if err != nil {
		t.Fatalf("refresh event: %v", err)
	}
	if refreshed.AvailableTickets != 1 {
		t.Errorf("available after cancel = %d, want 1", refreshed.AvailableTickets)
	}

	tickets, err := store.ListTicketsByUser(ctx, attendee.ID)
	if err != nil {
		t.Fatalf("list tickets: %v", err)
	}
	if len(tickets) != 1 {
		t.Fatalf("ticket count = %d, want 1", len(tickets))
	}
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
