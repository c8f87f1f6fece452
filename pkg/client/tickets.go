package client

import (
	"context"
	"fmt"
	"net/http"
)

type bookTicketRequest struct {
	EventID int64 `json:"event_id"`
}

// BookTicket books one seat on an event. While a booking for an event is in
// flight, further bookings for the same event are rejected locally, so rapid
// repeated calls create exactly one ticket.
func (c *Client) BookTicket(ctx context.Context, eventID int64) (Ticket, error) {
	c.mu.Lock()
	if _, inFlight := c.booking[eventID]; inFlight {
		c.mu.Unlock()
		return Ticket{}, ErrBookingInFlight
	}
	c.booking[eventID] = struct{}{}
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.booking, eventID)
		c.mu.Unlock()
	}()

	var resp ticketResponse
	err := c.do(ctx, http.MethodPost, "/tickets", bookTicketRequest{EventID: eventID}, true, &resp)
	if err != nil {
		return Ticket{}, err
	}
	return resp.Ticket, nil
}

// MyTickets lists the current user's tickets. The call is gated on token
// availability and never fires unauthenticated; an empty result is a normal
// "no tickets" state, not an error.
func (c *Client) MyTickets(ctx context.Context) ([]Ticket, error) {
	var resp ticketListResponse
	if err := c.do(ctx, http.MethodGet, "/tickets/my", nil, true, &resp); err != nil {
		return nil, err
	}
	return resp.Tickets, nil
}

// ConfirmTicket marks a pending ticket paid and confirmed.
func (c *Client) ConfirmTicket(ctx context.Context, id int64) (Ticket, error) {
	var resp ticketResponse
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/tickets/%d/confirm", id), nil, true, &resp); err != nil {
		return Ticket{}, err
	}
	return resp.Ticket, nil
}

// CancelTicket cancels a ticket, refunding it when already paid.
func (c *Client) CancelTicket(ctx context.Context, id int64) (Ticket, error) {
	var resp ticketResponse
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/tickets/%d/cancel", id), nil, true, &resp); err != nil {
		return Ticket{}, err
	}
	return resp.Ticket, nil
}
