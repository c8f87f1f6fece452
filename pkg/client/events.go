package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// CreateEventInput carries typed event fields: numeric coercion happens at
// the caller's input boundary, not here.
type CreateEventInput struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" validate:"required"`
	Location    string    `json:"location" validate:"required"`
	Price       float64   `json:"price" validate:"gte=0"`
	Capacity    int       `json:"capacity" validate:"gt=0"`
}

// UpdateEventInput carries partial event changes; nil fields are untouched.
type UpdateEventInput struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Price       *float64   `json:"price,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
}

// Events lists all events. The read is public; a resolved token is still
// attached so the server can enrich the response for known users.
func (c *Client) Events(ctx context.Context) ([]Event, error) {
	var resp eventListResponse
	if err := c.do(ctx, http.MethodGet, "/events", nil, false, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// Event fetches one event by id.
func (c *Client) Event(ctx context.Context, id int64) (Event, error) {
	var resp eventResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/events/%d", id), nil, false, &resp); err != nil {
		return Event{}, err
	}
	return resp.Event, nil
}

// CreateEvent validates the input locally and rejects it before any network
// call when a required field is blank or the price is negative.
func (c *Client) CreateEvent(ctx context.Context, in CreateEventInput) (Event, error) {
	if err := c.validate.Struct(in); err != nil {
		return Event{}, fmt.Errorf("invalid event: %w", err)
	}
	var resp eventResponse
	if err := c.do(ctx, http.MethodPost, "/events", in, true, &resp); err != nil {
		return Event{}, err
	}
	return resp.Event, nil
}

// UpdateEvent applies partial changes to an event the caller owns.
func (c *Client) UpdateEvent(ctx context.Context, id int64, in UpdateEventInput) (Event, error) {
	if in.Price != nil && *in.Price < 0 {
		return Event{}, fmt.Errorf("invalid event: price must be non-negative")
	}
	var resp eventResponse
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/events/%d", id), in, true, &resp); err != nil {
		return Event{}, err
	}
	return resp.Event, nil
}

// DeleteEvent removes an event. Ownership is checked by the server; callers
// hiding the affordance for foreign events is advisory only.
func (c *Client) DeleteEvent(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/events/%d", id), nil, true, nil)
}
