package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vietddude/jobsync/internal/core/domain"
)

var resources = map[domain.EntityType]string{
	domain.EntityJob:     "jobs",
	domain.EntityUser:    "users",
	domain.EntityMessage: "messages",
	domain.EntityBooking: "bookings",
	domain.EntityReview:  "reviews",
}

func resourcePath(t domain.EntityType) (string, error) {
	r, ok := resources[t]
	if !ok {
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownEntityType, t)
	}
	return "/" + r, nil
}

// Push sends a locally mutated entity. Entities without a server id (id <= 0)
// are created with POST; others are replaced with PUT. idempotencyKey lets the
// server discard replays. The server's version of the entity is returned; a
// nil entity means the server sent no body.
func (c *Client) Push(ctx context.Context, idempotencyKey string, e domain.Entity) (domain.Entity, error) {
	base, err := resourcePath(e.Type())
	if err != nil {
		return nil, err
	}

	method, path := http.MethodPut, fmt.Sprintf("%s/%d", base, e.EntityID())
	if e.EntityID() <= 0 {
		method, path = http.MethodPost, base
	}

	var raw json.RawMessage
	headers := map[string]string{"Idempotency-Key": idempotencyKey}
	if err := c.do(ctx, method, path, e, headers, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	confirmed, err := domain.DecodeEntity(e.Type(), raw)
	if err != nil {
		return nil, fmt.Errorf("%s %s: decode entity: %w", method, path, err)
	}
	return confirmed, nil
}

// FetchJobs returns the authoritative job list.
func (c *Client) FetchJobs(ctx context.Context) ([]domain.Job, error) {
	var jobs []domain.Job
	if err := c.do(ctx, http.MethodGet, "/jobs", nil, nil, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

// FetchBookings returns the authoritative booking list.
func (c *Client) FetchBookings(ctx context.Context) ([]domain.Booking, error) {
	var bookings []domain.Booking
	if err := c.do(ctx, http.MethodGet, "/bookings", nil, nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// Ping checks that the API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}
