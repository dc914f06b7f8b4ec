// Package audit publishes one event per completed search.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event records who searched what and how it ended.
type Event struct {
	ID             string    `json:"id"`
	At             time.Time `json:"at"`
	PrincipalID    string    `json:"principal_id"`
	Role           string    `json:"role"`
	TenantID       string    `json:"tenant_id,omitempty"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Resource       string    `json:"resource"`
	Page           int       `json:"page"`
	Limit          int       `json:"limit"`
	Records        int       `json:"records"`
	Outcome        string    `json:"outcome"`
}

// NewEvent stamps an event with a fresh id and the current UTC time.
func NewEvent() Event {
	return Event{ID: uuid.NewString(), At: time.Now().UTC()}
}

// Publisher delivers audit events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher discards every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }
