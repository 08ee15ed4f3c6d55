package domain

import (
	"context"
	"time"
)

// Role is a capacity-limited participation slot within an event (e.g.
// "Speaker", "Volunteer"). Roles are embedded in their event, not separately
// owned.
type Role struct {
	ID              string `json:"role_id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	MaxParticipants int    `json:"max_participants"`
	OpenToPublic    bool   `json:"open_to_public"`
}

// Event represents a community event with its embedded roles.
// swagger:model Event
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	StartTime   string    `json:"start_time"`
	EndTime     string    `json:"end_time"`
	Location    string    `json:"location"`
	OwnerID     string    `json:"owner_id"`
	Roles       []Role    `json:"roles"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FindRole returns the embedded role with the given ID, or nil.
func (e *Event) FindRole(roleID string) *Role {
	for i := range e.Roles {
		if e.Roles[i].ID == roleID {
			return &e.Roles[i]
		}
	}
	return nil
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
}

// EventService defines organizer-facing event management.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEventByID(ctx context.Context, eventID string) (*Event, error)
	ListMyEvents(ctx context.Context, ownerID string) ([]*Event, error)
	UpdateEvent(ctx context.Context, eventID, ownerID string, update *EventUpdate) (*Event, error)
	DeleteEvent(ctx context.Context, eventID, ownerID string) error
}

// EventUpdate carries the mutable fields of an event edit. Nil pointers mean
// "leave unchanged".
type EventUpdate struct {
	Title       *string
	Description *string
	Date        *time.Time
	StartTime   *string
	EndTime     *string
	Location    *string
}
