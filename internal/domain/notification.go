package domain

import (
	"context"
	"time"
)

// SystemMessage is an in-app notification delivered to a user's inbox.
// swagger:model SystemMessage
type SystemMessage struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// SystemMessageRepository defines storage operations for system messages.
type SystemMessageRepository interface {
	Create(ctx context.Context, msg *SystemMessage) error
	ListByUserID(ctx context.Context, userID string) ([]*SystemMessage, error)
	MarkRead(ctx context.Context, id, userID string) error
}

// Broadcaster pushes a named payload to all connected realtime clients.
type Broadcaster interface {
	Broadcast(event string, payload any)
}

// RegistrationUpdate is the realtime payload broadcast after an admission or
// cancellation changes a role's occupancy.
type RegistrationUpdate struct {
	EventID   string    `json:"event_id"`
	RoleID    string    `json:"role_id"`
	Occupancy Occupancy `json:"occupancy"`
}

// NotificationService consumes admission results after the core returns and
// fans them out to the email, in-app, and realtime channels. Dispatch is
// best-effort: failures are logged, never surfaced to the registrant.
type NotificationService interface {
	RegistrationConfirmed(ctx context.Context, event *Event, role *Role, attendee Attendee, result *RegistrationResult)
	RegistrationCancelled(ctx context.Context, event *Event, role *Role, attendee Attendee, result *CancellationResult)
	ListMyMessages(ctx context.Context, userID string) ([]*SystemMessage, error)
	MarkMessageRead(ctx context.Context, messageID, userID string) error
}
