package domain

import (
	"context"
	"time"
)

// Registration and guest-registration statuses.
const (
	RegistrationStatusActive    = "active"
	RegistrationStatusCancelled = "cancelled"
)

// Guest migration statuses. A guest registration can later be promoted to a
// full user account; migrationStatus tracks that lifecycle.
const (
	MigrationStatusPending  = "pending"
	MigrationStatusMigrated = "migrated"
	MigrationStatusDeclined = "declined"
)

// Registration types reported in a RegistrationResult.
const (
	RegistrationTypeUser  = "user"
	RegistrationTypeGuest = "guest"
)

// ParticipantSnapshot is the denormalized copy of participant contact fields
// captured at registration time. It is never refreshed afterwards, so the
// record stays historically accurate even if the user later changes.
type ParticipantSnapshot struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// EventSnapshot is the denormalized copy of event and role fields captured at
// registration time. Same historical-record rule as ParticipantSnapshot.
type EventSnapshot struct {
	Title           string    `json:"title"`
	Date            time.Time `json:"date"`
	Location        string    `json:"location"`
	RoleName        string    `json:"role_name"`
	RoleDescription string    `json:"role_description"`
}

// RegistrationAction is one entry in a registration's audit history.
type RegistrationAction struct {
	Action    string    `json:"action"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
}

// Registration is an authenticated user's active claim on one event role.
// swagger:model Registration
type Registration struct {
	ID            string               `json:"id"`
	EventID       string               `json:"event_id"`
	RoleID        string               `json:"role_id"`
	UserID        string               `json:"user_id"`
	Status        string               `json:"status"`
	UserSnapshot  ParticipantSnapshot  `json:"user_snapshot"`
	EventSnapshot EventSnapshot        `json:"event_snapshot"`
	Actions       []RegistrationAction `json:"actions"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// GuestRegistration is an email-only participant's claim on one event role.
// Guests are not users; the records live in a separate collection.
// swagger:model GuestRegistration
type GuestRegistration struct {
	ID              string        `json:"id"`
	EventID         string        `json:"event_id"`
	RoleID          string        `json:"role_id"`
	FullName        string        `json:"full_name"`
	Email           string        `json:"email"`
	Phone           string        `json:"phone"`
	Status          string        `json:"status"`
	MigrationStatus string        `json:"migration_status"`
	EventSnapshot   EventSnapshot `json:"event_snapshot"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Attendee is the caller-provided identity attempting to register. Email is
// required and pre-validated by the caller; name and phone are optional.
type Attendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Occupancy is the current count of active claims against a role's capacity.
type Occupancy struct {
	Active     int `json:"active"`
	Waitlisted int `json:"waitlisted"`
	Total      int `json:"total"`
}

// RegistrationResult is the structured outcome of an admission attempt.
// Duplicate and limit outcomes are expected, frequent, and need distinct
// user-facing copy, so they are result fields rather than errors.
type RegistrationResult struct {
	RegistrationID   string    `json:"registration_id"`
	RegistrationType string    `json:"registration_type"`
	Duplicate        bool      `json:"duplicate"`
	LimitReached     bool      `json:"limit_reached"`
	LimitReachedFor  string    `json:"limit_reached_for,omitempty"`
	UserLimit        int       `json:"user_limit,omitempty"`
	CapacityBefore   Occupancy `json:"capacity_before"`
	CapacityAfter    Occupancy `json:"capacity_after"`
}

// CancellationResult reports a completed cancellation and the freed capacity.
type CancellationResult struct {
	RegistrationID   string    `json:"registration_id"`
	RegistrationType string    `json:"registration_type"`
	Occupancy        Occupancy `json:"occupancy"`
}

// RegistrationRepository defines storage operations for user registrations.
type RegistrationRepository interface {
	Create(ctx context.Context, reg *Registration) error
	GetActiveByEventUserRole(ctx context.Context, eventID, userID, roleID string) (*Registration, error)
	CountActiveByEventAndUser(ctx context.Context, eventID, userID string) (int, error)
	CountByRoleAndStatus(ctx context.Context, eventID, roleID, status string) (int, error)
	UpdateStatus(ctx context.Context, id, status string, action RegistrationAction) error
	ListByEventID(ctx context.Context, eventID string) ([]*Registration, error)
}

// GuestRegistrationRepository defines storage operations for guest
// registrations.
type GuestRegistrationRepository interface {
	Create(ctx context.Context, reg *GuestRegistration) error
	ListActiveByEventAndEmail(ctx context.Context, eventID, email string) ([]*GuestRegistration, error)
	CountByRoleAndStatus(ctx context.Context, eventID, roleID, status string) (int, error)
	UpdateStatus(ctx context.Context, id, status string) error
	ListByEventID(ctx context.Context, eventID string) ([]*GuestRegistration, error)
}

// CapacityCounter answers "how occupied is this role". Counts are always
// recomputed from the registration records, never cached, so the service can
// be called twice within one admission (before and after the write).
type CapacityCounter interface {
	RoleOccupancy(ctx context.Context, eventID, roleID string) (Occupancy, error)
	IsRoleFull(occ Occupancy, maxParticipants int) bool
}

// UnlimitedRoles is the sentinel returned by RoleLimiter for tiers with no
// per-event role ceiling. All limit comparisons must short-circuit on it.
const UnlimitedRoles = -1

// RoleLimiter maps an attendee's authorization tier to the maximum number of
// roles they may hold in one event. The empty level means guest.
type RoleLimiter interface {
	MaxRolesPerEvent(level AuthLevel) int
}

// RegistrationService is the admission-control core: the lock-guarded
// signup/cancellation path.
type RegistrationService interface {
	Register(ctx context.Context, event *Event, roleID string, attendee Attendee) (*RegistrationResult, error)
	Cancel(ctx context.Context, event *Event, roleID string, attendee Attendee) (*CancellationResult, error)
}

// EventRoster is the full participant list for one event, both kinds.
type EventRoster struct {
	Registrations []*Registration      `json:"registrations"`
	Guests        []*GuestRegistration `json:"guests"`
}

// RosterService lists an event's participants for its owner.
type RosterService interface {
	EventRoster(ctx context.Context, eventID, ownerID string) (*EventRoster, error)
}
