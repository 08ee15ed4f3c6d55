package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"communityhub/internal/domain"
)

// DefaultLockTimeout bounds how long a registration attempt waits for its
// identity-scoped lock before failing with ErrLockTimeout.
const DefaultLockTimeout = 10 * time.Second

type registrationService struct {
	userRepo    domain.UserRepository
	regRepo     domain.RegistrationRepository
	guestRepo   domain.GuestRegistrationRepository
	capacity    domain.CapacityCounter
	limits      domain.RoleLimiter
	locker      domain.Locker
	lockTimeout time.Duration
}

// NewRegistrationService creates the admission-control core. All reads and
// writes of registration records happen inside the locker's critical section,
// keyed per (event, attendee email).
func NewRegistrationService(
	userRepo domain.UserRepository,
	regRepo domain.RegistrationRepository,
	guestRepo domain.GuestRegistrationRepository,
	capacity domain.CapacityCounter,
	limits domain.RoleLimiter,
	locker domain.Locker,
	lockTimeout time.Duration,
) domain.RegistrationService {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &registrationService{
		userRepo:    userRepo,
		regRepo:     regRepo,
		guestRepo:   guestRepo,
		capacity:    capacity,
		limits:      limits,
		locker:      locker,
		lockTimeout: lockTimeout,
	}
}

// Register admits an attendee into an event role. Inside the lock, duplicate
// detection runs before capacity so a retry of a prior success never sees a
// spurious "full" error, and limit checks run before capacity so an attendee
// at their personal cap gets "you're at your limit" rather than "role is
// full". Duplicate and limit outcomes come back in the result; only
// ErrRoleAtCapacity and ErrLockTimeout surface as errors.
func (s *registrationService) Register(ctx context.Context, event *domain.Event, roleID string, attendee domain.Attendee) (*domain.RegistrationResult, error) {
	role := event.FindRole(roleID)
	if role == nil {
		return nil, domain.ErrNotFound
	}
	attendee.Email = strings.ToLower(strings.TrimSpace(attendee.Email))

	var result *domain.RegistrationResult
	key := domain.RegistrationLockKey(event.ID, attendee.Email)
	err := s.locker.WithLock(ctx, key, s.lockTimeout, func(ctx context.Context) error {
		r, err := s.admit(ctx, event, role, attendee)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *registrationService) admit(ctx context.Context, event *domain.Event, role *domain.Role, attendee domain.Attendee) (*domain.RegistrationResult, error) {
	before, err := s.capacity.RoleOccupancy(ctx, event.ID, role.ID)
	if err != nil {
		return nil, fmt.Errorf("sample occupancy: %w", err)
	}

	// Identity is resolved once, here. The branches below never re-check
	// whether the email belongs to an account.
	user, err := s.userRepo.GetByEmail(ctx, attendee.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("resolve attendee: %w", err)
	}
	if user != nil {
		return s.admitUser(ctx, event, role, attendee, user, before)
	}
	return s.admitGuest(ctx, event, role, attendee, before)
}

func (s *registrationService) admitUser(ctx context.Context, event *domain.Event, role *domain.Role, attendee domain.Attendee, user *domain.User, before domain.Occupancy) (*domain.RegistrationResult, error) {
	limit := s.limits.MaxRolesPerEvent(user.AuthLevel)

	existing, err := s.regRepo.GetActiveByEventUserRole(ctx, event.ID, user.ID, role.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("find existing registration: %w", err)
	}
	if existing != nil {
		// Idempotent read of the prior success; capacity and limits are
		// irrelevant because the seat is already theirs.
		return &domain.RegistrationResult{
			RegistrationID:   existing.ID,
			RegistrationType: domain.RegistrationTypeUser,
			Duplicate:        true,
			UserLimit:        limit,
			CapacityBefore:   before,
			CapacityAfter:    before,
		}, nil
	}

	if limit != domain.UnlimitedRoles {
		count, err := s.regRepo.CountActiveByEventAndUser(ctx, event.ID, user.ID)
		if err != nil {
			return nil, fmt.Errorf("count user roles: %w", err)
		}
		if count >= limit {
			return &domain.RegistrationResult{
				RegistrationType: domain.RegistrationTypeUser,
				LimitReached:     true,
				LimitReachedFor:  domain.RegistrationTypeUser,
				UserLimit:        limit,
				CapacityBefore:   before,
				CapacityAfter:    before,
			}, nil
		}
	}

	if err := s.ensureSeat(ctx, event.ID, role, before); err != nil {
		return nil, err
	}

	now := time.Now()
	reg := &domain.Registration{
		EventID:       event.ID,
		RoleID:        role.ID,
		UserID:        user.ID,
		Status:        domain.RegistrationStatusActive,
		UserSnapshot:  snapshotUser(user, attendee),
		EventSnapshot: snapshotEvent(event, role),
		Actions: []domain.RegistrationAction{
			{Action: "registered", Actor: user.ID, Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.regRepo.Create(ctx, reg); err != nil {
		return nil, fmt.Errorf("create registration: %w", err)
	}

	after, err := s.capacity.RoleOccupancy(ctx, event.ID, role.ID)
	if err != nil {
		return nil, fmt.Errorf("resample occupancy: %w", err)
	}
	return &domain.RegistrationResult{
		RegistrationID:   reg.ID,
		RegistrationType: domain.RegistrationTypeUser,
		UserLimit:        limit,
		CapacityBefore:   before,
		CapacityAfter:    after,
	}, nil
}

func (s *registrationService) admitGuest(ctx context.Context, event *domain.Event, role *domain.Role, attendee domain.Attendee, before domain.Occupancy) (*domain.RegistrationResult, error) {
	limit := s.limits.MaxRolesPerEvent("")

	existing, err := s.guestRepo.ListActiveByEventAndEmail(ctx, event.ID, attendee.Email)
	if err != nil {
		return nil, fmt.Errorf("list guest registrations: %w", err)
	}
	for _, g := range existing {
		if g.RoleID == role.ID {
			return &domain.RegistrationResult{
				RegistrationID:   g.ID,
				RegistrationType: domain.RegistrationTypeGuest,
				Duplicate:        true,
				UserLimit:        limit,
				CapacityBefore:   before,
				CapacityAfter:    before,
			}, nil
		}
	}
	// Guests are capped at one active role per event system-wide; holding any
	// other role in this event blocks a second one.
	if limit != domain.UnlimitedRoles && len(existing) >= limit {
		return &domain.RegistrationResult{
			RegistrationType: domain.RegistrationTypeGuest,
			LimitReached:     true,
			LimitReachedFor:  domain.RegistrationTypeGuest,
			UserLimit:        limit,
			CapacityBefore:   before,
			CapacityAfter:    before,
		}, nil
	}

	if err := s.ensureSeat(ctx, event.ID, role, before); err != nil {
		return nil, err
	}

	now := time.Now()
	reg := &domain.GuestRegistration{
		EventID:         event.ID,
		RoleID:          role.ID,
		FullName:        attendee.Name,
		Email:           attendee.Email,
		Phone:           attendee.Phone,
		Status:          domain.RegistrationStatusActive,
		MigrationStatus: domain.MigrationStatusPending,
		EventSnapshot:   snapshotEvent(event, role),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.guestRepo.Create(ctx, reg); err != nil {
		return nil, fmt.Errorf("create guest registration: %w", err)
	}

	after, err := s.capacity.RoleOccupancy(ctx, event.ID, role.ID)
	if err != nil {
		return nil, fmt.Errorf("resample occupancy: %w", err)
	}
	return &domain.RegistrationResult{
		RegistrationID:   reg.ID,
		RegistrationType: domain.RegistrationTypeGuest,
		UserLimit:        limit,
		CapacityBefore:   before,
		CapacityAfter:    after,
	}, nil
}

// ensureSeat validates capacity against the pre-state sample, then re-samples
// immediately before the write. The second check is redundant while the lock
// holds exclusivity; it guards against a lock lease expiring mid-operation.
func (s *registrationService) ensureSeat(ctx context.Context, eventID string, role *domain.Role, before domain.Occupancy) error {
	if s.capacity.IsRoleFull(before, role.MaxParticipants) {
		return domain.ErrRoleAtCapacity
	}
	current, err := s.capacity.RoleOccupancy(ctx, eventID, role.ID)
	if err != nil {
		return fmt.Errorf("recheck occupancy: %w", err)
	}
	if s.capacity.IsRoleFull(current, role.MaxParticipants) {
		return domain.ErrRoleAtCapacity
	}
	return nil
}

// Cancel deactivates the attendee's active registration for the role, under
// the same lock key as Register so a signup and a cancellation by the same
// person cannot interleave.
func (s *registrationService) Cancel(ctx context.Context, event *domain.Event, roleID string, attendee domain.Attendee) (*domain.CancellationResult, error) {
	role := event.FindRole(roleID)
	if role == nil {
		return nil, domain.ErrNotFound
	}
	attendee.Email = strings.ToLower(strings.TrimSpace(attendee.Email))

	var result *domain.CancellationResult
	key := domain.RegistrationLockKey(event.ID, attendee.Email)
	err := s.locker.WithLock(ctx, key, s.lockTimeout, func(ctx context.Context) error {
		r, err := s.cancel(ctx, event, role, attendee)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *registrationService) cancel(ctx context.Context, event *domain.Event, role *domain.Role, attendee domain.Attendee) (*domain.CancellationResult, error) {
	user, err := s.userRepo.GetByEmail(ctx, attendee.Email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("resolve attendee: %w", err)
	}

	var registrationID, registrationType string
	if user != nil {
		existing, err := s.regRepo.GetActiveByEventUserRole(ctx, event.ID, user.ID, role.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, domain.ErrNotFound
			}
			return nil, fmt.Errorf("find registration: %w", err)
		}
		action := domain.RegistrationAction{
			Action:    "cancelled",
			Actor:     user.ID,
			Timestamp: time.Now(),
		}
		if err := s.regRepo.UpdateStatus(ctx, existing.ID, domain.RegistrationStatusCancelled, action); err != nil {
			return nil, fmt.Errorf("cancel registration: %w", err)
		}
		registrationID = existing.ID
		registrationType = domain.RegistrationTypeUser
	} else {
		guests, err := s.guestRepo.ListActiveByEventAndEmail(ctx, event.ID, attendee.Email)
		if err != nil {
			return nil, fmt.Errorf("list guest registrations: %w", err)
		}
		var match *domain.GuestRegistration
		for _, g := range guests {
			if g.RoleID == role.ID {
				match = g
				break
			}
		}
		if match == nil {
			return nil, domain.ErrNotFound
		}
		if err := s.guestRepo.UpdateStatus(ctx, match.ID, domain.RegistrationStatusCancelled); err != nil {
			return nil, fmt.Errorf("cancel guest registration: %w", err)
		}
		registrationID = match.ID
		registrationType = domain.RegistrationTypeGuest
	}

	occ, err := s.capacity.RoleOccupancy(ctx, event.ID, role.ID)
	if err != nil {
		return nil, fmt.Errorf("resample occupancy: %w", err)
	}
	return &domain.CancellationResult{
		RegistrationID:   registrationID,
		RegistrationType: registrationType,
		Occupancy:        occ,
	}, nil
}

// snapshotUser captures participant contact fields at registration time.
// Attendee-provided values win over the stored profile so the record reflects
// what was submitted.
func snapshotUser(user *domain.User, attendee domain.Attendee) domain.ParticipantSnapshot {
	name := strings.TrimSpace(attendee.Name)
	if name == "" {
		name = strings.TrimSpace(user.Name + " " + user.LastName)
	}
	phone := attendee.Phone
	if phone == "" {
		phone = user.Phone
	}
	return domain.ParticipantSnapshot{
		Name:  name,
		Email: attendee.Email,
		Phone: phone,
	}
}

func snapshotEvent(event *domain.Event, role *domain.Role) domain.EventSnapshot {
	return domain.EventSnapshot{
		Title:           event.Title,
		Date:            event.Date,
		Location:        event.Location,
		RoleName:        role.Name,
		RoleDescription: role.Description,
	}
}
