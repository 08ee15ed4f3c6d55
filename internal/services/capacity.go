package services

import (
	"context"
	"fmt"

	"communityhub/internal/domain"
)

type capacityService struct {
	registrationRepo domain.RegistrationRepository
	guestRepo        domain.GuestRegistrationRepository
}

// NewCapacityService returns a CapacityCounter that recomputes occupancy from
// the registration records on every call. Nothing is cached; the same
// instance can be consulted before and after a write within one admission.
func NewCapacityService(registrationRepo domain.RegistrationRepository, guestRepo domain.GuestRegistrationRepository) domain.CapacityCounter {
	return &capacityService{
		registrationRepo: registrationRepo,
		guestRepo:        guestRepo,
	}
}

func (s *capacityService) RoleOccupancy(ctx context.Context, eventID, roleID string) (domain.Occupancy, error) {
	users, err := s.registrationRepo.CountByRoleAndStatus(ctx, eventID, roleID, domain.RegistrationStatusActive)
	if err != nil {
		return domain.Occupancy{}, fmt.Errorf("count user registrations: %w", err)
	}
	guests, err := s.guestRepo.CountByRoleAndStatus(ctx, eventID, roleID, domain.RegistrationStatusActive)
	if err != nil {
		return domain.Occupancy{}, fmt.Errorf("count guest registrations: %w", err)
	}
	active := users + guests
	return domain.Occupancy{
		Active: active,
		Total:  active,
	}, nil
}

// IsRoleFull compares occupancy against the role's configured capacity. The
// capacity value is read by the caller so this service never needs a second
// event lookup.
func (s *capacityService) IsRoleFull(occ domain.Occupancy, maxParticipants int) bool {
	return occ.Total >= maxParticipants
}
