package services

import (
	"context"
	"fmt"

	"communityhub/internal/domain"
)

type rosterService struct {
	eventRepo domain.EventRepository
	regRepo   domain.RegistrationRepository
	guestRepo domain.GuestRegistrationRepository
}

// NewRosterService creates a RosterService backed by the given repositories.
func NewRosterService(
	eventRepo domain.EventRepository,
	regRepo domain.RegistrationRepository,
	guestRepo domain.GuestRegistrationRepository,
) domain.RosterService {
	return &rosterService{
		eventRepo: eventRepo,
		regRepo:   regRepo,
		guestRepo: guestRepo,
	}
}

// EventRoster returns all registrations for the event, user and guest alike.
// Only the event owner may list the roster.
func (s *rosterService) EventRoster(ctx context.Context, eventID, ownerID string) (*domain.EventRoster, error) {
	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}
	regs, err := s.regRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	guests, err := s.guestRepo.ListByEventID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list guest registrations: %w", err)
	}
	if regs == nil {
		regs = []*domain.Registration{}
	}
	if guests == nil {
		guests = []*domain.GuestRegistration{}
	}
	return &domain.EventRoster{Registrations: regs, Guests: guests}, nil
}
