package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"communityhub/internal/domain"
)

type notificationService struct {
	userRepo     domain.UserRepository
	messageRepo  domain.SystemMessageRepository
	broadcaster  domain.Broadcaster
	emailService domain.EmailService
	logger       *slog.Logger
}

// NewNotificationService creates the dispatch layer that fans admission
// results out to the email, in-app, and realtime channels.
func NewNotificationService(
	userRepo domain.UserRepository,
	messageRepo domain.SystemMessageRepository,
	broadcaster domain.Broadcaster,
	emailService domain.EmailService,
	logger *slog.Logger,
) domain.NotificationService {
	return &notificationService{
		userRepo:     userRepo,
		messageRepo:  messageRepo,
		broadcaster:  broadcaster,
		emailService: emailService,
		logger:       logger,
	}
}

// RegistrationConfirmed dispatches after a successful admission. Duplicate and
// limit outcomes are silent: the attendee already got their answer in the
// response body and nothing in the event changed.
func (s *notificationService) RegistrationConfirmed(ctx context.Context, event *domain.Event, role *domain.Role, attendee domain.Attendee, result *domain.RegistrationResult) {
	if result == nil || result.Duplicate || result.LimitReached {
		return
	}

	s.broadcaster.Broadcast("registration_updated", domain.RegistrationUpdate{
		EventID:   event.ID,
		RoleID:    role.ID,
		Occupancy: result.CapacityAfter,
	})

	if result.RegistrationType == domain.RegistrationTypeUser {
		if err := s.createSystemMessage(ctx, attendee.Email,
			"Registration confirmed",
			fmt.Sprintf("You are registered as %s for %s.", role.Name, event.Title),
		); err != nil {
			s.logger.Error("system message dispatch failed", "event_id", event.ID, "err", err)
		}
	}

	data := &domain.RegistrationEmailData{
		Email:      attendee.Email,
		FirstName:  attendee.Name,
		EventTitle: event.Title,
		EventDate:  event.Date.Format("January 2, 2006"),
		RoleName:   role.Name,
		IsGuest:    result.RegistrationType == domain.RegistrationTypeGuest,
	}
	if err := s.emailService.SendRegistrationConfirmed(ctx, data); err != nil {
		s.logger.Error("confirmation email dispatch failed", "event_id", event.ID, "err", err)
	}
}

func (s *notificationService) RegistrationCancelled(ctx context.Context, event *domain.Event, role *domain.Role, attendee domain.Attendee, result *domain.CancellationResult) {
	if result == nil {
		return
	}

	s.broadcaster.Broadcast("registration_updated", domain.RegistrationUpdate{
		EventID:   event.ID,
		RoleID:    role.ID,
		Occupancy: result.Occupancy,
	})

	if result.RegistrationType == domain.RegistrationTypeUser {
		if err := s.createSystemMessage(ctx, attendee.Email,
			"Registration cancelled",
			fmt.Sprintf("Your %s registration for %s was cancelled.", role.Name, event.Title),
		); err != nil {
			s.logger.Error("system message dispatch failed", "event_id", event.ID, "err", err)
		}
	}

	data := &domain.RegistrationEmailData{
		Email:      attendee.Email,
		FirstName:  attendee.Name,
		EventTitle: event.Title,
		EventDate:  event.Date.Format("January 2, 2006"),
		RoleName:   role.Name,
		IsGuest:    result.RegistrationType == domain.RegistrationTypeGuest,
	}
	if err := s.emailService.SendRegistrationCancelled(ctx, data); err != nil {
		s.logger.Error("cancellation email dispatch failed", "event_id", event.ID, "err", err)
	}
}

func (s *notificationService) createSystemMessage(ctx context.Context, email, title, body string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("resolve recipient: %w", err)
	}
	msg := &domain.SystemMessage{
		UserID:    user.ID,
		Title:     title,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return fmt.Errorf("create system message: %w", err)
	}
	return nil
}

func (s *notificationService) ListMyMessages(ctx context.Context, userID string) ([]*domain.SystemMessage, error) {
	msgs, err := s.messageRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list system messages: %w", err)
	}
	if msgs == nil {
		msgs = []*domain.SystemMessage{}
	}
	return msgs, nil
}

func (s *notificationService) MarkMessageRead(ctx context.Context, messageID, userID string) error {
	if err := s.messageRepo.MarkRead(ctx, messageID, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("mark message read: %w", err)
	}
	return nil
}
