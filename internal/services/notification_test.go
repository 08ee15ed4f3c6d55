package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"communityhub/internal/domain"
)

type fakeMessageRepo struct {
	mu       sync.Mutex
	seq      int
	messages []*domain.SystemMessage
	err      error
}

func (f *fakeMessageRepo) Create(ctx context.Context, msg *domain.SystemMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.seq++
	msg.ID = "msg"
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeMessageRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.SystemMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []*domain.SystemMessage
	for _, m := range f.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMessageRepo) MarkRead(ctx context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == id && m.UserID == userID {
			m.Read = true
			return nil
		}
	}
	return domain.ErrNotFound
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []string
	last   any
}

func (f *fakeBroadcaster) Broadcast(event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	f.last = payload
}

type fakeEmailService struct {
	mu        sync.Mutex
	confirmed []*domain.RegistrationEmailData
	cancelled []*domain.RegistrationEmailData
	err       error
}

func (f *fakeEmailService) SendRegistrationConfirmed(ctx context.Context, data *domain.RegistrationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.confirmed = append(f.confirmed, data)
	return nil
}

func (f *fakeEmailService) SendRegistrationCancelled(ctx context.Context, data *domain.RegistrationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.cancelled = append(f.cancelled, data)
	return nil
}

func notificationFixture() (*fakeUserRepo, *fakeMessageRepo, *fakeBroadcaster, *fakeEmailService, domain.NotificationService) {
	users := &fakeUserRepo{byEmail: map[string]*domain.User{}}
	messages := &fakeMessageRepo{}
	broadcaster := &fakeBroadcaster{}
	emails := &fakeEmailService{}
	svc := NewNotificationService(users, messages, broadcaster, emails, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return users, messages, broadcaster, emails, svc
}

func notifyTestEvent() (*domain.Event, *domain.Role) {
	event := &domain.Event{
		ID: "e1", Title: "Cleanup",
		Date: time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
	}
	role := &domain.Role{ID: "r1", Name: "Volunteer"}
	return event, role
}

func TestNotificationService_RegistrationConfirmed_User(t *testing.T) {
	users, messages, broadcaster, emails, svc := notificationFixture()
	users.byEmail["ann@example.com"] = &domain.User{ID: "u1", Email: "ann@example.com"}
	event, role := notifyTestEvent()

	result := &domain.RegistrationResult{
		RegistrationID:   "reg-1",
		RegistrationType: domain.RegistrationTypeUser,
		CapacityAfter:    domain.Occupancy{Active: 1, Total: 1},
	}
	svc.RegistrationConfirmed(context.Background(), event, role, domain.Attendee{Name: "Ann", Email: "ann@example.com"}, result)

	if len(broadcaster.events) != 1 || broadcaster.events[0] != "registration_updated" {
		t.Fatalf("expected registration_updated broadcast, got %v", broadcaster.events)
	}
	update, ok := broadcaster.last.(domain.RegistrationUpdate)
	if !ok || update.EventID != "e1" || update.Occupancy.Total != 1 {
		t.Fatalf("unexpected broadcast payload: %+v", broadcaster.last)
	}
	if len(messages.messages) != 1 || messages.messages[0].UserID != "u1" {
		t.Fatalf("expected system message for u1, got %+v", messages.messages)
	}
	if len(emails.confirmed) != 1 || emails.confirmed[0].IsGuest {
		t.Fatalf("expected one user confirmation email, got %+v", emails.confirmed)
	}
	if emails.confirmed[0].EventDate != "September 12, 2026" {
		t.Fatalf("unexpected email date format: %q", emails.confirmed[0].EventDate)
	}
}

func TestNotificationService_RegistrationConfirmed_Guest(t *testing.T) {
	_, messages, _, emails, svc := notificationFixture()
	event, role := notifyTestEvent()

	result := &domain.RegistrationResult{
		RegistrationID:   "guest-1",
		RegistrationType: domain.RegistrationTypeGuest,
	}
	svc.RegistrationConfirmed(context.Background(), event, role, domain.Attendee{Name: "G", Email: "guest@example.com"}, result)

	// Guests have no account, so no system message, but they do get email.
	if len(messages.messages) != 0 {
		t.Fatalf("expected no system message for guest, got %+v", messages.messages)
	}
	if len(emails.confirmed) != 1 || !emails.confirmed[0].IsGuest {
		t.Fatalf("expected guest confirmation email, got %+v", emails.confirmed)
	}
}

func TestNotificationService_SilentOnDuplicateAndLimit(t *testing.T) {
	_, messages, broadcaster, emails, svc := notificationFixture()
	event, role := notifyTestEvent()
	attendee := domain.Attendee{Email: "ann@example.com"}

	svc.RegistrationConfirmed(context.Background(), event, role, attendee, &domain.RegistrationResult{Duplicate: true})
	svc.RegistrationConfirmed(context.Background(), event, role, attendee, &domain.RegistrationResult{LimitReached: true})
	svc.RegistrationConfirmed(context.Background(), event, role, attendee, nil)

	if len(broadcaster.events) != 0 || len(messages.messages) != 0 || len(emails.confirmed) != 0 {
		t.Fatal("duplicate, limit, and nil results must dispatch nothing")
	}
}

func TestNotificationService_EmailFailureIsSwallowed(t *testing.T) {
	users, _, _, emails, svc := notificationFixture()
	users.byEmail["ann@example.com"] = &domain.User{ID: "u1", Email: "ann@example.com"}
	emails.err = errors.New("smtp down")
	event, role := notifyTestEvent()

	// Must not panic or surface the error anywhere.
	svc.RegistrationConfirmed(context.Background(), event, role,
		domain.Attendee{Email: "ann@example.com"},
		&domain.RegistrationResult{RegistrationType: domain.RegistrationTypeUser})
}

func TestNotificationService_RegistrationCancelled(t *testing.T) {
	users, messages, broadcaster, emails, svc := notificationFixture()
	users.byEmail["ann@example.com"] = &domain.User{ID: "u1", Email: "ann@example.com"}
	event, role := notifyTestEvent()

	result := &domain.CancellationResult{
		RegistrationID:   "reg-1",
		RegistrationType: domain.RegistrationTypeUser,
		Occupancy:        domain.Occupancy{},
	}
	svc.RegistrationCancelled(context.Background(), event, role, domain.Attendee{Email: "ann@example.com"}, result)

	if len(broadcaster.events) != 1 {
		t.Fatalf("expected broadcast, got %v", broadcaster.events)
	}
	if len(messages.messages) != 1 {
		t.Fatalf("expected system message, got %+v", messages.messages)
	}
	if len(emails.cancelled) != 1 {
		t.Fatalf("expected cancellation email, got %+v", emails.cancelled)
	}
}

func TestNotificationService_Messages(t *testing.T) {
	_, messages, _, _, svc := notificationFixture()
	messages.messages = []*domain.SystemMessage{
		{ID: "msg", UserID: "u1", Title: "Hello"},
	}

	out, err := svc.ListMyMessages(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 message, got %d", len(out))
	}

	if err := svc.MarkMessageRead(context.Background(), "msg", "u1"); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !messages.messages[0].Read {
		t.Fatal("message not marked read")
	}
	if err := svc.MarkMessageRead(context.Background(), "msg", "someone-else"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for wrong user, got %v", err)
	}
}
