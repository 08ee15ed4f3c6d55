package services

import (
	"context"
	"errors"
	"testing"

	"communityhub/internal/domain"
)

type fakeRenderer struct {
	name string
	err  error
}

func (f *fakeRenderer) Render(name string, data any) (string, string, string, error) {
	f.name = name
	if f.err != nil {
		return "", "", "", f.err
	}
	return "subject:" + name, "<p>html</p>", "text", nil
}

type fakeMailer struct {
	to      string
	subject string
	err     error
}

func (f *fakeMailer) Send(to, subject, html, text string) error {
	f.to = to
	f.subject = subject
	return f.err
}

func TestSendRegistrationConfirmed_PicksTemplateByGuest(t *testing.T) {
	tests := []struct {
		name     string
		isGuest  bool
		template string
	}{
		{"user", false, "registration_confirmed"},
		{"guest", true, "guest_registration_confirmed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := &fakeRenderer{}
			mailer := &fakeMailer{}
			svc := NewEmailService(mailer, renderer)

			err := svc.SendRegistrationConfirmed(context.Background(), &domain.RegistrationEmailData{
				Email:   "ann@example.com",
				IsGuest: tt.isGuest,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if renderer.name != tt.template {
				t.Fatalf("expected template %q, got %q", tt.template, renderer.name)
			}
			if mailer.to != "ann@example.com" {
				t.Fatalf("sent to wrong address: %q", mailer.to)
			}
		})
	}
}

func TestSendRegistrationCancelled(t *testing.T) {
	renderer := &fakeRenderer{}
	mailer := &fakeMailer{}
	svc := NewEmailService(mailer, renderer)

	err := svc.SendRegistrationCancelled(context.Background(), &domain.RegistrationEmailData{
		Email: "ann@example.com",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if renderer.name != "registration_cancelled" {
		t.Fatalf("unexpected template: %q", renderer.name)
	}
}

func TestSendRegistrationConfirmed_NilData(t *testing.T) {
	svc := NewEmailService(&fakeMailer{}, &fakeRenderer{})
	if err := svc.SendRegistrationConfirmed(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil data")
	}
}

func TestSendRegistrationConfirmed_Errors(t *testing.T) {
	renderErr := errors.New("bad template")
	sendErr := errors.New("smtp down")

	svc := NewEmailService(&fakeMailer{}, &fakeRenderer{err: renderErr})
	if err := svc.SendRegistrationConfirmed(context.Background(), &domain.RegistrationEmailData{}); !errors.Is(err, renderErr) {
		t.Fatalf("expected render error, got %v", err)
	}

	svc = NewEmailService(&fakeMailer{err: sendErr}, &fakeRenderer{})
	if err := svc.SendRegistrationConfirmed(context.Background(), &domain.RegistrationEmailData{}); !errors.Is(err, sendErr) {
		t.Fatalf("expected send error, got %v", err)
	}
}
