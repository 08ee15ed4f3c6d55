package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"communityhub/internal/delivery/http/helpers"
	"communityhub/internal/delivery/http/middleware"
	"communityhub/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

type stubEventService struct {
	event *domain.Event
	err   error
}

func (s *stubEventService) CreateEvent(ctx context.Context, event *domain.Event) error { return s.err }

func (s *stubEventService) GetEventByID(ctx context.Context, eventID string) (*domain.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.event == nil || s.event.ID != eventID {
		return nil, domain.ErrNotFound
	}
	return s.event, nil
}

func (s *stubEventService) ListMyEvents(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	return nil, s.err
}

func (s *stubEventService) UpdateEvent(ctx context.Context, eventID, ownerID string, update *domain.EventUpdate) (*domain.Event, error) {
	return s.event, s.err
}

func (s *stubEventService) DeleteEvent(ctx context.Context, eventID, ownerID string) error {
	return s.err
}

type stubUserService struct {
	user  *domain.User
	token string
	err   error

	gotEmail string
}

func (s *stubUserService) SignUp(ctx context.Context, email, password, name, lastName string) (*domain.User, error) {
	s.gotEmail = email
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

func (s *stubUserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	s.gotEmail = email
	if s.err != nil {
		return "", nil, s.err
	}
	return s.token, s.user, nil
}

func (s *stubUserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.user, nil
}

type stubRegistrationService struct {
	result       *domain.RegistrationResult
	cancelResult *domain.CancellationResult
	err          error

	gotEvent    *domain.Event
	gotRoleID   string
	gotAttendee domain.Attendee
}

func (s *stubRegistrationService) Register(ctx context.Context, event *domain.Event, roleID string, attendee domain.Attendee) (*domain.RegistrationResult, error) {
	s.gotEvent = event
	s.gotRoleID = roleID
	s.gotAttendee = attendee
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubRegistrationService) Cancel(ctx context.Context, event *domain.Event, roleID string, attendee domain.Attendee) (*domain.CancellationResult, error) {
	s.gotEvent = event
	s.gotRoleID = roleID
	s.gotAttendee = attendee
	if s.err != nil {
		return nil, s.err
	}
	return s.cancelResult, nil
}

type stubNotificationService struct {
	confirmed chan struct{}
	cancelled chan struct{}
}

func newStubNotificationService() *stubNotificationService {
	return &stubNotificationService{
		confirmed: make(chan struct{}, 1),
		cancelled: make(chan struct{}, 1),
	}
}

func (s *stubNotificationService) RegistrationConfirmed(ctx context.Context, event *domain.Event, role *domain.Role, attendee domain.Attendee, result *domain.RegistrationResult) {
	s.confirmed <- struct{}{}
}

func (s *stubNotificationService) RegistrationCancelled(ctx context.Context, event *domain.Event, role *domain.Role, attendee domain.Attendee, result *domain.CancellationResult) {
	s.cancelled <- struct{}{}
}

func (s *stubNotificationService) ListMyMessages(ctx context.Context, userID string) ([]*domain.SystemMessage, error) {
	return nil, nil
}

func (s *stubNotificationService) MarkMessageRead(ctx context.Context, messageID, userID string) error {
	return nil
}

type stubCapacityCounter struct {
	occ domain.Occupancy
	err error
}

func (s *stubCapacityCounter) RoleOccupancy(ctx context.Context, eventID, roleID string) (domain.Occupancy, error) {
	return s.occ, s.err
}

func (s *stubCapacityCounter) IsRoleFull(occ domain.Occupancy, maxParticipants int) bool {
	return occ.Total >= maxParticipants
}

type stubRosterService struct {
	roster *domain.EventRoster
	err    error
}

func (s *stubRosterService) EventRoster(ctx context.Context, eventID, ownerID string) (*domain.EventRoster, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.roster, nil
}

func signupTestEvent() *domain.Event {
	return &domain.Event{
		ID:      "e1",
		Title:   "Beach Cleanup",
		OwnerID: "owner-1",
		Roles: []domain.Role{
			{ID: "r1", Name: "Volunteer", MaxParticipants: 5, OpenToPublic: true},
			{ID: "r2", Name: "Driver", MaxParticipants: 2},
		},
	}
}

type registrationFixture struct {
	events        *stubEventService
	users         *stubUserService
	registrations *stubRegistrationService
	notifications *stubNotificationService
	ctrl          *RegistrationController
}

func newRegistrationFixture() *registrationFixture {
	f := &registrationFixture{
		events:        &stubEventService{event: signupTestEvent()},
		users:         &stubUserService{user: &domain.User{ID: "u1", Name: "Ann", Email: "ann@example.com"}},
		registrations: &stubRegistrationService{result: &domain.RegistrationResult{RegistrationID: "reg-1"}},
		notifications: newStubNotificationService(),
	}
	f.ctrl = NewRegistrationController(testLogger, f.events, f.users, f.registrations, f.notifications, &stubCapacityCounter{}, &stubRosterService{})
	return f
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.SetPathValue("eventID", "e1")
	return req
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) helpers.APIResponse {
	t.Helper()
	var resp helpers.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return resp
}

func TestRegistrationController_Signup_Fresh(t *testing.T) {
	f := newRegistrationFixture()

	req := postJSON("/events/e1/signup", `{"role_id":"r1","name":"Annie","phone":"555"}`)
	req = req.WithContext(middleware.SetUserID(req.Context(), "u1"))
	w := httptest.NewRecorder()

	f.ctrl.Signup(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	if f.registrations.gotAttendee.Email != "ann@example.com" {
		t.Fatalf("attendee email must come from the account, got %q", f.registrations.gotAttendee.Email)
	}
	if f.registrations.gotAttendee.Name != "Annie" {
		t.Fatalf("attendee name must come from the request, got %q", f.registrations.gotAttendee.Name)
	}
	<-f.notifications.confirmed
}

func TestRegistrationController_Signup_DuplicateReturns200(t *testing.T) {
	f := newRegistrationFixture()
	f.registrations.result = &domain.RegistrationResult{RegistrationID: "reg-1", Duplicate: true}

	req := postJSON("/events/e1/signup", `{"role_id":"r1"}`)
	req = req.WithContext(middleware.SetUserID(req.Context(), "u1"))
	w := httptest.NewRecorder()

	f.ctrl.Signup(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
}

func TestRegistrationController_Signup_Unauthorized(t *testing.T) {
	f := newRegistrationFixture()

	req := postJSON("/events/e1/signup", `{"role_id":"r1"}`)
	w := httptest.NewRecorder()

	f.ctrl.Signup(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestRegistrationController_Signup_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"role full", domain.ErrRoleAtCapacity, http.StatusConflict, helpers.ErrCodeRoleFull},
		{"lock timeout", domain.ErrLockTimeout, http.StatusConflict, helpers.ErrCodeBusy},
		{"not found", domain.ErrNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationFixture()
			f.registrations.err = tt.err

			req := postJSON("/events/e1/signup", `{"role_id":"r1"}`)
			req = req.WithContext(middleware.SetUserID(req.Context(), "u1"))
			w := httptest.NewRecorder()

			f.ctrl.Signup(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, w.Code)
			}
			resp := decodeResponse(t, w)
			if resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Fatalf("expected error code %q, got %+v", tt.wantErr, resp.Error)
			}
			select {
			case <-f.notifications.confirmed:
				t.Fatal("no notification must be dispatched on error")
			default:
			}
		})
	}
}

func TestRegistrationController_GuestSignup_Fresh(t *testing.T) {
	f := newRegistrationFixture()

	req := postJSON("/events/e1/guest-signup", `{"role_id":"r1","full_name":"Guest One","email":"  GUEST@Example.COM "}`)
	w := httptest.NewRecorder()

	f.ctrl.GuestSignup(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	if f.registrations.gotAttendee.Email != "guest@example.com" {
		t.Fatalf("guest email must be normalized, got %q", f.registrations.gotAttendee.Email)
	}
	<-f.notifications.confirmed
}

func TestRegistrationController_GuestSignup_RoleNotPublic(t *testing.T) {
	f := newRegistrationFixture()

	req := postJSON("/events/e1/guest-signup", `{"role_id":"r2","full_name":"Guest One","email":"guest@example.com"}`)
	w := httptest.NewRecorder()

	f.ctrl.GuestSignup(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
	if f.registrations.gotEvent != nil {
		t.Fatal("admission must not run for a role closed to the public")
	}
}

func TestRegistrationController_GuestSignup_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing role", `{"full_name":"G","email":"g@example.com"}`},
		{"missing name", `{"role_id":"r1","email":"g@example.com"}`},
		{"missing email", `{"role_id":"r1","full_name":"G"}`},
		{"bad email", `{"role_id":"r1","full_name":"G","email":"not-an-email"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationFixture()

			req := postJSON("/events/e1/guest-signup", tt.body)
			w := httptest.NewRecorder()

			f.ctrl.GuestSignup(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestRegistrationController_GuestSignup_UnknownRole(t *testing.T) {
	f := newRegistrationFixture()

	req := postJSON("/events/e1/guest-signup", `{"role_id":"nope","full_name":"G","email":"g@example.com"}`)
	w := httptest.NewRecorder()

	f.ctrl.GuestSignup(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestRegistrationController_Cancel(t *testing.T) {
	f := newRegistrationFixture()
	f.registrations.cancelResult = &domain.CancellationResult{RegistrationID: "reg-1"}

	req := postJSON("/events/e1/cancel", `{"role_id":"r1"}`)
	req = req.WithContext(middleware.SetUserID(req.Context(), "u1"))
	w := httptest.NewRecorder()

	f.ctrl.Cancel(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	<-f.notifications.cancelled
}

func TestRegistrationController_Cancel_NoActiveRegistration(t *testing.T) {
	f := newRegistrationFixture()
	f.registrations.err = domain.ErrNotFound

	req := postJSON("/events/e1/cancel", `{"role_id":"r1"}`)
	req = req.WithContext(middleware.SetUserID(req.Context(), "u1"))
	w := httptest.NewRecorder()

	f.ctrl.Cancel(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestRegistrationController_Occupancy(t *testing.T) {
	f := newRegistrationFixture()
	f.ctrl.Capacity = &stubCapacityCounter{occ: domain.Occupancy{Active: 2, Total: 2}}

	req := httptest.NewRequest(http.MethodGet, "/events/e1/occupancy", nil)
	req.SetPathValue("eventID", "e1")
	w := httptest.NewRecorder()

	f.ctrl.Occupancy(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var resp struct {
		Data []RoleOccupancy `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected one entry per role, got %d", len(resp.Data))
	}
	if !resp.Data[1].Full {
		t.Fatal("driver role with 2 of 2 seats taken must report full")
	}
}

func TestRegistrationController_ListRegistrations_Forbidden(t *testing.T) {
	f := newRegistrationFixture()
	f.ctrl.Roster = &stubRosterService{err: domain.ErrForbidden}

	req := httptest.NewRequest(http.MethodGet, "/events/e1/registrations", nil)
	req.SetPathValue("eventID", "e1")
	req = req.WithContext(middleware.SetUserID(req.Context(), "not-owner"))
	w := httptest.NewRecorder()

	f.ctrl.ListRegistrations(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestRegistrationController_ListRegistrations_Owner(t *testing.T) {
	f := newRegistrationFixture()
	f.ctrl.Roster = &stubRosterService{roster: &domain.EventRoster{
		Registrations: []*domain.Registration{{ID: "reg-1"}},
		Guests:        []*domain.GuestRegistration{},
	}}

	req := httptest.NewRequest(http.MethodGet, "/events/e1/registrations", nil)
	req.SetPathValue("eventID", "e1")
	req = req.WithContext(middleware.SetUserID(req.Context(), "owner-1"))
	w := httptest.NewRecorder()

	f.ctrl.ListRegistrations(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	resp := decodeResponse(t, w)
	if resp.Error != nil {
		t.Fatalf("expected no error, got %v", resp.Error)
	}
}
