package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"communityhub/internal/delivery/http/helpers"
	"communityhub/internal/delivery/http/middleware"
	"communityhub/internal/domain"
)

// SignupRequest is the request body for POST /events/{eventID}/signup.
// The attendee's email comes from their account; name and phone override the
// profile values for this registration only.
type SignupRequest struct {
	RoleID string `json:"role_id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
}

// Validate implements Validator.
func (s SignupRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(s.RoleID) == "" {
		errs = append(errs, "role_id is required")
	}
	return errs
}

// GuestSignupRequest is the request body for POST /events/{eventID}/guest-signup.
type GuestSignupRequest struct {
	RoleID   string `json:"role_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Validate implements Validator. Email presence and shape are checked here,
// before the admission core runs.
func (g GuestSignupRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(g.RoleID) == "" {
		errs = append(errs, "role_id is required")
	}
	if strings.TrimSpace(g.FullName) == "" {
		errs = append(errs, "full_name is required")
	}
	email := strings.TrimSpace(strings.ToLower(g.Email))
	if email == "" {
		errs = append(errs, "email is required")
	} else if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	return errs
}

// CancelRequest is the request body for POST /events/{eventID}/cancel.
type CancelRequest struct {
	RoleID string `json:"role_id"`
}

// Validate implements Validator.
func (c CancelRequest) Validate() []string {
	if strings.TrimSpace(c.RoleID) == "" {
		return []string{"role_id is required"}
	}
	return nil
}

// RoleOccupancy is one entry in the occupancy response.
type RoleOccupancy struct {
	RoleID          string           `json:"role_id"`
	RoleName        string           `json:"role_name"`
	MaxParticipants int              `json:"max_participants"`
	Occupancy       domain.Occupancy `json:"occupancy"`
	Full            bool             `json:"full"`
}

type RegistrationController struct {
	Logger        *slog.Logger
	Events        domain.EventService
	Users         domain.UserService
	Registrations domain.RegistrationService
	Notifications domain.NotificationService
	Capacity      domain.CapacityCounter
	Roster        domain.RosterService
}

func NewRegistrationController(
	logger *slog.Logger,
	events domain.EventService,
	users domain.UserService,
	registrations domain.RegistrationService,
	notifications domain.NotificationService,
	capacity domain.CapacityCounter,
	roster domain.RosterService,
) *RegistrationController {
	return &RegistrationController{
		Logger:        logger,
		Events:        events,
		Users:         users,
		Registrations: registrations,
		Notifications: notifications,
		Capacity:      capacity,
		Roster:        roster,
	}
}

// Signup godoc
// @Summary Sign up for an event role
// @Description Registers the authenticated user for a role in the event. A repeat signup for the same role returns 200 with the existing registration (duplicate: true). Returns 409 role_full when the role is at capacity and 409 busy when the registration lock could not be acquired in time (retry).
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body SignupRequest true "Role to sign up for"
// @Success 200 {object} helpers.APIResponse "data contains the registration result (duplicate or limit reached)"
// @Success 201 {object} helpers.APIResponse "data contains the registration result"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (event or role)"
// @Failure 409 {object} helpers.APIResponse "error.code: role_full or busy"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/signup [post]
func (c *RegistrationController) Signup(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req SignupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	user, err := c.Users.GetByID(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	attendee := domain.Attendee{
		Name:  req.Name,
		Email: user.Email,
		Phone: req.Phone,
	}
	c.register(w, r, eventID, req.RoleID, attendee)
}

// GuestSignup godoc
// @Summary Sign up for an event role as a guest
// @Description Registers an email-only guest for a role in the event. No account required. Only roles marked open_to_public accept guests. A repeat signup for the same role returns 200 with the existing registration (duplicate: true).
// @Tags registrations
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param body body GuestSignupRequest true "Guest details and role"
// @Success 200 {object} helpers.APIResponse "data contains the registration result (duplicate or limit reached)"
// @Success 201 {object} helpers.APIResponse "data contains the registration result"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (role not open to public)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (event or role)"
// @Failure 409 {object} helpers.APIResponse "error.code: role_full or busy"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/guest-signup [post]
func (c *RegistrationController) GuestSignup(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req GuestSignupRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	event, err := c.Events.GetEventByID(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	role := event.FindRole(req.RoleID)
	if role == nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "role not found")
		return
	}
	if !role.OpenToPublic {
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "role is not open to public sign-up")
		return
	}
	attendee := domain.Attendee{
		Name:  req.FullName,
		Email: strings.TrimSpace(strings.ToLower(req.Email)),
		Phone: req.Phone,
	}
	c.admit(w, r, event, role, attendee)
}

// register loads the event and delegates to admit. Shared by the
// authenticated signup path.
func (c *RegistrationController) register(w http.ResponseWriter, r *http.Request, eventID, roleID string, attendee domain.Attendee) {
	event, err := c.Events.GetEventByID(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	role := event.FindRole(roleID)
	if role == nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "role not found")
		return
	}
	c.admit(w, r, event, role, attendee)
}

// admit runs the admission core and maps its outcomes to HTTP responses.
// Notification dispatch happens after the response status is decided and is
// detached from the request context so client disconnects don't cancel it.
func (c *RegistrationController) admit(w http.ResponseWriter, r *http.Request, event *domain.Event, role *domain.Role, attendee domain.Attendee) {
	result, err := c.Registrations.Register(r.Context(), event, role.ID, attendee)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoleAtCapacity):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeRoleFull, "role is at capacity")
		case errors.Is(err, domain.ErrLockTimeout):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeBusy, "registration is busy, try again")
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event or role not found")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}

	go c.Notifications.RegistrationConfirmed(context.WithoutCancel(r.Context()), event, role, attendee, result)

	status := http.StatusCreated
	if result.Duplicate || result.LimitReached {
		status = http.StatusOK
	}
	helpers.WriteJSONSuccess(w, status, result)
}

// Cancel godoc
// @Summary Cancel a registration
// @Description Cancels the authenticated user's active registration for a role. Works for registrations made as a guest with the same email before the account existed.
// @Tags registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body CancelRequest true "Role to cancel"
// @Success 200 {object} helpers.APIResponse "data contains the cancellation result"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found (no active registration)"
// @Failure 409 {object} helpers.APIResponse "error.code: busy"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/cancel [post]
func (c *RegistrationController) Cancel(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	var req CancelRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	user, err := c.Users.GetByID(r.Context(), userID)
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	event, err := c.Events.GetEventByID(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	role := event.FindRole(req.RoleID)
	if role == nil {
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "role not found")
		return
	}
	attendee := domain.Attendee{Name: user.Name, Email: user.Email}
	result, err := c.Registrations.Cancel(r.Context(), event, role.ID, attendee)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "no active registration for this role")
		case errors.Is(err, domain.ErrLockTimeout):
			helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeBusy, "registration is busy, try again")
		default:
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		}
		return
	}

	go c.Notifications.RegistrationCancelled(context.WithoutCancel(r.Context()), event, role, attendee, result)

	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// Occupancy godoc
// @Summary Get role occupancy for an event
// @Description Returns the current occupancy for every role in the event. Public.
// @Tags registrations
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data is an array of per-role occupancy"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/occupancy [get]
func (c *RegistrationController) Occupancy(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	event, err := c.Events.GetEventByID(r.Context(), eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	out := make([]RoleOccupancy, 0, len(event.Roles))
	for _, role := range event.Roles {
		occ, err := c.Capacity.RoleOccupancy(r.Context(), event.ID, role.ID)
		if err != nil {
			c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
			helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
			return
		}
		out = append(out, RoleOccupancy{
			RoleID:          role.ID,
			RoleName:        role.Name,
			MaxParticipants: role.MaxParticipants,
			Occupancy:       occ,
			Full:            c.Capacity.IsRoleFull(occ, role.MaxParticipants),
		})
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, out)
}

// ListRegistrations godoc
// @Summary List an event's participants
// @Description Returns all registrations for the event, users and guests. Only the event owner can list.
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data contains registrations and guests"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden (not owner)"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/registrations [get]
func (c *RegistrationController) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if eventID == "" {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "missing eventID")
		return
	}
	ownerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}
	roster, err := c.Roster.EventRoster(r.Context(), eventID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "event not found")
			return
		}
		if errors.Is(err, domain.ErrForbidden) {
			helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, roster)
}
