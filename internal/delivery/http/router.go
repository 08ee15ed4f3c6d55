package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"communityhub/internal/adapters/realtime"
	"communityhub/internal/delivery/http/controllers"
	"communityhub/internal/delivery/http/middleware"
	"communityhub/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(
	logger *slog.Logger,
	verifier domain.TokenVerifier,
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	registrationController *controllers.RegistrationController,
	messageController *controllers.MessageController,
	hub *realtime.Hub,
) http.Handler {
	mux := http.NewServeMux()
	authed := middleware.RequireAuth(verifier, logger)

	// Auth
	mux.HandleFunc("POST /auth/signup", authController.SignUp)
	mux.HandleFunc("POST /auth/login", authController.Login)
	mux.HandleFunc("GET /me", authed(authController.Me))

	// Events
	mux.HandleFunc("POST /events", authed(eventController.CreateEvent))
	mux.HandleFunc("GET /events/me", authed(eventController.ListMyEvents))
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEventByID)
	mux.HandleFunc("PATCH /events/{eventID}", authed(eventController.UpdateEvent))
	mux.HandleFunc("DELETE /events/{eventID}", authed(eventController.DeleteEvent))

	// Registrations
	mux.HandleFunc("POST /events/{eventID}/signup", authed(registrationController.Signup))
	mux.HandleFunc("POST /events/{eventID}/guest-signup", registrationController.GuestSignup)
	mux.HandleFunc("POST /events/{eventID}/cancel", authed(registrationController.Cancel))
	mux.HandleFunc("GET /events/{eventID}/occupancy", registrationController.Occupancy)
	mux.HandleFunc("GET /events/{eventID}/registrations", authed(registrationController.ListRegistrations))

	// System messages
	mux.HandleFunc("GET /me/messages", authed(messageController.ListMyMessages))
	mux.HandleFunc("POST /me/messages/{messageID}/read", authed(messageController.MarkMessageRead))

	// Websocket
	mux.Handle("GET /ws", hub.Handler())

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.LoggingMiddleware(logger, mux)
}
