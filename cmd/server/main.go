package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	_ "github.com/lib/pq"

	"communityhub/config"
	_ "communityhub/docs"
	"communityhub/internal/adapters/auth"
	"communityhub/internal/adapters/email"
	"communityhub/internal/adapters/lock"
	"communityhub/internal/adapters/realtime"
	delivery "communityhub/internal/delivery/http"
	"communityhub/internal/delivery/http/controllers"
	"communityhub/internal/repository/postgres"
	"communityhub/internal/services"
)

// @title CommunityHub API
// @version 1.0
// @description Event sign-up and community management backend.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Environment)

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	regRepo := postgres.NewRegistrationRepository(db)
	guestRepo := postgres.NewGuestRegistrationRepository(db)
	messageRepo := postgres.NewSystemMessageRepository(db)

	// Adapters
	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	tokenIssuer, tokenVerifier := auth.NewJWT(cfg.JWTSecret)
	locker := lock.NewPostgres(db)
	hub := realtime.NewHub(logger)
	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.MailerDriver,
		FromAddress: cfg.MailFrom,
		FromName:    "CommunityHub",
		SES: email.SESConfig{
			Region:          cfg.SESRegion,
			AccessKeyID:     cfg.SESAccessKeyID,
			SecretAccessKey: cfg.SESSecretAccessKey,
		},
	}, logger)
	if err != nil {
		logger.Error("create mailer", "err", err)
		os.Exit(1)
	}

	// Services
	userService := services.NewUserService(userRepo, hasher, tokenIssuer, cfg.JWTExpiry)
	eventService := services.NewEventService(eventRepo, 10*time.Second)
	capacityService := services.NewCapacityService(regRepo, guestRepo)
	limitPolicy := services.NewRoleLimitPolicy()
	registrationService := services.NewRegistrationService(
		userRepo, regRepo, guestRepo, capacityService, limitPolicy, locker, cfg.RegistrationLockTimeout,
	)
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer())
	notificationService := services.NewNotificationService(userRepo, messageRepo, hub, emailService, logger)
	rosterService := services.NewRosterService(eventRepo, regRepo, guestRepo)

	// Controllers
	authController := controllers.NewAuthController(logger, userService)
	eventController := controllers.NewEventController(logger, eventService)
	registrationController := controllers.NewRegistrationController(
		logger, eventService, userService, registrationService, notificationService, capacityService, rosterService,
	)
	messageController := controllers.NewMessageController(logger, notificationService)

	router := delivery.NewRouter(
		logger, tokenVerifier,
		authController, eventController, registrationController, messageController,
		hub,
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
