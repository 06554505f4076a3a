package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/maplewood-arts/registration-api/internal/auth"
	"github.com/maplewood-arts/registration-api/internal/catalog"
	"github.com/maplewood-arts/registration-api/internal/config"
	"github.com/maplewood-arts/registration-api/internal/database"
	"github.com/maplewood-arts/registration-api/internal/handlers"
	"github.com/maplewood-arts/registration-api/internal/notifier"
	"github.com/maplewood-arts/registration-api/internal/payments"
	"github.com/maplewood-arts/registration-api/internal/reservation"
)

func main() {
	// Load Configuration
	cfg := config.LoadConfig()

	// Connect to Database
	db := database.Connect(cfg)

	// Load the activity catalog
	cat, err := catalog.Load(cfg.ActivitiesPath)
	if err != nil {
		log.Fatalf("Failed to load activities from %s: %v", cfg.ActivitiesPath, err)
	}

	// Confirmation channels: email to the family, Discord alert to staff.
	mailer := notifier.NewEmailNotifier(cfg.BrevoAPIKey, cfg.SenderEmail, cfg.SenderName)
	channels := []notifier.Notifier{mailer}
	if cfg.DiscordBotToken != "" {
		discordNotifier, err := notifier.NewDiscordNotifier(cfg.DiscordBotToken, cfg.DiscordChannelID)
		if err != nil {
			log.Printf("Discord notifier not initialized: %v", err)
		} else {
			channels = append(channels, discordNotifier)
		}
	}

	authHandler := auth.NewAuthHandler(cfg, db)
	engine := reservation.NewEngine(db, cat)
	paymentService := payments.NewService(db, cat, notifier.Multi(channels))

	h := handlers.Handlers{
		Auth:         authHandler,
		Registration: handlers.NewRegistrationHandler(db, cat),
		Checkout:     handlers.NewCheckoutHandler(engine),
		Voucher:      handlers.NewVoucherHandler(db),
		Payment:      handlers.NewPaymentHandler(paymentService, cfg),
		Status:       handlers.NewStatusHandler(engine, cat),
		ContactForm:  handlers.NewContactFormHandler(mailer, cfg),
		Admin:        handlers.NewAdminHandler(db, cat, mailer, authHandler, cfg),
		APIKey:       handlers.NewAPIKeyHandler(db, authHandler),
	}

	// Initialize Router
	r := chi.NewRouter()

	// Register Routes
	handlers.RegisterRoutes(r, h)

	// Start Server
	log.Printf("Starting server on port %s", cfg.Port)
	if err := http.ListenAndServe(fmt.Sprintf(":%s", cfg.Port), r); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
