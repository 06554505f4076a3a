package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maplewood-arts/registration-api/internal/auth"
)

type Handlers struct {
	Auth         *auth.AuthHandler
	Registration *RegistrationHandler
	Checkout     *CheckoutHandler
	Voucher      *VoucherHandler
	Payment      *PaymentHandler
	Status       *StatusHandler
	ContactForm  *ContactFormHandler
	Admin        *AdminHandler
	APIKey       *APIKeyHandler
}

func RegisterRoutes(r *chi.Mux, h Handlers) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	config := huma.DefaultConfig("Maplewood Arts Registration API", "1.0.0")
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"cookieAuth": {
			Type: "apiKey",
			In:   "cookie",
			Name: "auth_token",
		},
		"apiKey": {
			Type: "apiKey",
			In:   "header",
			Name: "X-API-Key",
		},
	}
	api := humachi.New(r, config)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	// Backstage login
	r.Get("/auth/login", h.Auth.HandleLogin)
	r.Get("/auth/callback", h.Auth.HandleCallback)
	huma.Get(api, "/me", h.Auth.HandleMe)

	// Public registration flow
	huma.Post(api, "/api/registration-student", h.Registration.HandleStudent)
	huma.Post(api, "/api/registration-contact", h.Registration.HandleContact)
	huma.Post(api, "/api/registration-info", h.Registration.HandleInfo)
	huma.Post(api, "/api/registration-details", h.Checkout.HandleDetails)
	huma.Post(api, "/api/validate-voucher", h.Voucher.HandleValidate)
	huma.Post(api, "/api/process-payment", h.Payment.HandleProcess)
	huma.Get(api, "/api/activity-status", h.Status.HandleGet)
	huma.Post(api, "/api/activity-status", h.Status.HandlePost)
	huma.Get(api, "/api/paypal-config", h.Payment.HandlePayPalConfig)
	huma.Post(api, "/api/contact", h.ContactForm.HandleSubmit)

	// Backstage operations
	secured := func(o *huma.Operation) {
		o.Security = []map[string][]string{{"cookieAuth": {}}, {"apiKey": {}}}
	}
	huma.Post(api, "/api/cancel-registration", h.Admin.HandleCancel, secured)
	huma.Post(api, "/api/send-rosters", h.Admin.HandleRosters, secured)
	huma.Post(api, "/api/send-reminders", h.Admin.HandleReminders, secured)
	huma.Post(api, "/api/keys", h.APIKey.HandleCreate, secured)
	huma.Get(api, "/api/keys", h.APIKey.HandleList, secured)
	huma.Delete(api, "/api/keys/{id}", h.APIKey.HandleDelete, secured)
}
