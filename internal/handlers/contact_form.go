package handlers

import (
	"context"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/maplewood-arts/registration-api/internal/config"
	"github.com/maplewood-arts/registration-api/internal/notifier"
)

// ContactFormHandler forwards public contact-form submissions to the office
// inbox. Replies go to the submitter via Reply-To.
type ContactFormHandler struct {
	mailer *notifier.EmailNotifier
	cfg    *config.Config
}

func NewContactFormHandler(mailer *notifier.EmailNotifier, cfg *config.Config) *ContactFormHandler {
	return &ContactFormHandler{mailer: mailer, cfg: cfg}
}

type ContactFormRequest struct {
	Body struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Message string `json:"message"`
	}
}

type ContactFormResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

func (h *ContactFormHandler) HandleSubmit(ctx context.Context, input *ContactFormRequest) (*ContactFormResponse, error) {
	b := input.Body
	if b.Name == "" || b.Email == "" || b.Message == "" {
		return nil, huma.Error400BadRequest("Name, email, and message are required")
	}
	if h.cfg.OfficeEmail == "" {
		return nil, huma.Error500InternalServerError("Office email is not configured")
	}

	subject := fmt.Sprintf("New Contact Form Submission from %s", b.Name)
	if err := h.mailer.SendWithReplyTo(ctx, h.cfg.OfficeEmail, "Office", b.Email, b.Name, subject, contactFormHTML(b.Name, b.Email, b.Message)); err != nil {
		log.Printf("Failed to send contact form message: %v", err)
		return nil, huma.Error500InternalServerError("Failed to send message")
	}

	res := &ContactFormResponse{}
	res.Body.Message = "Message sent successfully"
	return res, nil
}

func contactFormHTML(name, email, message string) string {
	body := strings.ReplaceAll(html.EscapeString(message), "\n", "<br>")
	return fmt.Sprintf(
		"<h2>New Contact Form Submission</h2><p><strong>Name:</strong> %s</p><p><strong>Email:</strong> %s</p><p><strong>Message:</strong></p><p>%s</p>",
		html.EscapeString(name),
		html.EscapeString(email),
		body,
	)
}
