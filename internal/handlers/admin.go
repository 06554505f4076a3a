package handlers

import (
	"context"
	"fmt"
	"html"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"

	"github.com/maplewood-arts/registration-api/internal/auth"
	"github.com/maplewood-arts/registration-api/internal/catalog"
	"github.com/maplewood-arts/registration-api/internal/config"
	"github.com/maplewood-arts/registration-api/internal/models"
	"github.com/maplewood-arts/registration-api/internal/notifier"
)

// AdminHandler serves the backstage operations: cancelling registrations and
// the two cron-triggered mailings (rosters to the office, reminders to
// families). All of them require a signed-in user or an API key.
type AdminHandler struct {
	db     *gorm.DB
	cat    *catalog.Catalog
	mailer *notifier.EmailNotifier
	auth   *auth.AuthHandler
	cfg    *config.Config
}

func NewAdminHandler(db *gorm.DB, cat *catalog.Catalog, mailer *notifier.EmailNotifier, authHandler *auth.AuthHandler, cfg *config.Config) *AdminHandler {
	return &AdminHandler{db: db, cat: cat, mailer: mailer, auth: authHandler, cfg: cfg}
}

type CancelRequest struct {
	auth.AuthInput
	Body struct {
		RegistrationID uint `json:"registrationId"`
	}
}

type CancelResponse struct {
	Body struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
}

// HandleCancel soft-cancels a registration. Cancelled rows stop counting
// against capacity immediately; the payment record, if any, is kept for the
// books.
func (h *AdminHandler) HandleCancel(ctx context.Context, input *CancelRequest) (*CancelResponse, error) {
	if _, err := h.auth.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if input.Body.RegistrationID == 0 {
		return nil, huma.Error400BadRequest("registrationId is required")
	}

	result := h.db.WithContext(ctx).Model(&models.Registration{}).
		Where("id = ? AND cancelled_at IS NULL", input.Body.RegistrationID).
		Update("cancelled_at", time.Now())
	if result.Error != nil {
		log.Printf("Failed to cancel registration %d: %v", input.Body.RegistrationID, result.Error)
		return nil, huma.Error500InternalServerError("Failed to cancel registration")
	}
	if result.RowsAffected == 0 {
		return nil, huma.Error404NotFound("Registration not found or already cancelled")
	}

	res := &CancelResponse{}
	res.Body.Success = true
	res.Body.Message = "Registration cancelled"
	return res, nil
}

type RostersRequest struct {
	auth.AuthInput
}

type RostersResponse struct {
	Body struct {
		Success    bool `json:"success"`
		Activities int  `json:"activities"`
		Students   int  `json:"students"`
	}
}

// HandleRosters mails the office one roster per activity that has at least
// one paid registration.
func (h *AdminHandler) HandleRosters(ctx context.Context, input *RostersRequest) (*RostersResponse, error) {
	if _, err := h.auth.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}
	if h.cfg.OfficeEmail == "" {
		return nil, huma.Error500InternalServerError("Office email is not configured")
	}

	var regs []models.Registration
	if err := h.db.WithContext(ctx).Preload("Student").Preload("Contact").
		Where("payment_id IS NOT NULL AND cancelled_at IS NULL").
		Order("activity, id").
		Find(&regs).Error; err != nil {
		log.Printf("Failed to load roster registrations: %v", err)
		return nil, huma.Error500InternalServerError("Failed to build rosters")
	}

	byActivity := make(map[string][]models.Registration)
	for _, r := range regs {
		key := strings.ToLower(r.Activity)
		byActivity[key] = append(byActivity[key], r)
	}
	activityIDs := make([]string, 0, len(byActivity))
	for id := range byActivity {
		activityIDs = append(activityIDs, id)
	}
	sort.Strings(activityIDs)

	res := &RostersResponse{}
	for _, activityID := range activityIDs {
		rows := byActivity[activityID]
		subject := fmt.Sprintf("Roster: %s (%d registered)", h.cat.Name(activityID), len(rows))
		if err := h.mailer.Send(ctx, h.cfg.OfficeEmail, "Office", subject, rosterHTML(h.cat.Name(activityID), rows)); err != nil {
			log.Printf("Failed to send roster for %s: %v", activityID, err)
			return nil, huma.Error500InternalServerError("Failed to send rosters")
		}
		res.Body.Activities++
		res.Body.Students += len(rows)
	}
	res.Body.Success = true
	return res, nil
}

func rosterHTML(activityName string, regs []models.Registration) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("<h2>%s</h2>", html.EscapeString(activityName)))
	b.WriteString("<table border=\"1\" cellpadding=\"4\"><tr><th>#</th><th>Student</th><th>Contact</th><th>Phone</th><th>Note</th></tr>")
	for i, r := range regs {
		contactName := ""
		contactPhone := ""
		if r.Contact != nil {
			contactName = r.Contact.Firstname + " " + r.Contact.Lastname
			contactPhone = r.Contact.Phone
		}
		b.WriteString(fmt.Sprintf("<tr><td>%d</td><td>%s %s</td><td>%s</td><td>%s</td><td>%s</td></tr>",
			i+1,
			html.EscapeString(r.Student.Firstname),
			html.EscapeString(r.Student.Lastname),
			html.EscapeString(contactName),
			html.EscapeString(contactPhone),
			html.EscapeString(r.Note),
		))
	}
	b.WriteString("</table>")
	return b.String()
}

type RemindersRequest struct {
	auth.AuthInput
}

type RemindersResponse struct {
	Body struct {
		Success bool `json:"success"`
		Sent    int  `json:"sent"`
		Skipped int  `json:"skipped"`
	}
}

// HandleReminders mails the contact of every paid registration for an
// activity starting within the configured lead window, once per
// registration. Rows without a contact email are counted as skipped.
func (h *AdminHandler) HandleReminders(ctx context.Context, input *RemindersRequest) (*RemindersResponse, error) {
	if _, err := h.auth.Authorize(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	now := time.Now()
	horizon := now.AddDate(0, 0, h.cfg.ReminderLeadDays)

	var due []string
	for _, act := range h.cat.All() {
		if act.Start == "" {
			continue
		}
		start, err := time.Parse("2006-01-02", act.Start)
		if err != nil {
			log.Printf("Activity %s has unparseable start date %q", act.ID, act.Start)
			continue
		}
		if start.After(now.AddDate(0, 0, -1)) && start.Before(horizon) {
			due = append(due, act.ID)
		}
	}
	res := &RemindersResponse{}
	if len(due) == 0 {
		res.Body.Success = true
		return res, nil
	}
	sort.Strings(due)

	var regs []models.Registration
	if err := h.db.WithContext(ctx).Preload("Student").Preload("Contact").
		Where("LOWER(activity) IN ?", due).
		Where("payment_id IS NOT NULL AND cancelled_at IS NULL AND reminded_at IS NULL").
		Order("id").
		Find(&regs).Error; err != nil {
		log.Printf("Failed to load reminder registrations: %v", err)
		return nil, huma.Error500InternalServerError("Failed to send reminders")
	}

	for _, r := range regs {
		if r.Contact == nil || r.Contact.Email == "" {
			res.Body.Skipped++
			continue
		}
		act, _ := h.cat.Get(r.Activity)
		subject := fmt.Sprintf("Reminder: %s starts %s", h.cat.Name(r.Activity), act.Start)
		body := reminderHTML(r, h.cat.Name(r.Activity), act.Start)
		if err := h.mailer.Send(ctx, r.Contact.Email, r.Contact.Firstname+" "+r.Contact.Lastname, subject, body); err != nil {
			log.Printf("Failed to send reminder for registration %d: %v", r.ID, err)
			res.Body.Skipped++
			continue
		}
		if err := h.db.WithContext(ctx).Model(&models.Registration{}).
			Where("id = ?", r.ID).
			Update("reminded_at", time.Now()).Error; err != nil {
			log.Printf("Failed to stamp reminder for registration %d: %v", r.ID, err)
		}
		res.Body.Sent++
	}
	res.Body.Success = true
	return res, nil
}

func reminderHTML(r models.Registration, activityName, start string) string {
	return fmt.Sprintf(
		"<p>Hi %s,</p><p>This is a reminder that <strong>%s</strong> starts on %s. %s %s is registered.</p><p>See you there!</p>",
		html.EscapeString(r.Contact.Firstname),
		html.EscapeString(activityName),
		html.EscapeString(start),
		html.EscapeString(r.Student.Firstname),
		html.EscapeString(r.Student.Lastname),
	)
}
