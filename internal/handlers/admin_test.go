package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maplewood-arts/registration-api/internal/auth"
	"github.com/maplewood-arts/registration-api/internal/catalog"
	"github.com/maplewood-arts/registration-api/internal/config"
	"github.com/maplewood-arts/registration-api/internal/models"
	"github.com/maplewood-arts/registration-api/internal/notifier"
	"gorm.io/gorm"
)

func newAdminHandler(t *testing.T, cat *catalog.Catalog, cfg *config.Config, mailer *notifier.EmailNotifier) (*AdminHandler, *gorm.DB, string) {
	t.Helper()
	db := newTestDB(t)

	if cfg == nil {
		cfg = &config.Config{}
	}
	cfg.JWTSecret = "test-secret"

	user := models.User{SubjectID: "42", Username: "staff"}
	db.Create(&user)
	apiKey := models.APIKey{UserID: user.ID, Key: "cron-key", Name: "cron"}
	db.Create(&apiKey)

	authHandler := auth.NewAuthHandler(cfg, db)
	handler := NewAdminHandler(db, cat, mailer, authHandler, cfg)
	return handler, db, apiKey.Key
}

func TestHandleCancel(t *testing.T) {
	handler, db, key := newAdminHandler(t, catalog.New(), nil, nil)

	student := models.Student{Firstname: "Maya", Lastname: "Chen", DOB: "2014-03-09"}
	db.Create(&student)
	reg := models.Registration{Activity: "pottery", StudentID: student.ID}
	db.Create(&reg)

	req := &CancelRequest{}
	req.APIKey = key
	req.Body.RegistrationID = reg.ID

	resp, err := handler.HandleCancel(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleCancel returned error: %v", err)
	}
	if !resp.Body.Success {
		t.Error("expected success")
	}

	var reloaded models.Registration
	db.First(&reloaded, reg.ID)
	if reloaded.CancelledAt == nil {
		t.Fatal("expected cancelled_at to be set")
	}

	// Cancelling again is a 404, not a double cancel.
	_, err = handler.HandleCancel(context.Background(), req)
	assertStatus(t, err, http.StatusNotFound)
}

func TestHandleCancelUnauthorized(t *testing.T) {
	handler, _, _ := newAdminHandler(t, catalog.New(), nil, nil)

	req := &CancelRequest{}
	req.Body.RegistrationID = 1

	_, err := handler.HandleCancel(context.Background(), req)
	assertStatus(t, err, http.StatusUnauthorized)
}

func TestHandleRosters(t *testing.T) {
	var sent int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	cat := catalog.New(
		catalog.Activity{ID: "pottery", Name: "Pottery", Kind: catalog.KindClass},
		catalog.Activity{ID: "fall-dance", Name: "Fall Dance", Kind: catalog.KindClass},
	)
	mailer := notifier.NewEmailNotifier("key", "noreply@example.com", "Test").WithEndpoint(srv.URL)
	handler, db, key := newAdminHandler(t, cat, &config.Config{OfficeEmail: "office@example.com"}, mailer)

	student := models.Student{Firstname: "Maya", Lastname: "Chen", DOB: "2014-03-09"}
	db.Create(&student)
	payment := models.Payment{TransactionID: "CHECK-1", ShortCode: "AAAAAA"}
	db.Create(&payment)
	db.Create(&models.Registration{Activity: "pottery", StudentID: student.ID, PaymentID: &payment.ID})
	// Unpaid and cancelled rows stay off the roster.
	db.Create(&models.Registration{Activity: "fall-dance", StudentID: student.ID})

	req := &RostersRequest{}
	req.APIKey = key

	resp, err := handler.HandleRosters(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleRosters returned error: %v", err)
	}
	if resp.Body.Activities != 1 {
		t.Errorf("expected 1 roster, got %d", resp.Body.Activities)
	}
	if resp.Body.Students != 1 {
		t.Errorf("expected 1 student, got %d", resp.Body.Students)
	}
	if sent != 1 {
		t.Errorf("expected 1 email sent, got %d", sent)
	}
}

func TestHandleRemindersStampsOnce(t *testing.T) {
	var sent int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	cat := catalog.New(catalog.Activity{ID: "pottery", Name: "Pottery", Kind: catalog.KindClass, Start: tomorrow})
	mailer := notifier.NewEmailNotifier("key", "noreply@example.com", "Test").WithEndpoint(srv.URL)
	handler, db, key := newAdminHandler(t, cat, &config.Config{ReminderLeadDays: 3}, mailer)

	student := models.Student{Firstname: "Maya", Lastname: "Chen", DOB: "2014-03-09"}
	db.Create(&student)
	contact := models.Contact{Firstname: "Wei", Lastname: "Chen", Email: "wei@example.com"}
	db.Create(&contact)
	payment := models.Payment{TransactionID: "CHECK-1", ShortCode: "AAAAAA"}
	db.Create(&payment)
	db.Create(&models.Registration{
		Activity:  "pottery",
		StudentID: student.ID,
		ContactID: &contact.ID,
		PaymentID: &payment.ID,
	})

	req := &RemindersRequest{}
	req.APIKey = key

	resp, err := handler.HandleReminders(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleReminders returned error: %v", err)
	}
	if resp.Body.Sent != 1 {
		t.Errorf("expected 1 reminder sent, got %d", resp.Body.Sent)
	}
	if sent != 1 {
		t.Errorf("expected 1 email, got %d", sent)
	}

	var reloaded models.Registration
	db.First(&reloaded)
	if reloaded.RemindedAt == nil {
		t.Fatal("expected reminded_at to be stamped")
	}

	// A second run finds nothing to send.
	resp, err = handler.HandleReminders(context.Background(), req)
	if err != nil {
		t.Fatalf("second HandleReminders returned error: %v", err)
	}
	if resp.Body.Sent != 0 {
		t.Errorf("expected no reminders on second run, got %d", resp.Body.Sent)
	}
	if sent != 1 {
		t.Errorf("expected no further emails, got %d total", sent)
	}
}

func TestHandleRemindersOutsideWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no email should be sent")
	}))
	defer srv.Close()

	farOut := time.Now().AddDate(0, 0, 30).Format("2006-01-02")
	cat := catalog.New(catalog.Activity{ID: "pottery", Name: "Pottery", Kind: catalog.KindClass, Start: farOut})
	mailer := notifier.NewEmailNotifier("key", "noreply@example.com", "Test").WithEndpoint(srv.URL)
	handler, db, key := newAdminHandler(t, cat, &config.Config{ReminderLeadDays: 3}, mailer)

	student := models.Student{Firstname: "Maya", Lastname: "Chen", DOB: "2014-03-09"}
	db.Create(&student)
	payment := models.Payment{TransactionID: "CHECK-1", ShortCode: "AAAAAA"}
	db.Create(&payment)
	db.Create(&models.Registration{Activity: "pottery", StudentID: student.ID, PaymentID: &payment.ID})

	req := &RemindersRequest{}
	req.APIKey = key

	resp, err := handler.HandleReminders(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleReminders returned error: %v", err)
	}
	if resp.Body.Sent != 0 {
		t.Errorf("expected nothing sent, got %d", resp.Body.Sent)
	}
}
