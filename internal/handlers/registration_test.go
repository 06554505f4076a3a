package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/maplewood-arts/registration-api/internal/catalog"
	"github.com/maplewood-arts/registration-api/internal/models"
)

func registrationTestCatalog() *catalog.Catalog {
	return catalog.New(
		catalog.Activity{ID: "fall-dance", Name: "Fall Dance", Kind: catalog.KindClass, Cost: 50},
		catalog.Activity{ID: "pottery", Name: "Pottery", Kind: catalog.KindClass, Cost: 80},
	)
}

func TestHandleStudentDeduplicates(t *testing.T) {
	db := newTestDB(t)
	handler := NewRegistrationHandler(db, registrationTestCatalog())

	req := &StudentRequest{}
	req.Body.FirstName = "Maya"
	req.Body.LastName = "Chen"
	req.Body.Birthdate = "2014-03-09"
	req.Body.ActivityID = "Fall-Dance"

	first, err := handler.HandleStudent(context.Background(), req)
	if err != nil {
		t.Fatalf("first HandleStudent returned error: %v", err)
	}
	if first.Body.ActivityID != "fall-dance" {
		t.Errorf("expected lower-cased activity id, got %q", first.Body.ActivityID)
	}

	// Same student, different activity: the student row is reused.
	req.Body.ActivityID = "pottery"
	second, err := handler.HandleStudent(context.Background(), req)
	if err != nil {
		t.Fatalf("second HandleStudent returned error: %v", err)
	}
	if second.Body.StudentID != first.Body.StudentID {
		t.Errorf("expected student %d to be reused, got %d", first.Body.StudentID, second.Body.StudentID)
	}

	var students int64
	db.Model(&models.Student{}).Count(&students)
	if students != 1 {
		t.Errorf("expected 1 student, got %d", students)
	}
	var regs int64
	db.Model(&models.Registration{}).Count(&regs)
	if regs != 2 {
		t.Errorf("expected 2 registrations, got %d", regs)
	}
}

func TestHandleStudentPaidDuplicateConflicts(t *testing.T) {
	db := newTestDB(t)
	handler := NewRegistrationHandler(db, registrationTestCatalog())

	student := models.Student{Firstname: "Maya", Lastname: "Chen", DOB: "2014-03-09"}
	db.Create(&student)
	payment := models.Payment{TransactionID: "FREE-1", ShortCode: "AAAAAA"}
	db.Create(&payment)
	db.Create(&models.Registration{Activity: "fall-dance", StudentID: student.ID, PaymentID: &payment.ID})

	req := &StudentRequest{}
	req.Body.FirstName = "Maya"
	req.Body.LastName = "Chen"
	req.Body.Birthdate = "2014-03-09"
	req.Body.ActivityID = "fall-dance"

	_, err := handler.HandleStudent(context.Background(), req)
	assertStatus(t, err, http.StatusConflict)
}

func TestHandleStudentResumesUnpaidRegistration(t *testing.T) {
	db := newTestDB(t)
	handler := NewRegistrationHandler(db, registrationTestCatalog())

	req := &StudentRequest{}
	req.Body.FirstName = "Maya"
	req.Body.LastName = "Chen"
	req.Body.Birthdate = "2014-03-09"
	req.Body.ActivityID = "fall-dance"

	first, err := handler.HandleStudent(context.Background(), req)
	if err != nil {
		t.Fatalf("first HandleStudent returned error: %v", err)
	}

	second, err := handler.HandleStudent(context.Background(), req)
	if err != nil {
		t.Fatalf("second HandleStudent returned error: %v", err)
	}
	if !second.Body.RegistrationInProgress {
		t.Error("expected registrationInProgress to be set")
	}
	if second.Body.RegistrationID != first.Body.RegistrationID {
		t.Errorf("expected registration %d to be resumed, got %d", first.Body.RegistrationID, second.Body.RegistrationID)
	}

	var regs int64
	db.Model(&models.Registration{}).Count(&regs)
	if regs != 1 {
		t.Errorf("expected 1 registration, got %d", regs)
	}
}

func TestHandleStudentMissingFields(t *testing.T) {
	db := newTestDB(t)
	handler := NewRegistrationHandler(db, registrationTestCatalog())

	req := &StudentRequest{}
	req.Body.FirstName = "Maya"

	_, err := handler.HandleStudent(context.Background(), req)
	assertStatus(t, err, http.StatusBadRequest)
}

func TestHandleContactLinksAndDeduplicates(t *testing.T) {
	db := newTestDB(t)
	handler := NewRegistrationHandler(db, registrationTestCatalog())

	student := models.Student{Firstname: "Maya", Lastname: "Chen", DOB: "2014-03-09"}
	db.Create(&student)
	regA := models.Registration{Activity: "fall-dance", StudentID: student.ID}
	db.Create(&regA)
	regB := models.Registration{Activity: "pottery", StudentID: student.ID}
	db.Create(&regB)

	req := &ContactRequest{}
	req.Body.FirstName = "Wei"
	req.Body.LastName = "Chen"
	req.Body.Email = "wei@example.com"
	req.Body.Phone = "555-0100"
	req.Body.RegistrationID = regA.ID

	first, err := handler.HandleContact(context.Background(), req)
	if err != nil {
		t.Fatalf("first HandleContact returned error: %v", err)
	}

	req.Body.RegistrationID = regB.ID
	second, err := handler.HandleContact(context.Background(), req)
	if err != nil {
		t.Fatalf("second HandleContact returned error: %v", err)
	}
	if second.Body.ContactID != first.Body.ContactID {
		t.Errorf("expected contact %d to be reused, got %d", first.Body.ContactID, second.Body.ContactID)
	}

	var contacts int64
	db.Model(&models.Contact{}).Count(&contacts)
	if contacts != 1 {
		t.Errorf("expected 1 contact, got %d", contacts)
	}

	var reloaded models.Registration
	db.First(&reloaded, regA.ID)
	if reloaded.ContactID == nil || *reloaded.ContactID != first.Body.ContactID {
		t.Error("expected registration to be linked to the contact")
	}
}

func TestHandleContactUnknownRegistration(t *testing.T) {
	db := newTestDB(t)
	handler := NewRegistrationHandler(db, registrationTestCatalog())

	req := &ContactRequest{}
	req.Body.FirstName = "Wei"
	req.Body.LastName = "Chen"
	req.Body.Email = "wei@example.com"
	req.Body.RegistrationID = 999

	_, err := handler.HandleContact(context.Background(), req)
	assertStatus(t, err, http.StatusNotFound)
}

func TestHandleInfoCopiesCatalogCost(t *testing.T) {
	db := newTestDB(t)
	handler := NewRegistrationHandler(db, registrationTestCatalog())

	student := models.Student{Firstname: "Maya", Lastname: "Chen", DOB: "2014-03-09"}
	db.Create(&student)
	reg := models.Registration{Activity: "fall-dance", StudentID: student.ID}
	db.Create(&reg)

	req := &InfoRequest{}
	req.Body.RegistrationID = reg.ID
	req.Body.DonationAmount = 10
	req.Body.Note = "Allergic to latex"
	req.Body.TermsAgreement = true

	resp, err := handler.HandleInfo(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleInfo returned error: %v", err)
	}
	if resp.Body.Cost != 50 {
		t.Errorf("expected cost 50 from the catalog, got %v", resp.Body.Cost)
	}

	var reloaded models.Registration
	db.First(&reloaded, reg.ID)
	if !reloaded.Cost.Equal(decimalFromFloat(50)) {
		t.Errorf("expected stored cost 50, got %s", reloaded.Cost)
	}
	if !reloaded.Donation.Equal(decimalFromFloat(10)) {
		t.Errorf("expected stored donation 10, got %s", reloaded.Donation)
	}
	if !reloaded.TermsAgreement {
		t.Error("expected terms agreement to be recorded")
	}
	if reloaded.Note != "Allergic to latex" {
		t.Errorf("unexpected note %q", reloaded.Note)
	}
}

func TestHandleInfoRequiresTerms(t *testing.T) {
	db := newTestDB(t)
	handler := NewRegistrationHandler(db, registrationTestCatalog())

	student := models.Student{Firstname: "Maya", Lastname: "Chen", DOB: "2014-03-09"}
	db.Create(&student)
	reg := models.Registration{Activity: "fall-dance", StudentID: student.ID}
	db.Create(&reg)

	req := &InfoRequest{}
	req.Body.RegistrationID = reg.ID
	req.Body.TermsAgreement = false

	_, err := handler.HandleInfo(context.Background(), req)
	assertStatus(t, err, http.StatusBadRequest)
}
