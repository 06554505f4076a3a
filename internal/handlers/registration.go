package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/maplewood-arts/registration-api/internal/catalog"
	"github.com/maplewood-arts/registration-api/internal/models"
)

// RegistrationHandler covers the three public steps that happen before
// checkout: naming the student, naming the contact, and confirming the
// details (answer, donation, terms).
type RegistrationHandler struct {
	db  *gorm.DB
	cat *catalog.Catalog
}

func NewRegistrationHandler(db *gorm.DB, cat *catalog.Catalog) *RegistrationHandler {
	return &RegistrationHandler{db: db, cat: cat}
}

type StudentRequest struct {
	Body struct {
		FirstName  string `json:"firstName" doc:"Student first name"`
		LastName   string `json:"lastName" doc:"Student last name"`
		Birthdate  string `json:"birthdate" doc:"Student date of birth, YYYY-MM-DD"`
		ActivityID string `json:"activityId" doc:"Activity to register for"`
	}
}

type StudentResponse struct {
	Body struct {
		Message                string `json:"message"`
		StudentID              uint   `json:"studentId"`
		RegistrationID         uint   `json:"registrationId"`
		ActivityID             string `json:"activityId"`
		RegistrationInProgress bool   `json:"registrationInProgress,omitempty"`
	}
}

// HandleStudent resolves the student by the (firstname, lastname, dob) triple
// and creates the registration row. A paid duplicate is a conflict; an
// unpaid one is handed back so the client can resume checkout.
func (h *RegistrationHandler) HandleStudent(ctx context.Context, input *StudentRequest) (*StudentResponse, error) {
	b := input.Body
	if b.FirstName == "" || b.LastName == "" || b.Birthdate == "" || b.ActivityID == "" {
		return nil, huma.Error400BadRequest("firstName, lastName, birthdate and activityId are required")
	}

	activityID := strings.ToLower(b.ActivityID)
	res := &StudentResponse{}

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student models.Student
		if err := tx.Where(models.Student{
			Firstname: b.FirstName,
			Lastname:  b.LastName,
			DOB:       b.Birthdate,
		}).FirstOrCreate(&student).Error; err != nil {
			return err
		}

		var existing models.Registration
		err := tx.Where("activity = ? AND student_id = ?", activityID, student.ID).First(&existing).Error
		switch {
		case err == nil:
			if existing.PaymentID != nil {
				return huma.Error409Conflict("Student already registered for this activity")
			}
			res.Body.Message = "Registration in progress"
			res.Body.RegistrationInProgress = true
			res.Body.StudentID = student.ID
			res.Body.RegistrationID = existing.ID
			res.Body.ActivityID = activityID
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		reg := models.Registration{Activity: activityID, StudentID: student.ID}
		if err := tx.Create(&reg).Error; err != nil {
			return err
		}

		res.Body.Message = "Student and registration saved successfully"
		res.Body.StudentID = student.ID
		res.Body.RegistrationID = reg.ID
		res.Body.ActivityID = activityID
		return nil
	})
	if err != nil {
		var statusErr huma.StatusError
		if errors.As(err, &statusErr) {
			return nil, err
		}
		return nil, huma.Error500InternalServerError("Failed to create registration")
	}
	return res, nil
}

type ContactRequest struct {
	Body struct {
		FirstName      string `json:"firstName"`
		LastName       string `json:"lastName"`
		Email          string `json:"email"`
		Phone          string `json:"phone,omitempty"`
		Address        string `json:"address,omitempty"`
		City           string `json:"city,omitempty"`
		State          string `json:"state,omitempty"`
		Zip            string `json:"zip,omitempty"`
		RegistrationID uint   `json:"registrationId"`
	}
}

type ContactResponse struct {
	Body struct {
		Message   string `json:"message"`
		ContactID uint   `json:"contactId"`
	}
}

// HandleContact resolves the contact by (firstname, lastname, email) and
// links it to the registration.
func (h *RegistrationHandler) HandleContact(ctx context.Context, input *ContactRequest) (*ContactResponse, error) {
	b := input.Body
	if b.FirstName == "" || b.LastName == "" || b.Email == "" || b.RegistrationID == 0 {
		return nil, huma.Error400BadRequest("firstName, lastName, email and registrationId are required")
	}

	res := &ContactResponse{}
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var contact models.Contact
		if err := tx.Where(models.Contact{
			Firstname: b.FirstName,
			Lastname:  b.LastName,
			Email:     b.Email,
		}).Attrs(models.Contact{
			Phone:   b.Phone,
			Address: b.Address,
			City:    b.City,
			State:   b.State,
			Zip:     b.Zip,
		}).FirstOrCreate(&contact).Error; err != nil {
			return err
		}

		result := tx.Model(&models.Registration{}).
			Where("id = ?", b.RegistrationID).
			Update("contact_id", contact.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return huma.Error404NotFound("Registration not found")
		}

		res.Body.Message = "Contact saved successfully"
		res.Body.ContactID = contact.ID
		return nil
	})
	if err != nil {
		var statusErr huma.StatusError
		if errors.As(err, &statusErr) {
			return nil, err
		}
		return nil, huma.Error500InternalServerError("Failed to save contact")
	}
	return res, nil
}

type InfoRequest struct {
	Body struct {
		RegistrationID uint    `json:"registrationId"`
		Answer         string  `json:"answer,omitempty"`
		DonationAmount float64 `json:"donationAmount,omitempty"`
		Note           string  `json:"note,omitempty"`
		TermsAgreement bool    `json:"termsAgreement"`
	}
}

type InfoResponse struct {
	Body struct {
		Message string  `json:"message"`
		Cost    float64 `json:"cost"`
	}
}

// HandleInfo records the answer/donation/note step. The activity's cost is
// copied from the catalog onto the registration here; the client never
// supplies it.
func (h *RegistrationHandler) HandleInfo(ctx context.Context, input *InfoRequest) (*InfoResponse, error) {
	b := input.Body
	if b.RegistrationID == 0 {
		return nil, huma.Error400BadRequest("Registration ID is required")
	}
	if !b.TermsAgreement {
		return nil, huma.Error400BadRequest("Terms agreement is required")
	}

	var reg models.Registration
	if err := h.db.WithContext(ctx).First(&reg, b.RegistrationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, huma.Error404NotFound("Registration not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load registration")
	}

	act, ok := h.cat.Get(reg.Activity)
	if !ok {
		return nil, huma.Error404NotFound("Activity not found")
	}

	cost := decimal.NewFromFloat(act.Cost)
	donation := decimal.NewFromFloat(b.DonationAmount)
	updates := map[string]any{
		"cost":            cost,
		"donation":        donation,
		"note":            b.Note,
		"answer":          b.Answer,
		"terms_agreement": true,
	}
	if err := h.db.WithContext(ctx).Model(&reg).Updates(updates).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to update registration")
	}

	res := &InfoResponse{}
	res.Body.Message = "Registration details saved"
	res.Body.Cost = act.Cost
	return res, nil
}
