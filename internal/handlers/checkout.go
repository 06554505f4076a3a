package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/maplewood-arts/registration-api/internal/reservation"
)

// CheckoutHandler exposes the reservation step: the client names the
// registrations it wants to pay for and gets back which of them hold a seat.
type CheckoutHandler struct {
	engine *reservation.Engine
}

func NewCheckoutHandler(engine *reservation.Engine) *CheckoutHandler {
	return &CheckoutHandler{engine: engine}
}

type DetailsRequest struct {
	Body struct {
		RegistrationIDs []uint `json:"registrationIds" doc:"Registrations to reserve for checkout"`
	}
}

type RegistrationDetail struct {
	RegistrationID   uint    `json:"registrationId"`
	ActivityID       string  `json:"activityId"`
	ActivityName     string  `json:"activityName"`
	ActivityKind     string  `json:"activityKind,omitempty"`
	StudentFirstName string  `json:"studentFirstName"`
	StudentLastName  string  `json:"studentLastName"`
	Cost             float64 `json:"cost"`
	Donation         float64 `json:"donation"`
	Note             string  `json:"note,omitempty"`
	Answer           string  `json:"answer,omitempty"`
	TotalAmount      float64 `json:"totalAmount"`
}

type RejectedDetail struct {
	RegistrationID   uint   `json:"registrationId"`
	ActivityID       string `json:"activityId"`
	ActivityName     string `json:"activityName"`
	StudentFirstName string `json:"studentFirstName"`
	StudentLastName  string `json:"studentLastName"`
	Reason           string `json:"reason"`
}

type DetailsResponse struct {
	Body struct {
		Registrations []RegistrationDetail `json:"registrations"`
		TotalCost     float64              `json:"totalCost"`
		Count         int                  `json:"count"`
		Rejected      []RejectedDetail     `json:"rejected,omitempty"`
	}
}

// HandleDetails reserves seats for the requested registrations. All-rejected
// is a 200 with an empty registrations array; only a fully unresolvable id
// list is a 404.
func (h *CheckoutHandler) HandleDetails(ctx context.Context, input *DetailsRequest) (*DetailsResponse, error) {
	if len(input.Body.RegistrationIDs) == 0 {
		return nil, huma.Error400BadRequest("Registration IDs are required")
	}

	accepted, rejected, err := h.engine.Reserve(ctx, input.Body.RegistrationIDs)
	if err != nil {
		if errors.Is(err, reservation.ErrNoneFound) {
			return nil, huma.Error404NotFound("No registrations found")
		}
		return nil, huma.Error500InternalServerError("Failed to fetch registration details")
	}

	res := &DetailsResponse{}
	res.Body.Registrations = make([]RegistrationDetail, 0, len(accepted))

	totalCost := 0.0
	for _, seat := range accepted {
		total := seat.TotalAmount.InexactFloat64()
		totalCost += total
		res.Body.Registrations = append(res.Body.Registrations, RegistrationDetail{
			RegistrationID:   seat.RegistrationID,
			ActivityID:       seat.ActivityID,
			ActivityName:     seat.ActivityName,
			ActivityKind:     seat.ActivityKind,
			StudentFirstName: seat.FirstName,
			StudentLastName:  seat.LastName,
			Cost:             seat.Cost.InexactFloat64(),
			Donation:         seat.Donation.InexactFloat64(),
			Note:             seat.Note,
			Answer:           seat.Answer,
			TotalAmount:      total,
		})
	}
	for _, r := range rejected {
		res.Body.Rejected = append(res.Body.Rejected, RejectedDetail{
			RegistrationID:   r.RegistrationID,
			ActivityID:       r.ActivityID,
			ActivityName:     r.ActivityName,
			StudentFirstName: r.FirstName,
			StudentLastName:  r.LastName,
			Reason:           r.Reason,
		})
	}

	res.Body.TotalCost = totalCost
	res.Body.Count = len(accepted)
	return res, nil
}
