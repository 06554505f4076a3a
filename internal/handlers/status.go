package handlers

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/maplewood-arts/registration-api/internal/catalog"
	"github.com/maplewood-arts/registration-api/internal/reservation"
)

// StatusHandler serves the public fullness indicator the activity pages poll.
// Responses are cacheable for ten minutes unless the caller opts out.
type StatusHandler struct {
	engine *reservation.Engine
	cat    *catalog.Catalog
}

func NewStatusHandler(engine *reservation.Engine, cat *catalog.Catalog) *StatusHandler {
	return &StatusHandler{engine: engine, cat: cat}
}

type ActivityStatus struct {
	ActivityID      string `json:"activityId"`
	RegisteredCount int    `json:"registeredCount"`
	SizeMax         *int   `json:"sizeMax"`
	IsFull          bool   `json:"isFull"`
	SpotsRemaining  *int   `json:"spotsRemaining"`
	Kind            string `json:"kind,omitempty"`
}

type StatusGetRequest struct {
	IDs     []string `query:"id" doc:"Activity ids to report on"`
	NoCache bool     `query:"nocache" doc:"Skip the shared cache" required:"false"`
}

type StatusResponse struct {
	CacheControl string `header:"Cache-Control"`
	Body         struct {
		Activities []ActivityStatus `json:"activities"`
	}
}

func (h *StatusHandler) HandleGet(ctx context.Context, input *StatusGetRequest) (*StatusResponse, error) {
	if len(input.IDs) == 0 {
		return nil, huma.Error400BadRequest("At least one activity ID is required. Use ?id=activityId")
	}
	return h.status(ctx, input.IDs, input.NoCache)
}

type StatusPostRequest struct {
	Body struct {
		ActivityIDs []string `json:"activityIds"`
		NoCache     bool     `json:"nocache,omitempty"`
	}
}

func (h *StatusHandler) HandlePost(ctx context.Context, input *StatusPostRequest) (*StatusResponse, error) {
	if len(input.Body.ActivityIDs) == 0 {
		return nil, huma.Error400BadRequest("activityIds array is required")
	}
	return h.status(ctx, input.Body.ActivityIDs, input.Body.NoCache)
}

func (h *StatusHandler) status(ctx context.Context, ids []string, noCache bool) (*StatusResponse, error) {
	counts, err := h.engine.ActiveCounts(ctx, ids)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to fetch activity status")
	}

	res := &StatusResponse{}
	if noCache {
		res.CacheControl = "no-store"
	} else {
		res.CacheControl = "public, max-age=600"
	}

	for _, id := range ids {
		key := strings.ToLower(id)
		count := counts[key]
		act, known := h.cat.Get(key)

		status := ActivityStatus{
			ActivityID:      id,
			RegisteredCount: count,
			Kind:            act.Kind,
		}
		if known && act.SizeMax != nil {
			max := *act.SizeMax
			status.SizeMax = &max
			status.IsFull = count >= max
			remaining := max - count
			if remaining < 0 {
				remaining = 0
			}
			status.SpotsRemaining = &remaining
		}
		res.Body.Activities = append(res.Body.Activities, status)
	}
	return res, nil
}
