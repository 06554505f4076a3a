package auth

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/maplewood-arts/registration-api/internal/models"
)

// AuthInput is embedded by every protected operation's input struct. Either
// the JWT cookie (browser sessions) or the API key header (cron callers)
// satisfies it.
type AuthInput struct {
	Cookie string `header:"Cookie" doc:"Session cookie" required:"false"`
	APIKey string `header:"X-API-Key" doc:"API key for headless callers" required:"false"`
}

// Authorize resolves the caller to a backstage user id, trying the API key
// first and falling back to the JWT cookie.
func (h *AuthHandler) Authorize(ctx context.Context, input AuthInput) (uint, error) {
	if input.APIKey != "" {
		userID, err := h.lookupAPIKey(input.APIKey)
		if err == nil {
			return userID, nil
		}
	}

	if input.Cookie == "" {
		return 0, huma.Error401Unauthorized("Unauthorized. Please sign in.")
	}

	// Parse the raw Cookie header the way net/http would.
	header := http.Header{}
	header.Add("Cookie", input.Cookie)
	req := http.Request{Header: header}
	cookie, err := req.Cookie("auth_token")
	if err != nil {
		return 0, huma.Error401Unauthorized("Unauthorized. Please sign in.")
	}

	userID, err := h.parseToken(cookie.Value)
	if err != nil {
		return 0, huma.Error401Unauthorized("Unauthorized: Invalid token")
	}
	return userID, nil
}

type MeInput struct {
	AuthInput
}

type MeOutput struct {
	Body struct {
		ID       uint   `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
		Avatar   string `json:"avatar"`
	}
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *MeInput) (*MeOutput, error) {
	userID, err := h.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}

	res := &MeOutput{}
	res.Body.ID = user.ID
	res.Body.Username = user.Username
	res.Body.Email = user.Email
	res.Body.Avatar = user.Avatar
	return res, nil
}
