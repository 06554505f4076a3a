package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/maplewood-arts/registration-api/internal/config"
	"github.com/maplewood-arts/registration-api/internal/models"
)

const TokenDuration = 24 * time.Hour

// AuthHandler runs the backstage login: an OAuth2 code flow against the
// identity provider named in config, issuing a JWT cookie on success. Public
// registration endpoints never touch it.
type AuthHandler struct {
	oauthConfig *oauth2.Config
	db          *gorm.DB
	cfg         *config.Config
}

func NewAuthHandler(cfg *config.Config, db *gorm.DB) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.OAuthClientID,
			ClientSecret: cfg.OAuthClientSecret,
			RedirectURL:  cfg.OAuthRedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.OAuthAuthURL,
				TokenURL: cfg.OAuthTokenURL,
			},
		},
		db:  db,
		cfg: cfg,
	}
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	url := h.oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOnline)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Code not found", http.StatusBadRequest)
		return
	}

	token, err := h.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		http.Error(w, "Failed to exchange token", http.StatusInternalServerError)
		return
	}

	client := h.oauthConfig.Client(r.Context(), token)
	resp, err := client.Get(h.cfg.OAuthUserInfoURL)
	if err != nil {
		http.Error(w, "Failed to get user info", http.StatusInternalServerError)
		return
	}
	defer resp.Body.Close()

	var info struct {
		Sub     string `json:"sub"`
		ID      string `json:"id"`
		Name    string `json:"name"`
		Email   string `json:"email"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		http.Error(w, "Failed to decode user info", http.StatusInternalServerError)
		return
	}
	subject := info.Sub
	if subject == "" {
		subject = info.ID
	}
	if subject == "" {
		http.Error(w, "User info carried no subject", http.StatusInternalServerError)
		return
	}

	var user models.User
	if err := h.db.FirstOrInit(&user, models.User{SubjectID: subject}).Error; err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	user.Username = info.Name
	user.Email = info.Email
	user.Avatar = info.Picture

	if err := h.db.Save(&user).Error; err != nil {
		http.Error(w, "Failed to save user", http.StatusInternalServerError)
		return
	}

	jwtToken, err := h.GenerateToken(user.ID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    jwtToken,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
	})

	fmt.Fprintf(w, "Welcome %s! You are logged in.", user.Username)
}

func (h *AuthHandler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

func (h *AuthHandler) parseToken(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		return 0, fmt.Errorf("invalid token claims")
	}
	return uint(userIDFloat), nil
}

// lookupAPIKey resolves an X-API-Key header value to its owning user.
func (h *AuthHandler) lookupAPIKey(key string) (uint, error) {
	var keyModel models.APIKey
	if err := h.db.Where("key = ?", key).First(&keyModel).Error; err != nil {
		return 0, fmt.Errorf("unknown API key")
	}
	if keyModel.ExpiresAt != nil && time.Now().After(*keyModel.ExpiresAt) {
		return 0, fmt.Errorf("API key expired")
	}
	h.db.Model(&keyModel).Update("last_used_at", time.Now())
	return keyModel.UserID, nil
}
