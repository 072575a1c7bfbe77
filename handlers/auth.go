package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"p9e.in/sitelog/middleware"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/repositories"
	"p9e.in/sitelog/utils"
)

// AuthHandler serves login, logout and the caller's own account.
type AuthHandler struct {
	users repositories.UserRepository
	auth  *middleware.Auth
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(store *repositories.Store, auth *middleware.Auth) *AuthHandler {
	return &AuthHandler{users: store.Users, auth: auth}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userPayload struct {
	ID       string      `json:"id"`
	Username string      `json:"username"`
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Phone    string      `json:"phone,omitempty"`
	Role     models.Role `json:"role"`
}

type loginResp struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	User      userPayload      `json:"user"`
	Menu      []utils.MenuItem `json:"menu"`
}

func toUserPayload(u *models.User) userPayload {
	return userPayload{
		ID:       u.ID.String(),
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Phone:    u.Phone,
		Role:     u.Role,
	}
}

// Login exchanges username and password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(body.Username)
	if username == "" || body.Password == "" {
		http.Error(w, "username and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetByUsername(r.Context(), username)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		writeError(w, err, "user")
		return
	}
	if user == nil || !user.CheckPassword(body.Password) {
		zap.L().Info("login failed", zap.String("username", username))
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		http.Error(w, "account is inactive", http.StatusUnauthorized)
		return
	}

	token, expires, err := h.auth.GenerateToken(user)
	if err != nil {
		zap.L().Error("failed to sign token", zap.Error(err))
		http.Error(w, "could not generate token", http.StatusInternalServerError)
		return
	}

	zap.L().Info("user logged in", zap.String("username", user.Username), zap.String("role", string(user.Role)))
	writeJSON(w, http.StatusOK, loginResp{
		Token:     token,
		ExpiresAt: expires,
		User:      toUserPayload(user),
		Menu:      utils.MenuFor(user.Role),
	})
}

// Logout revokes the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.auth.Revoke(r.Context(), claims); err != nil {
		zap.L().Error("failed to revoke token", zap.Error(err))
		http.Error(w, "could not revoke token", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Logged out"})
}

// GetCurrentUser returns the signed-in account.
func (h *AuthHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, toUserPayload(user))
}

// GetMenu returns the navigation entries of the caller's role.
func (h *AuthHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"greeting": "Hello, " + user.FirstName(),
		"role":     user.Role,
		"menu":     utils.MenuFor(user.Role),
	})
}

type changeOwnPasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangeOwnPassword lets any signed-in user replace their password after
// confirming the current one.
func (h *AuthHandler) ChangeOwnPassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if user == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	var req changeOwnPasswordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if !user.CheckPassword(req.CurrentPassword) {
		http.Error(w, "current password is incorrect", http.StatusUnauthorized)
		return
	}
	updated := *user
	if err := updated.SetPassword(req.NewPassword); err != nil {
		writeError(w, err, "user")
		return
	}
	if err := h.users.UpdatePassword(r.Context(), user.ID, updated.PasswordHash); err != nil {
		writeError(w, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password updated successfully"})
}
