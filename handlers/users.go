package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"p9e.in/sitelog/middleware"
	"p9e.in/sitelog/models"
	"p9e.in/sitelog/repositories"
)

// UserHandler is the admin user management surface.
type UserHandler struct {
	users repositories.UserRepository
}

// NewUserHandler creates a new user handler
func NewUserHandler(store *repositories.Store) *UserHandler {
	return &UserHandler{users: store.Users}
}

type userReq struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"password"`
	IsActive *bool  `json:"is_active"`
}

type passwordReq struct {
	Password string `json:"password"`
}

// ListUsers returns all users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		writeError(w, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// CreateUser creates a new user
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" {
		http.Error(w, "username, name and email are required", http.StatusBadRequest)
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user := &models.User{
		Username: username,
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Role:     role,
		IsActive: true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		writeError(w, err, "user")
		return
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		writeError(w, err, "user")
		return
	}

	zap.L().Info("user created", zap.String("username", user.Username), zap.String("role", string(role)))
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User created successfully",
		"user":    user,
	})
}

// UpdateUser edits profile fields. Fields left empty keep their value.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	var req userReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "user")
		return
	}
	if s := strings.TrimSpace(req.Name); s != "" {
		user.Name = s
	}
	if s := strings.TrimSpace(req.Email); s != "" {
		user.Email = s
	}
	if req.Phone != "" {
		user.Phone = strings.TrimSpace(req.Phone)
	}
	if req.Role != "" {
		role, err := models.ParseRole(req.Role)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		user.Role = role
	}
	if req.IsActive != nil {
		if !*req.IsActive && isSelf(r, user) {
			http.Error(w, "cannot deactivate your own account", http.StatusBadRequest)
			return
		}
		user.IsActive = *req.IsActive
	}

	if err := h.users.Update(r.Context(), user); err != nil {
		writeError(w, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User updated successfully",
		"user":    user,
	})
}

// DeactivateUser blocks login for the account. Users are never deleted so
// that their reports keep an author.
func (h *UserHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	if u := middleware.GetUser(r); u != nil && u.ID == id {
		http.Error(w, "cannot deactivate your own account", http.StatusBadRequest)
		return
	}
	if err := h.users.SetActive(r.Context(), id, false); err != nil {
		writeError(w, err, "user")
		return
	}
	zap.L().Info("user deactivated", zap.String("user_id", id.String()))
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "User deactivated"})
}

// ChangePassword sets a new password for the account.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}
	var req passwordReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	var u models.User
	if err := u.SetPassword(req.Password); err != nil {
		writeError(w, err, "user")
		return
	}
	if err := h.users.UpdatePassword(r.Context(), id, u.PasswordHash); err != nil {
		writeError(w, err, "user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "Password updated"})
}

func isSelf(r *http.Request, u *models.User) bool {
	me := middleware.GetUser(r)
	return me != nil && me.ID == u.ID
}
