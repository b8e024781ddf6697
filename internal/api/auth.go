package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkoblar/inventar/internal/auth"
	"github.com/mkoblar/inventar/internal/model"
	"github.com/mkoblar/inventar/internal/store"
)

// AuthHandler handles registration, sessions, and profile endpoints.
type AuthHandler struct {
	DB            *sql.DB
	AccessSecret  string
	RefreshSecret string
}

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Register handles POST /api/users/register. New accounts are always
// employees; the storekeeper account is provisioned at first run.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "first name, last name, email, and password required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		jsonError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	if err := model.ValidatePassword(req.Password); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		slog.Error("failed to check existing user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		slog.Warn("registration rejected, email exists", "email", req.Email)
		jsonError(w, http.StatusBadRequest, "user already exists")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.FirstName, req.LastName, req.Email, string(hash), model.RoleEmployee)
	if err != nil {
		slog.Error("failed to create user", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	slog.Info("user registered", "email", user.Email)
	jsonResponse(w, http.StatusCreated, map[string]any{
		"message": "user registered successfully",
		"user":    user,
	})
}

// Login handles POST /api/users/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "email and password required")
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusBadRequest, "invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		slog.Warn("login failed", "email", req.Email, "remote", r.RemoteAddr)
		jsonError(w, http.StatusBadRequest, "invalid email or password")
		return
	}

	accessToken, err := auth.GenerateAccessToken(h.AccessSecret, user.ID, user.Email, user.Role)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	refreshToken, err := auth.GenerateRefreshToken(h.RefreshSecret, user.ID)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	if err := store.SetRefreshToken(r.Context(), h.DB, user.ID, refreshToken); err != nil {
		slog.Error("failed to store refresh token", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("user logged in", "email", user.Email, "role", user.Role)
	jsonResponse(w, http.StatusOK, loginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Refresh handles POST /api/users/refresh-token. The presented refresh token
// must match the one stored at login.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.RefreshToken == "" {
		jsonError(w, http.StatusUnauthorized, "refresh token required")
		return
	}

	claims, err := auth.ValidateToken(h.RefreshSecret, req.RefreshToken)
	if err != nil {
		jsonError(w, http.StatusForbidden, "invalid or expired refresh token")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil || user.RefreshToken != req.RefreshToken {
		jsonError(w, http.StatusForbidden, "invalid refresh token")
		return
	}

	accessToken, err := auth.GenerateAccessToken(h.AccessSecret, user.ID, user.Email, user.Role)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"access_token": accessToken})
}

// Logout handles POST /api/users/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := store.SetRefreshToken(r.Context(), h.DB, claims.UserID, ""); err != nil {
		slog.Error("failed to clear refresh token", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}

	slog.Info("user logged out", "email", claims.Email)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// Profile handles GET /api/users/profile.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to get user", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if user == nil {
		jsonError(w, http.StatusNotFound, "user not found")
		return
	}

	jsonResponse(w, http.StatusOK, user)
}
