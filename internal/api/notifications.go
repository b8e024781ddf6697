package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/mkoblar/inventar/internal/model"
	"github.com/mkoblar/inventar/internal/store"
)

// NotificationsHandler handles the caller's inbox and preferences.
type NotificationsHandler struct {
	DB *sql.DB
}

type notificationSettingsRequest struct {
	Type    string `json:"type"`
	Enabled *bool  `json:"enabled"`
}

// List handles GET /api/users/notifications.
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	notifications, err := store.ListNotifications(r.Context(), h.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to list notifications", "error", err, "user_id", claims.UserID)
		jsonError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}
	if notifications == nil {
		notifications = []model.Notification{}
	}
	jsonResponse(w, http.StatusOK, notifications)
}

// UpdateSettings handles POST /api/users/notifications/settings, toggling
// delivery of a notification type for the caller.
func (h *NotificationsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req notificationSettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !model.ValidNotificationType(req.Type) {
		jsonError(w, http.StatusBadRequest, "invalid notification type")
		return
	}
	if req.Enabled == nil {
		jsonError(w, http.StatusBadRequest, "enabled required")
		return
	}

	if err := store.SetNotificationPref(r.Context(), h.DB, claims.UserID, req.Type, *req.Enabled); err != nil {
		slog.Error("failed to update notification settings", "error", err, "user_id", claims.UserID)
		jsonError(w, http.StatusInternalServerError, "failed to update notification settings")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "notification settings updated"})
}
