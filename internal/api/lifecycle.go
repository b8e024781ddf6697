package api

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mkoblar/inventar/internal/store"
)

// LifecycleHandler handles the custody transitions: assign, return, reassign,
// request, and the caller's assigned-items view.
type LifecycleHandler struct {
	DB *sql.DB
}

type assignRequest struct {
	UserID     int64  `json:"user_id"`
	ReturnDate string `json:"return_date,omitempty"`
}

type returnRequest struct {
	UserID int64 `json:"user_id"`
}

type reassignRequest struct {
	UserID     int64  `json:"user_id"`
	NewUserID  int64  `json:"new_user_id"`
	ReturnDate string `json:"return_date,omitempty"`
}

// parseReturnDate accepts an RFC 3339 timestamp or a bare date.
func parseReturnDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid return date: %s", s)
}

// writeLifecycleError translates store errors into the HTTP taxonomy:
// missing entities are 404, business-rule violations are 400, everything
// else is 500.
func writeLifecycleError(w http.ResponseWriter, op string, itemID int64, err error) {
	switch {
	case errors.Is(err, store.ErrItemNotFound),
		errors.Is(err, store.ErrUserNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, store.ErrOutOfStock),
		errors.Is(err, store.ErrAlreadyRequested),
		errors.Is(err, store.ErrAlreadyAssigned),
		errors.Is(err, store.ErrNoActiveAssignment):
		jsonError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("lifecycle operation failed", "op", op, "item_id", itemID, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// Assign handles POST /api/items/{id}/assign.
func (h *LifecycleHandler) Assign(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req assignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 {
		jsonError(w, http.StatusBadRequest, "user_id required")
		return
	}

	returnDate, err := parseReturnDate(req.ReturnDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := store.AssignItem(r.Context(), h.DB, itemID, req.UserID, returnDate)
	if err != nil {
		writeLifecycleError(w, "assign", itemID, err)
		return
	}

	slog.Info("item assigned", "item", item.Name, "user_id", req.UserID)
	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "item assigned successfully",
		"item":    item,
	})
}

// Return handles PUT /api/items/{id}/return.
func (h *LifecycleHandler) Return(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req returnRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 {
		jsonError(w, http.StatusBadRequest, "user_id required")
		return
	}

	item, err := store.ReturnItem(r.Context(), h.DB, itemID, req.UserID)
	if err != nil {
		writeLifecycleError(w, "return", itemID, err)
		return
	}

	slog.Info("item returned", "item", item.Name, "user_id", req.UserID)
	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "item returned successfully",
		"item":    item,
	})
}

// Reassign handles PUT /api/items/{id}/reassign.
func (h *LifecycleHandler) Reassign(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req reassignRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 || req.NewUserID == 0 {
		jsonError(w, http.StatusBadRequest, "user_id and new_user_id required")
		return
	}
	if req.UserID == req.NewUserID {
		jsonError(w, http.StatusBadRequest, "cannot reassign to the same user")
		return
	}

	returnDate, err := parseReturnDate(req.ReturnDate)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := store.ReassignItem(r.Context(), h.DB, itemID, req.UserID, req.NewUserID, returnDate)
	if err != nil {
		writeLifecycleError(w, "reassign", itemID, err)
		return
	}

	slog.Info("item reassigned", "item", item.Name, "from_user_id", req.UserID, "to_user_id", req.NewUserID)
	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "item reassigned successfully",
		"item":    item,
	})
}

// Request handles POST /api/items/{id}/request. The requester is the caller.
func (h *LifecycleHandler) Request(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	request, err := store.RequestItem(r.Context(), h.DB, itemID, claims.UserID)
	if err != nil {
		writeLifecycleError(w, "request", itemID, err)
		return
	}

	slog.Info("item requested", "item_id", itemID, "user_id", claims.UserID)
	jsonResponse(w, http.StatusCreated, map[string]any{
		"message": "item requested successfully",
		"request": request,
	})
}

// AssignedItems handles GET /api/items/assigned, listing the caller's custody
// records. An empty list is reported as not found.
func (h *LifecycleHandler) AssignedItems(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	assignments, err := store.ListUserAssignments(r.Context(), h.DB, claims.UserID)
	if err != nil {
		slog.Error("failed to list assignments", "error", err, "user_id", claims.UserID)
		jsonError(w, http.StatusInternalServerError, "failed to list assigned items")
		return
	}
	if len(assignments) == 0 {
		jsonError(w, http.StatusNotFound, "no assigned items")
		return
	}

	jsonResponse(w, http.StatusOK, assignments)
}
