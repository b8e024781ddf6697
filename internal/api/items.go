package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mkoblar/inventar/internal/imaging"
	"github.com/mkoblar/inventar/internal/model"
	"github.com/mkoblar/inventar/internal/store"
)

// ItemsHandler handles catalog CRUD, search, and photo endpoints.
type ItemsHandler struct {
	DB *sql.DB
}

// List handles GET /api/items. Query parameters are applied as field-equality
// filters; unknown parameters are rejected.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := make(map[string]string)
	for key, values := range r.URL.Query() {
		switch key {
		case "name", "model", "category", "quantity":
			filters[key] = values[0]
		default:
			jsonError(w, http.StatusBadRequest, "unknown filter field: "+key)
			return
		}
	}

	items, err := store.ListItems(r.Context(), h.DB, filters)
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Search handles GET /api/items/search with name and/or category substrings.
func (h *ItemsHandler) Search(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	category := r.URL.Query().Get("category")

	items, err := store.SearchItems(r.Context(), h.DB, name, category)
	if err != nil {
		slog.Error("failed to search items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to search items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.ItemInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := in.Validate(true); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := store.CreateItem(r.Context(), h.DB, in)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item created", "item", item.Name, "quantity", item.Quantity)
	jsonResponse(w, http.StatusCreated, map[string]any{
		"message": "item created successfully",
		"item":    item,
	})
}

// Get handles GET /api/items/{id}. The item is returned together with its
// current custody records.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := store.GetItem(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	assignments, err := store.ListItemAssignments(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get item assignments", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item assignments")
		return
	}
	if assignments == nil {
		assignments = []model.Assignment{}
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"item":        item,
		"assignments": assignments,
	})
}

// Update handles PUT /api/items/{id}. Only the fields present in the body are
// changed.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var in model.ItemInput
	if err := decodeJSON(r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := in.Validate(false); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := store.UpdateItem(r.Context(), h.DB, id, in)
	if err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		slog.Error("failed to update item", "error", err, "item_id", id)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"message": "item updated successfully",
		"item":    item,
	})
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := store.DeleteItem(r.Context(), h.DB, id); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		slog.Error("failed to delete item", "error", err, "item_id", id)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}

	slog.Info("item deleted", "item_id", id)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted successfully"})
}

// UploadImage handles PUT /api/items/{id}/image.
func (h *ItemsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	// Limit to 5 MB.
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20)

	if err := r.ParseMultipartForm(5 << 20); err != nil {
		jsonError(w, http.StatusBadRequest, "file too large or invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "image file required")
		return
	}
	defer file.Close()

	result, err := imaging.Process(file)
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := store.SetItemImage(r.Context(), h.DB, id, result.Data, result.MIME); err != nil {
		if errors.Is(err, store.ErrItemNotFound) {
			jsonError(w, http.StatusNotFound, "item not found")
			return
		}
		slog.Error("failed to save image", "error", err, "item_id", id)
		jsonError(w, http.StatusInternalServerError, "failed to save image")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "image uploaded"})
}

// GetImage handles GET /api/items/{id}/image.
func (h *ItemsHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	data, mime, err := store.GetItemImage(r.Context(), h.DB, id)
	if err != nil {
		slog.Error("failed to get image", "error", err, "item_id", id)
		jsonError(w, http.StatusInternalServerError, "failed to get image")
		return
	}
	if data == nil {
		jsonError(w, http.StatusNotFound, "no image")
		return
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(data)
}
