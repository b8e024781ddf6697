package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mkoblar/inventar/internal/model"
)

const itemColumns = `id, name, description, model, category, quantity, image_mime, created_at, updated_at`

// CreateItem validates the input and persists a new item.
func CreateItem(ctx context.Context, db *sql.DB, in model.ItemInput) (*model.Item, error) {
	if err := in.Validate(true); err != nil {
		return nil, err
	}

	var item model.Item
	in.Apply(&item)

	result, err := db.ExecContext(ctx,
		`INSERT INTO items (name, description, model, category, quantity) VALUES (?, ?, ?, ?, ?)`,
		item.Name, item.Description, item.Model, item.Category, item.Quantity,
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting item id: %w", err)
	}

	return GetItem(ctx, db, id)
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, db *sql.DB, id int64) (*model.Item, error) {
	return getItem(ctx, db, id)
}

func getItem(ctx context.Context, q dbtx, id int64) (*model.Item, error) {
	item := &model.Item{}
	var description, mdl, category, imageMime sql.NullString
	err := q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Name, &description, &mdl, &category, &item.Quantity, &imageMime, &item.CreatedAt, &item.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	item.Description = description.String
	item.Model = mdl.String
	item.Category = category.String
	item.ImageMime = imageMime.String
	return item, nil
}

// filterColumns whitelists the fields callers may filter on by equality.
var filterColumns = map[string]bool{
	"name":     true,
	"model":    true,
	"category": true,
	"quantity": true,
}

// ListItems returns items matching the given field-equality filters.
// Unknown filter keys are rejected rather than ignored.
func ListItems(ctx context.Context, db *sql.DB, filters map[string]string) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any

	for key, value := range filters {
		if !filterColumns[key] {
			return nil, fmt.Errorf("unknown filter field: %s", key)
		}
		query += ` AND ` + key + ` = ?`
		args = append(args, value)
	}

	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// SearchItems returns items whose name and/or category contains the given
// substrings, case-insensitively. Both filters are ANDed when both are given.
func SearchItems(ctx context.Context, db *sql.DB, name, category string) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any

	if name != "" {
		query += ` AND name LIKE '%' || ? || '%' COLLATE NOCASE`
		args = append(args, name)
	}
	if category != "" {
		query += ` AND category LIKE '%' || ? || '%' COLLATE NOCASE`
		args = append(args, category)
	}

	query += ` ORDER BY name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// UpdateItem applies a partial update to an item. All populated fields are
// validated before anything is written.
func UpdateItem(ctx context.Context, db *sql.DB, id int64, in model.ItemInput) (*model.Item, error) {
	if err := in.Validate(false); err != nil {
		return nil, err
	}

	item, err := GetItem(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}

	in.Apply(item)

	_, err = db.ExecContext(ctx,
		`UPDATE items SET name = ?, description = ?, model = ?, category = ?, quantity = ?,
		        updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		item.Name, item.Description, item.Model, item.Category, item.Quantity, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}

	return GetItem(ctx, db, id)
}

// DeleteItem removes an item. Historical assignment and request rows are kept.
func DeleteItem(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// SetItemImage stores an item's photo.
func SetItemImage(ctx context.Context, db *sql.DB, id int64, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		image, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// GetItemImage returns an item's photo data and MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ?`, id,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	var items []model.Item
	for rows.Next() {
		var item model.Item
		var description, mdl, category, imageMime sql.NullString
		if err := rows.Scan(&item.ID, &item.Name, &description, &mdl, &category, &item.Quantity, &imageMime, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		item.Description = description.String
		item.Model = mdl.String
		item.Category = category.String
		item.ImageMime = imageMime.String
		items = append(items, item)
	}
	return items, rows.Err()
}
