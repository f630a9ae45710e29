package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/arsenal/internal/model"
)

// CreateEquipmentType creates a new equipment type.
func CreateEquipmentType(ctx context.Context, db *sql.DB, name, category string) (*model.EquipmentType, error) {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)
	if name == "" || category == "" {
		return nil, validationf("name and category are required")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO equipment_types (name, category) VALUES (?, ?)`,
		name, category,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("creating equipment type: %w", err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting equipment type id: %w", err)
	}

	return GetEquipmentType(ctx, db, id)
}

// GetEquipmentType returns an equipment type by ID, or nil if it doesn't exist.
func GetEquipmentType(ctx context.Context, db *sql.DB, id int64) (*model.EquipmentType, error) {
	et := &model.EquipmentType{}
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, category, photo_mime, created_at
		 FROM equipment_types WHERE id = ?`, id,
	).Scan(&et.ID, &et.Name, &et.Category, &mime, &et.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting equipment type: %w", err)
	}
	et.PhotoMime = mime.String
	return et, nil
}

// ListEquipmentTypes returns all equipment types, optionally filtered by category.
func ListEquipmentTypes(ctx context.Context, db *sql.DB, category string) ([]model.EquipmentType, error) {
	query := `SELECT id, name, category, photo_mime, created_at FROM equipment_types`
	var args []any
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY category, name`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing equipment types: %w", err)
	}
	defer rows.Close()

	var types []model.EquipmentType
	for rows.Next() {
		var et model.EquipmentType
		var mime sql.NullString
		if err := rows.Scan(&et.ID, &et.Name, &et.Category, &mime, &et.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning equipment type: %w", err)
		}
		et.PhotoMime = mime.String
		types = append(types, et)
	}
	return types, rows.Err()
}

// SetEquipmentPhoto stores a normalised photo for an equipment type.
func SetEquipmentPhoto(ctx context.Context, db *sql.DB, id int64, photo []byte, mime string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE equipment_types SET photo = ?, photo_mime = ? WHERE id = ?`,
		photo, mime, id,
	)
	if err != nil {
		return fmt.Errorf("setting equipment photo: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("equipment type")
	}
	return nil
}

// GetEquipmentPhoto returns an equipment type's photo and MIME type.
// A nil slice means no photo is stored.
func GetEquipmentPhoto(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var photo []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT photo, photo_mime FROM equipment_types WHERE id = ?`, id,
	).Scan(&photo, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting equipment photo: %w", err)
	}
	return photo, mime.String, nil
}

func requireEquipmentType(ctx context.Context, tx *sql.Tx, id int64) error {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM equipment_types WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking equipment type: %w", err)
	}
	if !exists {
		return notFound(fmt.Sprintf("equipment type %d", id))
	}
	return nil
}
