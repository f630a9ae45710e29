package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/arsenal/internal/model"
)

// CreateBase creates a new base.
func CreateBase(ctx context.Context, db *sql.DB, name, location string) (*model.Base, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("base name is required")
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO bases (name, location) VALUES (?, ?)`,
		name, location,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("creating base: %w", err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting base id: %w", err)
	}

	return GetBase(ctx, db, id)
}

// GetBase returns a base by ID, or nil if it doesn't exist.
func GetBase(ctx context.Context, db *sql.DB, id int64) (*model.Base, error) {
	b := &model.Base{}
	var location sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, location, created_at, deleted_at
		 FROM bases WHERE id = ?`, id,
	).Scan(&b.ID, &b.Name, &location, &b.CreatedAt, &b.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting base: %w", err)
	}
	b.Location = location.String
	return b, nil
}

// ListBases returns all non-deleted bases ordered by name.
func ListBases(ctx context.Context, db *sql.DB) ([]model.Base, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, location, created_at, deleted_at
		 FROM bases WHERE deleted_at IS NULL ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bases: %w", err)
	}
	defer rows.Close()

	var bases []model.Base
	for rows.Next() {
		var b model.Base
		var location sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &location, &b.CreatedAt, &b.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning base: %w", err)
		}
		b.Location = location.String
		bases = append(bases, b)
	}
	return bases, rows.Err()
}

// UpdateBase updates a base's name and location.
func UpdateBase(ctx context.Context, db *sql.DB, id int64, name, location string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return validationf("base name is required")
	}

	res, err := db.ExecContext(ctx,
		`UPDATE bases SET name = ?, location = ? WHERE id = ? AND deleted_at IS NULL`,
		name, location, id,
	)
	if err != nil {
		return classify(fmt.Errorf("updating base: %w", err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("base")
	}
	return nil
}

// requireBase checks inside a transaction that a base exists and is active.
func requireBase(ctx context.Context, tx *sql.Tx, id int64) error {
	var exists bool
	err := tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM bases WHERE id = ? AND deleted_at IS NULL)`, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking base: %w", err)
	}
	if !exists {
		return notFound(fmt.Sprintf("base %d", id))
	}
	return nil
}
