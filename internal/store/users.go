package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/arsenal/internal/model"
)

// checkUserRole validates a role and base pairing. Base commanders must have a
// base to command.
func checkUserRole(ctx context.Context, db *sql.DB, role string, baseID *int64) error {
	if !model.ValidRole(role) {
		return validationf("invalid role %q", role)
	}
	if baseID == nil {
		if role == model.RoleBaseCommander {
			return validationf("base commanders need a base")
		}
		return nil
	}
	b, err := GetBase(ctx, db, *baseID)
	if err != nil {
		return err
	}
	if b == nil || b.DeletedAt != nil {
		return notFound(fmt.Sprintf("base %d", *baseID))
	}
	return nil
}

// CreateUser creates a new user.
func CreateUser(ctx context.Context, db *sql.DB, username, passwordHash, role string, baseID *int64) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationf("username is required")
	}
	if err := checkUserRole(ctx, db, role, baseID); err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, base_id) VALUES (?, ?, ?, ?)`,
		username, passwordHash, role, baseID,
	)
	if err != nil {
		return nil, classify(fmt.Errorf("creating user: %w", err))
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

const userSelect = `SELECT id, username, password_hash, role, base_id, created_at, deleted_at FROM users`

func scanUser(row rowScanner, u *model.User) error {
	return row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.BaseID, &u.CreatedAt, &u.DeletedAt)
}

// GetUser returns a user by ID, or nil if it doesn't exist.
func GetUser(ctx context.Context, db *sql.DB, id int64) (*model.User, error) {
	u := &model.User{}
	err := scanUser(db.QueryRowContext(ctx, userSelect+` WHERE id = ?`, id), u)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns the active user with the given username.
func GetUserByUsername(ctx context.Context, db *sql.DB, username string) (*model.User, error) {
	u := &model.User{}
	err := scanUser(db.QueryRowContext(ctx, userSelect+` WHERE username = ? AND deleted_at IS NULL`, username), u)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// ListUsers returns all non-deleted users.
func ListUsers(ctx context.Context, db *sql.DB) ([]model.User, error) {
	rows, err := db.QueryContext(ctx, userSelect+` WHERE deleted_at IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := scanUser(rows, &u); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser changes a user's role and base.
func UpdateUser(ctx context.Context, db *sql.DB, id int64, role string, baseID *int64) error {
	if err := checkUserRole(ctx, db, role, baseID); err != nil {
		return err
	}

	res, err := db.ExecContext(ctx,
		`UPDATE users SET role = ?, base_id = ? WHERE id = ? AND deleted_at IS NULL`,
		role, baseID, id,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("user")
	}
	return nil
}

// UpdateUserPassword updates a user's password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, id int64, passwordHash string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE id = ? AND deleted_at IS NULL`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("updating user password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("user")
	}
	return nil
}

// DeleteUser soft-deletes a user. Their past ledger events keep the user ID.
func DeleteUser(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx,
		`UPDATE users SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("user")
	}
	return nil
}

// ActorFor builds the actor a user acts as.
func ActorFor(u *model.User) model.Actor {
	return model.Actor{UserID: u.ID, Username: u.Username, Role: u.Role, BaseID: u.BaseID}
}
