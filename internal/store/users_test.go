package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/arsenal/internal/db"
	"github.com/erazemk/arsenal/internal/model"
)

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	base, _ := CreateBase(ctx, database, "Alpha", "")
	user, err := CreateUser(ctx, database, "reyes", "hash123", model.RoleBaseCommander, &base.ID)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Role != model.RoleBaseCommander {
		t.Errorf("expected role base_commander, got %q", user.Role)
	}
	if user.BaseID == nil || *user.BaseID != base.ID {
		t.Errorf("expected base %d, got %v", base.ID, user.BaseID)
	}

	got, err := GetUser(ctx, database, user.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if got.Username != "reyes" {
		t.Errorf("expected username 'reyes', got %q", got.Username)
	}

	actor := ActorFor(got)
	if !actor.CommandsBase(base.ID) {
		t.Error("expected actor to command its base")
	}
}

func TestCreateUserRoleChecks(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	missing := int64(42)

	if _, err := CreateUser(ctx, database, "a", "hash", "general", nil); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown role, got %v", err)
	}
	if _, err := CreateUser(ctx, database, "b", "hash", model.RoleBaseCommander, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for commander without base, got %v", err)
	}
	if _, err := CreateUser(ctx, database, "c", "hash", model.RoleLogisticsOfficer, &missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown base, got %v", err)
	}

	CreateUser(ctx, database, "d", "hash", model.RoleAdmin, nil)
	if _, err := CreateUser(ctx, database, "d", "hash", model.RoleAdmin, nil); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for duplicate username, got %v", err)
	}
}

func TestGetUserByUsername(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	CreateUser(ctx, database, "alice", "hash", model.RoleAdmin, nil)

	user, err := GetUserByUsername(ctx, database, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if user == nil || user.Username != "alice" {
		t.Fatalf("expected alice, got %+v", user)
	}

	missing, err := GetUserByUsername(ctx, database, "bob")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for missing user")
	}
}

func TestUpdateAndDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	base, _ := CreateBase(ctx, database, "Alpha", "")
	user, _ := CreateUser(ctx, database, "lane", "oldhash", model.RoleLogisticsOfficer, nil)

	if err := UpdateUser(ctx, database, user.ID, model.RoleBaseCommander, &base.ID); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if err := UpdateUserPassword(ctx, database, user.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	got, _ := GetUser(ctx, database, user.ID)
	if got.Role != model.RoleBaseCommander || got.PasswordHash != "newhash" {
		t.Errorf("unexpected user after update: %+v", got)
	}

	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	users, _ := ListUsers(ctx, database)
	if len(users) != 0 {
		t.Errorf("expected 0 users after delete, got %d", len(users))
	}
	if byName, _ := GetUserByUsername(ctx, database, "lane"); byName != nil {
		t.Error("deleted user should not be found by username")
	}
	if err := DeleteUser(ctx, database, user.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
