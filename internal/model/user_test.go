package model

import "testing"

func TestRoleAtLeast(t *testing.T) {
	tests := []struct {
		role     string
		minimum  string
		expected bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleBaseCommander, true},
		{RoleAdmin, RoleLogisticsOfficer, true},
		{RoleBaseCommander, RoleAdmin, false},
		{RoleBaseCommander, RoleBaseCommander, true},
		{RoleBaseCommander, RoleLogisticsOfficer, true},
		{RoleLogisticsOfficer, RoleAdmin, false},
		{RoleLogisticsOfficer, RoleBaseCommander, false},
		{RoleLogisticsOfficer, RoleLogisticsOfficer, true},
		// Unknown roles fail-closed.
		{"unknown", RoleLogisticsOfficer, false},
		{RoleAdmin, "unknown", false},
		{"", "", false},
		{"", RoleLogisticsOfficer, false},
	}

	for _, tt := range tests {
		got := RoleAtLeast(tt.role, tt.minimum)
		if got != tt.expected {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tt.role, tt.minimum, got, tt.expected)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{"short", true},
		{"1234567", true},
		{"12345678", false},
		{"a-valid-password", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}

func TestActorBaseChecks(t *testing.T) {
	base := int64(7)
	commander := Actor{UserID: 2, Role: RoleBaseCommander, BaseID: &base}
	officer := Actor{UserID: 3, Role: RoleLogisticsOfficer, BaseID: &base}
	admin := Actor{UserID: 1, Role: RoleAdmin}

	if !commander.CommandsBase(7) {
		t.Error("commander should command own base")
	}
	if commander.CommandsBase(8) {
		t.Error("commander should not command another base")
	}
	if officer.CommandsBase(7) {
		t.Error("logistics officer commands no base")
	}
	if !officer.HomeBase(7) {
		t.Error("officer home base should match")
	}
	if admin.CommandsBase(7) || !admin.IsAdmin() {
		t.Error("admin is not a base commander but is admin")
	}
}
