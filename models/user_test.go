package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"fiscal", RoleFiscal, false},
		{" Admin ", RoleAdmin, false},
		{"OWNER", RoleOwner, false},
		{"finance", RoleFinance, false},
		{"super_admin", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseRole(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseRole(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestUserPassword(t *testing.T) {
	u := User{Username: "fiscal"}
	if err := u.SetPassword("123"); err != ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if err := u.SetPassword("fiscal123"); err != nil {
		t.Fatalf("SetPassword: %v", err)
	}
	if u.PasswordHash == "fiscal123" {
		t.Fatal("password stored in plain text")
	}
	if !u.CheckPassword("fiscal123") {
		t.Error("expected password to match")
	}
	if u.CheckPassword("wrong") {
		t.Error("expected wrong password to be rejected")
	}
}

func TestUserSeesAllProjects(t *testing.T) {
	for role, expected := range map[Role]bool{RoleAdmin: true, RoleFiscal: true, RoleOwner: false, RoleFinance: false} {
		u := User{Role: role}
		if got := u.SeesAllProjects(); got != expected {
			t.Errorf("%s: SeesAllProjects() = %v", role, got)
		}
	}
}

func TestProjectScopeAllows(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	var nilScope *ProjectScope
	if !nilScope.Allows(a) {
		t.Error("nil scope should allow everything")
	}
	if !(&ProjectScope{All: true}).Allows(a) {
		t.Error("All scope should allow everything")
	}
	s := &ProjectScope{IDs: []uuid.UUID{a}}
	if !s.Allows(a) || s.Allows(b) {
		t.Error("restricted scope mismatch")
	}
	if (&ProjectScope{}).Allows(a) {
		t.Error("empty scope should allow nothing")
	}
}

func TestProjectValidate(t *testing.T) {
	start, _ := ParseDate("2025-02-01")
	end, _ := ParseDate("2025-01-01")
	tests := []struct {
		name string
		p    Project
		want error
	}{
		{"ok", Project{Name: "LBO"}, nil},
		{"missing name", Project{}, ErrProjectNameRequired},
		{"negative budget", Project{Name: "x", TotalBudget: -1}, ErrNegativeBudget},
		{"bad status", Project{Name: "x", Status: "draft"}, ErrInvalidProjectStatus},
		{"end before start", Project{Name: "x", StartDate: &start, EndDate: &end}, ErrInvalidDateRange},
	}
	for _, tt := range tests {
		if got := tt.p.Validate(); got != tt.want {
			t.Errorf("%s: Validate() = %v, expected %v", tt.name, got, tt.want)
		}
	}
}
