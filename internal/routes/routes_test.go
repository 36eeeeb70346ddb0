package routes

import (
	"errors"
	"testing"
)

func TestForRole(t *testing.T) {
	cases := map[string]string{
		"admin":    AdminDashboard,
		"provider": ProviderDashboard,
		"customer": CustomerDashboard,
	}
	for role, want := range cases {
		route, err := ForRole(role)
		if err != nil {
			t.Fatalf("ForRole(%q): %v", role, err)
		}
		if route != want {
			t.Errorf("ForRole(%q) = %q, want %q", role, route, want)
		}
	}
}

func TestForRoleUnknown(t *testing.T) {
	if _, err := ForRole("janitor"); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if _, err := ForRole(""); !errors.Is(err, ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole for empty role, got %v", err)
	}
}
