package principal

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		raw  string
		want Role
		ok   bool
	}{
		{"ADMIN", RoleAdmin, true},
		{"admin", RoleAdmin, true},
		{"City_Admin", RoleCityAdmin, true},
		{"country_admin", RoleCountryAdmin, true},
		{"superuser", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseRole(tt.raw)
		if ok != tt.ok || got != tt.want {
			t.Fatalf("ParseRole(%q) = (%q, %v), want (%q, %v)", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRoleEqualIgnoresCase(t *testing.T) {
	if !Role("state_admin").Equal(RoleStateAdmin) {
		t.Fatal("expected case-insensitive equality")
	}
	if RoleUser.Equal(RoleManager) {
		t.Fatal("distinct roles must not be equal")
	}
}

func TestIsScoped(t *testing.T) {
	scoped := []Role{RoleCityAdmin, RoleStateAdmin, RoleCountryAdmin, Role("city_admin")}
	for _, r := range scoped {
		if !r.IsScoped() {
			t.Fatalf("expected %q to be scoped", r)
		}
	}

	for _, r := range []Role{RoleUser, RoleManager, RoleAdmin} {
		if r.IsScoped() {
			t.Fatalf("expected %q to be unscoped", r)
		}
	}
}
