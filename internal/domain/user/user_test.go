package user

import "testing"

func TestRole_IsValid(t *testing.T) {
	for _, r := range []Role{RoleBuyer, RoleSeller, RoleAdmin} {
		if !r.IsValid() {
			t.Fatalf("%q should be valid", r)
		}
	}
	if Role("user").IsValid() {
		t.Fatalf("unknown role must be invalid")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Jane@Example.COM "); got != "jane@example.com" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestFullName(t *testing.T) {
	if got := (User{FirstName: "Ada", LastName: ""}).FullName(); got != "Ada" {
		t.Fatalf("unexpected %q", got)
	}
}
