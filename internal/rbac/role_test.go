package rbac

import "testing"

func TestHasRole(t *testing.T) {
	cases := []struct {
		actor    Role
		required Role
		want     bool
	}{
		{RoleStudent, RoleStudent, true},
		{RoleStudent, RoleTeacher, false},
		{RoleStudent, RoleAdmin, false},
		{RoleStudent, RoleSuperAdmin, false},
		{RoleTeacher, RoleStudent, true},
		{RoleTeacher, RoleTeacher, true},
		{RoleTeacher, RoleAdmin, false},
		{RoleAdmin, RoleStudent, true},
		{RoleAdmin, RoleTeacher, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleSuperAdmin, false},
		{RoleSuperAdmin, RoleAdmin, true},
		{RoleSuperAdmin, RoleSuperAdmin, true},
	}

	for _, c := range cases {
		if got := HasRole(c.actor, c.required); got != c.want {
			t.Errorf("HasRole(%q, %q) = %v, want %v", c.actor, c.required, got, c.want)
		}
	}
}

func TestHasRole_UnknownRoles(t *testing.T) {
	// Unknown roles rank 0: they satisfy nothing, and every known role
	// satisfies them.
	if HasRole("ghost", RoleStudent) {
		t.Error("unknown actor role should not satisfy student requirement")
	}
	if !HasRole(RoleStudent, "ghost") {
		t.Error("known role should satisfy an unknown (rank 0) requirement")
	}
}

func TestRank_Ordering(t *testing.T) {
	for i := 1; i < len(AllRoles); i++ {
		if Rank(AllRoles[i-1]) >= Rank(AllRoles[i]) {
			t.Errorf("expected Rank(%q) < Rank(%q)", AllRoles[i-1], AllRoles[i])
		}
	}
}

func TestValid(t *testing.T) {
	for _, r := range AllRoles {
		if !Valid(r) {
			t.Errorf("Valid(%q) = false, want true", r)
		}
	}
	if Valid("principal") {
		t.Error(`Valid("principal") = true, want false`)
	}
}

func TestHomePath(t *testing.T) {
	cases := []struct {
		role Role
		want string
	}{
		{RoleStudent, "/student/dashboard"},
		{RoleTeacher, "/teacher/dashboard"},
		{RoleAdmin, "/admin/dashboard"},
		{RoleSuperAdmin, "/admin/dashboard"},
		{"ghost", "/login"},
	}
	for _, c := range cases {
		if got := HomePath(c.role); got != c.want {
			t.Errorf("HomePath(%q) = %q, want %q", c.role, got, c.want)
		}
	}
}

func TestFullPermissions_SeedsEverything(t *testing.T) {
	full := FullPermissions()
	if len(full) != 8 {
		t.Fatalf("expected 8 permissions, got %d", len(full))
	}
	for _, p := range full {
		if !HasPermission(full, p) {
			t.Errorf("full set should contain %q", p)
		}
	}
}

func TestDefaultMemberPermissions(t *testing.T) {
	def := DefaultMemberPermissions()
	if len(def) != 2 {
		t.Fatalf("expected 2 default permissions, got %d", len(def))
	}
	if !HasPermission(def, PermSendMessages) || !HasPermission(def, PermSendMedia) {
		t.Error("default set must contain send_messages and send_media")
	}
	if HasPermission(def, PermRemoveMembers) {
		t.Error("default set must not contain remove_members")
	}
}
