package auth

import "testing"

func TestRolePermissionsNotEmpty(t *testing.T) {
	for _, role := range []string{RoleEmployee, RoleManager, RoleHR} {
		if len(RolePermissions[role]) == 0 {
			t.Fatalf("role %s has no permissions", role)
		}
	}
}

func TestRolePermissionsUnique(t *testing.T) {
	for role, perms := range RolePermissions {
		seen := map[string]struct{}{}
		for _, perm := range perms {
			if _, ok := seen[perm]; ok {
				t.Fatalf("role %s lists %s twice", role, perm)
			}
			seen[perm] = struct{}{}
		}
	}
}

func TestPermissionEscalation(t *testing.T) {
	if HasPermission(RoleEmployee, PermNominationsDecide) {
		t.Fatal("employees must not decide nominations")
	}
	if HasPermission(RoleManager, PermCyclesManage) {
		t.Fatal("managers must not manage cycles")
	}
	if !HasPermission(RoleManager, PermNominationsDecide) {
		t.Fatal("managers decide their reports' nominations")
	}
	if !HasPermission(RoleHR, PermCyclesManage) {
		t.Fatal("hr manages cycles")
	}
	if HasPermission("unknown-role", PermSummaryRead) {
		t.Fatal("unknown roles have no permissions")
	}
}
