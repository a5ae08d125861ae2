package rbac

// Role identifies a platform-wide user role.
type Role string

const (
	RoleStudent    Role = "student"
	RoleTeacher    Role = "teacher"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// roleRanks defines the total order student < teacher < admin < super_admin.
// Unknown roles rank 0 and therefore never satisfy any requirement.
var roleRanks = map[Role]int{
	RoleStudent:    1,
	RoleTeacher:    2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

// AllRoles lists the known roles in ascending rank order.
var AllRoles = []Role{RoleStudent, RoleTeacher, RoleAdmin, RoleSuperAdmin}

// Rank returns the numeric rank of a role, 0 for unknown values.
func Rank(r Role) int {
	return roleRanks[r]
}

// Valid reports whether r is one of the four known roles.
func Valid(r Role) bool {
	_, ok := roleRanks[r]
	return ok
}

// HasRole reports whether an actor holding actorRole satisfies requiredRole.
// This is a floor check: any role ranked at or above the requirement passes.
func HasRole(actorRole, requiredRole Role) bool {
	return Rank(actorRole) >= Rank(requiredRole)
}

// HomePath returns the dashboard path a user with the given role lands on.
// Unknown roles are sent back to the login entry point.
func HomePath(r Role) string {
	switch r {
	case RoleStudent:
		return "/student/dashboard"
	case RoleTeacher:
		return "/teacher/dashboard"
	case RoleAdmin, RoleSuperAdmin:
		return "/admin/dashboard"
	default:
		return "/login"
	}
}
