package rbac

// GroupRole identifies a member's role inside a chat group. It is
// independent of the platform-wide Role.
type GroupRole string

const (
	GroupRoleAdmin     GroupRole = "admin"
	GroupRoleModerator GroupRole = "moderator"
	GroupRoleMember    GroupRole = "member"
)

// GroupPermission is a capability flag assignable per group member,
// independent of the member's role label.
type GroupPermission string

const (
	PermSendMessages      GroupPermission = "send_messages"
	PermSendMedia         GroupPermission = "send_media"
	PermAddMembers        GroupPermission = "add_members"
	PermRemoveMembers     GroupPermission = "remove_members"
	PermEditGroupInfo     GroupPermission = "edit_group_info"
	PermDeleteMessages    GroupPermission = "delete_messages"
	PermPinMessages       GroupPermission = "pin_messages"
	PermManagePermissions GroupPermission = "manage_permissions"
)

// FullPermissions returns the complete permission enumeration. Group
// creators and newly promoted admins are seeded with this set.
func FullPermissions() []GroupPermission {
	return []GroupPermission{
		PermSendMessages,
		PermSendMedia,
		PermAddMembers,
		PermRemoveMembers,
		PermEditGroupInfo,
		PermDeleteMessages,
		PermPinMessages,
		PermManagePermissions,
	}
}

// DefaultMemberPermissions returns the minimal set seeded for members
// joining via invite code.
func DefaultMemberPermissions() []GroupPermission {
	return []GroupPermission{PermSendMessages, PermSendMedia}
}

// HasPermission reports whether the permission set contains p.
func HasPermission(set []GroupPermission, p GroupPermission) bool {
	for _, have := range set {
		if have == p {
			return true
		}
	}
	return false
}
