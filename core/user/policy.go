package user

// CanAccess reports whether usr may act on a resource owned by group (a barak name).
// Inactive users are denied. Admins may access everything. Barak supervisors may access the
// groups they are assigned to. Resources without a group are admin-only.
func CanAccess(usr User, group string) bool {
	if !usr.IsActive {
		return false
	}
	if usr.IsAdmin() {
		return true
	}
	if group == "" {
		return false
	}
	return usr.IsBarakSupervisor() && usr.HasGroup(group)
}
