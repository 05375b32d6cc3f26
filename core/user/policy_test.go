package user

import "testing"

func TestCanAccess(t *testing.T) {
	admin := User{IsActive: true, Roles: []string{RoleAdminPrincipal}}
	supervisor := User{IsActive: true, Roles: []string{RoleBarak}, Groups: []string{"Barak A", "Barak C"}}
	teacher := User{IsActive: true, Roles: []string{RoleTeacher}, Groups: []string{"Barak A"}}

	tests := []struct {
		name  string
		usr   User
		group string
		want  bool
	}{
		{name: "admin any group", usr: admin, group: "Barak B", want: true},
		{name: "admin no group", usr: admin, group: "", want: true},
		{name: "inactive admin", usr: User{Roles: []string{RoleAdmin}}, group: "Barak A", want: false},
		{name: "supervisor own group", usr: supervisor, group: "Barak C", want: true},
		{name: "supervisor other group", usr: supervisor, group: "Barak B", want: false},
		{name: "supervisor no group", usr: supervisor, group: "", want: false},
		{name: "group is case sensitive", usr: supervisor, group: "barak a", want: false},
		{name: "inactive supervisor", usr: User{Roles: []string{RoleBarak}, Groups: []string{"Barak A"}}, group: "Barak A", want: false},
		{name: "teacher with groups", usr: teacher, group: "Barak A", want: false},
		{name: "no roles", usr: User{IsActive: true}, group: "Barak A", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccess(tt.usr, tt.group); got != tt.want {
				t.Errorf("CanAccess() = %v; want %v", got, tt.want)
			}
		})
	}
}
