package user

import (
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/absensi/core"
)

func newValidator() *validator.Validate {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	InitValidators(validate, translator)
	return validate
}

// failedTags returns the failed validation tags by field.
func failedTags(err error) map[string]string {
	tags := make(map[string]string)
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			tags[fe.Field()] = fe.Tag()
		}
	}
	return tags
}

func TestNewUser_Validate(t *testing.T) {
	validate := newValidator()
	valid := func() NewUser {
		return NewUser{
			Name:            " Andi ",
			Username:        " Andi_W ",
			Email:           "ANDI@example.com",
			Password:        "Xk7#pLm2qR",
			PasswordConfirm: "Xk7#pLm2qR",
			Roles:           []string{RoleBarak},
			Groups:          []string{" Barak A ", "Barak A", "Barak B"},
		}
	}

	tests := []struct {
		name     string
		mutate   func(nu *NewUser)
		wantTags map[string]string
	}{
		{name: "valid", mutate: func(nu *NewUser) {}, wantTags: map[string]string{}},
		{
			name:     "username or email",
			mutate:   func(nu *NewUser) { nu.Username, nu.Email = "", "" },
			wantTags: map[string]string{"username": usernameOrEmailTag, "email": usernameOrEmailTag},
		},
		{name: "invalid role", mutate: func(nu *NewUser) { nu.Roles = []string{"student:"} }, wantTags: map[string]string{"roles": allRolesTag}},
		{name: "empty group", mutate: func(nu *NewUser) { nu.Groups = []string{" "} }, wantTags: map[string]string{"groups[0]": "required"}},
		{name: "password mismatch", mutate: func(nu *NewUser) { nu.PasswordConfirm = "nope" }, wantTags: map[string]string{"password_confirm": "eqfield"}},
		{name: "password too short", mutate: func(nu *NewUser) { setPwd(nu, "Ab1#") }, wantTags: map[string]string{"password": pwdMinLenTag}},
		{name: "password with space", mutate: func(nu *NewUser) { setPwd(nu, "Xk7# pLm2qR") }, wantTags: map[string]string{"password": pwdNoSpaceTag}},
		{name: "password all numeric", mutate: func(nu *NewUser) { setPwd(nu, "73917284") }, wantTags: map[string]string{"password": pwdNotAllNumTag}},
		{name: "password too simple", mutate: func(nu *NewUser) { setPwd(nu, "xk7pplm2qr") }, wantTags: map[string]string{"password": pwdComplexityTag}},
		{
			name: "password similar to name",
			mutate: func(nu *NewUser) {
				nu.Name = "Budi Santoso"
				setPwd(nu, "Budi$antoso1")
			},
			wantTags: map[string]string{"password": pwdAttrSimTag},
		},
		{name: "common password", mutate: func(nu *NewUser) { setPwd(nu, "P@ssw0rd") }, wantTags: map[string]string{"password": pwdNoCommonTag}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := valid()
			tt.mutate(&nu)
			err := nu.Validate(validate)
			assert.Equal(t, tt.wantTags, failedTags(err))
		})
	}

	nu := valid()
	assert.NoError(t, nu.Validate(validate))
	assert.Equal(t, "Andi", nu.Name)
	assert.Equal(t, "andi_w", nu.Username)
	assert.Equal(t, "andi@example.com", nu.Email)
	assert.Equal(t, []string{"Barak A", "Barak B"}, nu.Groups)
}

func setPwd(nu *NewUser, pwd string) {
	nu.Password = pwd
	nu.PasswordConfirm = pwd
}

func TestUpdateUser_Validate(t *testing.T) {
	validate := newValidator()
	orig := User{Name: "Andi", Username: "andi_w", Email: "andi@example.com"}

	uu := UpdateUser{Email: "  "}
	assert.NoError(t, uu.Validate(orig, validate))
	assert.Equal(t, orig.Name, uu.Name)
	assert.Equal(t, orig.Username, uu.Username)
	assert.Equal(t, orig.Email, uu.Email)
	assert.Nil(t, uu.Groups)

	uu = UpdateUser{Password: "Xk7#pLm2qR"}
	assert.Equal(t, map[string]string{"password_confirm": "required_with"}, failedTags(uu.Validate(orig, validate)))

	uu = UpdateUser{Password: "short", PasswordConfirm: "short"}
	assert.Equal(t, map[string]string{"password": pwdMinLenTag}, failedTags(uu.Validate(orig, validate)))
}

func TestQueryFilter_Match(t *testing.T) {
	active := true
	usr := User{Name: "Sari", Username: "sari", Email: "sari@example.com", IsActive: true, Roles: []string{RoleBarak}, Groups: []string{"Barak A"}}

	assert.True(t, QueryFilter{}.Match(usr))
	assert.True(t, QueryFilter{Search: "EXAMPLE"}.Match(usr))
	assert.False(t, QueryFilter{Search: "budi"}.Match(usr))
	assert.True(t, QueryFilter{Roles: []string{RoleAdmin, RoleBarak}}.Match(usr))
	assert.False(t, QueryFilter{Roles: []string{RoleAdmin}}.Match(usr))
	assert.True(t, QueryFilter{Group: "Barak A", IsActive: &active}.Match(usr))
	assert.False(t, QueryFilter{Group: "Barak B"}.Match(usr))
}
