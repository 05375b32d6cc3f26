package main

import (
	"context"
	"fmt"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/user"
)

// addUser creates a user, or reactivates and resets the password of the existing one.
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	var roles []string
	if isAdmin {
		roles = user.AllRoles
	}

	usr, err := cli.findUser(ctx, uname, email)
	switch err {
	case nil:
		active := true
		data := user.UpdateUser{
			Name:            name,
			IsActive:        &active,
			Roles:           roles,
			Password:        pwd,
			PasswordConfirm: pwd,
		}
		if err = data.Validate(usr, cli.validate); err != nil {
			return fmt.Errorf("invalid user: %s", cli.describe(err))
		}
		if usr, err = cli.usrSvc.Update(ctx, usr.ID, data); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "user %s updated\n", usr.ID)

	case user.ErrNotFound:
		if name == "" {
			name = uname
			if name == "" {
				name = email
			}
		}
		data := user.NewUser{
			Name:            name,
			Username:        uname,
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
			Roles:           roles,
		}
		if err = data.Validate(cli.validate); err != nil {
			return fmt.Errorf("invalid user: %s", cli.describe(err))
		}
		if usr, err = cli.usrSvc.Create(ctx, data); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "user %s created\n", usr.ID)

	default:
		return err
	}
	return nil
}

func (cli *commandLine) findUser(ctx context.Context, uname, email string) (user.User, error) {
	for _, id := range []string{uname, email} {
		if id == "" {
			continue
		}
		usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, id)
		if err != user.ErrNotFound {
			return usr, err
		}
	}
	return user.User{}, user.ErrNotFound
}
