package main

import (
	"context"
	"fmt"

	"github.com/trezcool/absensi/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}

	data := user.UpdateUser{Password: pwd, PasswordConfirm: pwd}
	if err = data.Validate(usr, cli.validate); err != nil {
		return fmt.Errorf("invalid password: %s", cli.describe(err))
	}
	if _, err = cli.usrSvc.Update(ctx, usr.ID, data); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %s updated\n", usr.Username)
	return nil
}
