package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/attendance"
	"github.com/trezcool/absensi/core/roster"
	"github.com/trezcool/absensi/core/teacher"
	"github.com/trezcool/absensi/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp    = errors.New("help provided")
	errNoSQLDB = errors.New("migrations need the postgres engine")
)

type commandLine struct {
	conf          *core.Config
	db            *sql.DB
	validate      *validator.Validate
	translator    ut.Translator
	usrSvc        user.Service
	teacherSvc    teacher.Service
	rosterSvc     roster.Service
	attendanceSvc attendance.Service
	emailSvc      core.EmailService
	out           io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL [-name NAME] [-admin] - add a user or reactivate an existing one")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  importroster -file FILE - import teachers and roster entries from a YAML file")
	fmt.Fprintln(cli.out, "  recap -period weekly|monthly [-date YYYY-MM-DD] -to EMAIL[,EMAIL] - email the attendance recap")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserName := addUserCmd.String("name", "", "The user's full name. Defaults to the username or email.")
	addUserIsAdmin := addUserCmd.Bool("admin", false, "Grant every role to the user.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	importRosterCmd := flag.NewFlagSet("importroster", flag.ContinueOnError)
	importRosterFile := importRosterCmd.String("file", "", "Path of the YAML file to import.")

	recapCmd := flag.NewFlagSet("recap", flag.ContinueOnError)
	recapPeriod := recapCmd.String("period", "", "weekly or monthly.")
	recapDate := recapCmd.String("date", "", "Reference date (YYYY-MM-DD). Defaults to today.")
	recapTo := recapCmd.String("to", "", "Comma separated recipients.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, importRosterCmd, recapCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Fprintln(cli.out, "Usage: migrate COMMAND [ARGS]")
			return errHelp
		}
		return cli.migrate(args[2:])

	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, *addUserIsAdmin)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "importroster":
		if err := importRosterCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importRosterFile == "" {
			importRosterCmd.Usage()
			return errHelp
		}
		return cli.importRosterFile(*importRosterFile)

	case "recap":
		if err := recapCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *recapPeriod == "" || *recapTo == "" {
			recapCmd.Usage()
			return errHelp
		}
		return cli.recap(*recapPeriod, *recapDate, *recapTo)

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}

// describe flattens the validation errors of err for the terminal.
func (cli *commandLine) describe(err error) string {
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		msg := ""
		for i, fe := range vErrs {
			if i > 0 {
				msg += "; "
			}
			msg += fe.Field() + ": " + fe.Translate(cli.translator)
		}
		return msg
	}
	var cErr *core.ValidationError
	if errors.As(err, &cErr) && cErr.Err == nil && len(cErr.Fields) > 0 {
		return cErr.Fields[0].Field + ": " + cErr.Fields[0].Error
	}
	return err.Error()
}
