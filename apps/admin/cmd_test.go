package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/attendance"
	"github.com/trezcool/absensi/core/roster"
	"github.com/trezcool/absensi/core/teacher"
	"github.com/trezcool/absensi/core/user"
	emailsvc "github.com/trezcool/absensi/services/email"
	dummydb "github.com/trezcool/absensi/storage/database/dummy"
	testutil "github.com/trezcool/absensi/tests"
)

var (
	usrRepo        user.Repository
	teacherRepo    teacher.Repository
	rosterRepo     roster.Repository
	attendanceRepo attendance.Repository
)

const strongPwd = "Xk9#mPq2!z"

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	conf := testutil.NewConfig()
	core.ParseEmailTemplates(conf, testutil.NewLogger(conf))
	emailsvc.ResetSentMessages()

	// set up DB & repos
	db := dummydb.Open()
	usrRepo = dummydb.NewUserRepository(db)
	teacherRepo = dummydb.NewTeacherRepository(db)
	rosterRepo = dummydb.NewRosterRepository(db)
	attendanceRepo = dummydb.NewAttendanceRepository(db)

	translator := core.NewTranslator()
	teacherSvc := teacher.NewService(teacherRepo)
	rosterSvc := roster.NewService(rosterRepo, teacherSvc)

	// start CLI
	out := new(bytes.Buffer)
	return &commandLine{
		conf:          conf,
		validate:      testutil.NewValidator(translator),
		translator:    translator,
		usrSvc:        user.NewService(usrRepo),
		teacherSvc:    teacherSvc,
		rosterSvc:     rosterSvc,
		attendanceSvc: attendance.NewService(attendanceRepo, rosterSvc, teacherSvc, conf),
		emailSvc:      emailsvc.NewConsoleServiceMock(conf),
		out:           out,
	}, out
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
	wantErrSub string // substring of the error
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				assert.EqualError(t, err, tt.wantErrStr)
			case tt.wantErrSub != "":
				if assert.Error(t, err) {
					assert.Contains(t, err.Error(), tt.wantErrSub)
				}
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, out := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	})
	assert.Contains(t, out.String(), "Usage:")
	assert.Contains(t, out.String(), "importroster -file FILE")
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	t.Run("no SQL database", func(t *testing.T) {
		err := cli.run([]string{"admin", "migrate", "up"})
		assert.Equal(t, errNoSQLDB, err)
	})

	cli.db = &sql.DB{}
	var gotDir string
	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		gotDir = dir
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "holidays", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	})
	assert.Equal(t, "migrations", gotDir)
}

func Test_commandLine_addUser(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"adduser"}, pwd: strongPwd, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "guru"}, wantErr: errHelp},
		{name: "weak password", args: []string{"adduser", "-username", "guru"}, pwd: "123", wantErrSub: "invalid user: password: "},
		{name: "invalid email", args: []string{"adduser", "-email", "lol"}, pwd: strongPwd, wantErrSub: "invalid user: email: "},
		{name: "create teacher", args: []string{"adduser", "-username", " Guru ", "-email", "guru@sekolah.id"}, pwd: strongPwd},
		{name: "create admin", args: []string{"adduser", "-email", "kepsek@sekolah.id", "-name", "Kepala Sekolah", "-admin"}, pwd: strongPwd},
	})

	t.Run("created users", func(t *testing.T) {
		guru, err := cli.usrSvc.GetByUsernameOrEmail(ctx, "guru")
		require.NoError(t, err)
		assert.Equal(t, "guru", guru.Name)
		assert.Equal(t, "guru@sekolah.id", guru.Email)
		assert.True(t, guru.IsActive)
		assert.False(t, guru.IsAdmin())
		assert.NoError(t, guru.CheckPassword(strongPwd))

		kepsek, err := cli.usrSvc.GetByUsernameOrEmail(ctx, "kepsek@sekolah.id")
		require.NoError(t, err)
		assert.Equal(t, "Kepala Sekolah", kepsek.Name)
		assert.True(t, kepsek.IsAdmin())
		assert.ElementsMatch(t, user.AllRoles, kepsek.Roles)
		assert.Contains(t, out.String(), "user "+kepsek.ID+" created")
	})

	t.Run("existing user is reactivated", func(t *testing.T) {
		gone := testutil.CreateUser(t, usrRepo, "Lama", "lama", "lama@sekolah.id", "Old#Pass99", nil, nil, false)

		mockPassword(strongPwd)
		require.NoError(t, cli.run([]string{"admin", "adduser", "-email", "LAMA@sekolah.id", "-admin"}))

		got, err := cli.usrSvc.GetByUsernameOrEmail(ctx, "lama")
		require.NoError(t, err)
		assert.Equal(t, gone.ID, got.ID)
		assert.Equal(t, "Lama", got.Name)
		assert.True(t, got.IsActive)
		assert.True(t, got.IsAdmin())
		assert.NoError(t, got.CheckPassword(strongPwd))
		assert.Contains(t, out.String(), "user "+gone.ID+" updated")
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, out := setup(t)
	usr := testutil.CreateUser(t, usrRepo, "User", "awesome", "awesome@sekolah.id", "Old#Pass99", nil, nil, true)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, pwd: strongPwd, wantErr: user.ErrNotFound},
		{name: "weak password", args: []string{"resetpassword", "-username", usr.Username}, pwd: "12345678", wantErrSub: "invalid password: password: "},
	})

	tests := []struct {
		name  string
		uname string
		pwd   string
	}{
		{name: "reset with username", uname: usr.Username, pwd: strongPwd},
		{name: "reset with email", uname: "AWESOME@sekolah.id", pwd: "Zt7!bQw4#k"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			require.NoError(t, cli.run([]string{"admin", "resetpassword", "-username", tt.uname}))

			got, err := usrRepo.GetUserByID(context.Background(), usr.ID)
			require.NoError(t, err)
			assert.NoError(t, got.CheckPassword(tt.pwd))
		})
	}
	assert.Contains(t, out.String(), "password of awesome updated")
}

func Test_commandLine_importRoster(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()

	// already known: renamed by the import
	budi := testutil.CreateTeacher(t, teacherRepo, "Budi", "BDI")

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"importroster"}, wantErr: errHelp},
	})

	t.Run("import file", func(t *testing.T) {
		require.NoError(t, cli.run([]string{"admin", "importroster", "-file", "testdata/roster.yaml"}))
		assert.Contains(t, out.String(), "teachers: 1 created, 1 updated")
		assert.Contains(t, out.String(), "roster entries: 2 created, 3 rejected")

		got, err := cli.teacherSvc.GetByID(ctx, budi.ID)
		require.NoError(t, err)
		assert.Equal(t, "Budi Santoso", got.Name)

		sari, err := cli.teacherSvc.GetByCode(ctx, "SRI")
		require.NoError(t, err)
		assert.Equal(t, "Sari Wulandari", sari.Name)

		entries, err := cli.rosterSvc.Query(ctx, roster.QueryFilter{})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("rejections", func(t *testing.T) {
		f := `
roster:
  - teacher: BDI
    class: 7A
    day: senin
    hours: [2]
  - teacher: XYZ
    class: 7B
    day: Selasa
    hours: [1]
  - teacher: SRI
    class: 7B
    day: Jumat
    hours: [6, 7]
  - teacher: SRI
    class: 9A
    day: Minggu
    hours: [1]
`
		res, err := cli.importRoster(ctx, strings.NewReader(f))
		require.NoError(t, err)
		assert.Zero(t, res.EntriesCreated)
		require.Len(t, res.Rejected, 4)

		assert.Equal(t, 3, res.Rejected[0].Line)
		assert.True(t, strings.HasPrefix(res.Rejected[0].Reason, "Bentrok jam ke-2"), res.Rejected[0].Reason)

		assert.Equal(t, 7, res.Rejected[1].Line)
		assert.Equal(t, `unknown teacher "XYZ"`, res.Rejected[1].Reason)

		assert.Equal(t, 11, res.Rejected[2].Line)
		assert.Contains(t, res.Rejected[2].Reason, "hours exceed the slots of the day")

		assert.Equal(t, 15, res.Rejected[3].Line)
		assert.Contains(t, res.Rejected[3].Reason, "day must be one of Senin, Selasa, Rabu, Kamis, Jumat or Sabtu")
	})

	t.Run("empty file", func(t *testing.T) {
		res, err := cli.importRoster(ctx, strings.NewReader(""))
		require.NoError(t, err)
		assert.Zero(t, res)
	})

	t.Run("malformed file", func(t *testing.T) {
		_, err := cli.importRoster(ctx, strings.NewReader("roster: [\n"))
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		err := cli.run([]string{"admin", "importroster", "-file", "testdata/nope.yaml"})
		assert.Error(t, err)
	})
}

func Test_commandLine_recap(t *testing.T) {
	cli, out := setup(t)

	budi := testutil.CreateTeacher(t, teacherRepo, "Budi", "BDI")
	e := testutil.CreateEntry(t, rosterRepo, budi.ID, "7A", roster.Senin, 1, 2)
	testutil.CreateAttendance(t, attendanceRepo, e.ID, "2024-03-04", []int{1}, "sakit")

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"recap"}, wantErr: errHelp},
		{name: "no recipients", args: []string{"recap", "-period", "weekly"}, wantErr: errHelp},
		{name: "invalid period", args: []string{"recap", "-period", "daily", "-to", "kepsek@sekolah.id"}, wantErr: attendance.ErrInvalidPeriod},
		{name: "invalid date", args: []string{"recap", "-period", "weekly", "-date", "04/03/2024", "-to", "kepsek@sekolah.id"}, wantErrSub: "parsing time"},
		{name: "invalid recipients", args: []string{"recap", "-period", "weekly", "-to", "lol"}, wantErrSub: "parsing recipients"},
	})
	require.Empty(t, emailsvc.SentMessages)

	t.Run("send", func(t *testing.T) {
		err := cli.run([]string{"admin", "recap", "-period", "Weekly", "-date", "2024-03-06", "-to", "Kepsek <kepsek@sekolah.id>, tu@sekolah.id"})
		require.NoError(t, err)

		require.Len(t, emailsvc.SentMessages, 1)
		msg := emailsvc.SentMessages[0]
		require.Len(t, msg.To, 2)
		assert.Equal(t, "Kepsek", msg.To[0].Name)
		assert.Equal(t, "kepsek@sekolah.id", msg.To[0].Address)
		assert.Equal(t, "tu@sekolah.id", msg.To[1].Address)
		assert.Contains(t, msg.Subject, "Rekap kehadiran guru 04/03/2024 s.d. 06/03/2024")
		assert.Contains(t, msg.TextContent, "Budi (BDI)")
		assert.Contains(t, msg.TextContent, "sakit")

		rep, ok := msg.TemplateData.(attendance.Report)
		require.True(t, ok)
		assert.Equal(t, "2024-03-04", rep.From)
		assert.Equal(t, "2024-03-06", rep.To)
		assert.Equal(t, attendance.PeriodWeekly, rep.Period)

		assert.Contains(t, out.String(), "weekly recap 2024-03-04 - 2024-03-06: 1 teachers")
		assert.Contains(t, out.String(), "sent to 2 recipient(s)")
	})
}
