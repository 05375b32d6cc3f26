package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/absensi/apps/api/echo"
	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/attendance"
	"github.com/trezcool/absensi/core/roster"
	"github.com/trezcool/absensi/core/student"
	"github.com/trezcool/absensi/core/teacher"
	"github.com/trezcool/absensi/core/user"
	emailsvc "github.com/trezcool/absensi/services/email"
	logsvc "github.com/trezcool/absensi/services/logger"
	"github.com/trezcool/absensi/storage/database"
	dummydb "github.com/trezcool/absensi/storage/database/dummy"
	sqlxrepos "github.com/trezcool/absensi/storage/database/sqlx"
	firestorerepos "github.com/trezcool/absensi/storage/firestore"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type (
	// Repositories are the repositories of the configured database engine.
	Repositories struct {
		dig.Out
		User       user.Repository
		Teacher    teacher.Repository
		Roster     roster.Repository
		Attendance attendance.Repository
		Student    student.Repository
	}

	// Closer releases the database connections.
	Closer func() error

	serverParams struct {
		dig.In
		Conf          *core.Config
		Logger        core.Logger
		Validate      *validator.Validate
		Translator    ut.Translator
		UserSvc       user.Service
		TeacherSvc    teacher.Service
		RosterSvc     roster.Service
		AttendanceSvc attendance.Service
		StudentSvc    student.Service
	}
)

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

// newRepositories opens the database of the configured engine and builds its repositories.
func newRepositories(conf *core.Config, loggerParam DBLoggerParam) (Repositories, Closer) {
	logger := loggerParam.Logger

	switch conf.Database.Engine {
	case core.EngineMemory:
		db := dummydb.Open()
		return Repositories{
			User:       dummydb.NewUserRepository(db),
			Teacher:    dummydb.NewTeacherRepository(db),
			Roster:     dummydb.NewRosterRepository(db),
			Attendance: dummydb.NewAttendanceRepository(db),
			Student:    dummydb.NewStudentRepository(db),
		}, func() error { return nil }

	case core.EngineFirestore:
		db, err := firestorerepos.Open(context.Background(), conf, logger)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up firestore: %v", err), err)
		}
		return Repositories{
			User:       firestorerepos.NewUserRepository(db),
			Teacher:    firestorerepos.NewTeacherRepository(db),
			Roster:     firestorerepos.NewRosterRepository(db),
			Attendance: firestorerepos.NewAttendanceRepository(db),
			Student:    firestorerepos.NewStudentRepository(db),
		}, db.Close

	default:
		db, err := setUpPostgres(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		notifier := sqlxrepos.NewNotifier(database.DSN(conf.Database.Name, false, conf), logger)
		return Repositories{
				User:       sqlxrepos.NewUserRepository(db),
				Teacher:    sqlxrepos.NewTeacherRepository(db, notifier),
				Roster:     sqlxrepos.NewRosterRepository(db, notifier),
				Attendance: sqlxrepos.NewAttendanceRepository(db, notifier),
				Student:    sqlxrepos.NewStudentRepository(db),
			}, func() error {
				if err := notifier.Close(); err != nil {
					return err
				}
				return db.Close()
			}
	}
}

func setUpPostgres(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	roster.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Validate:      p.Validate,
		Translator:    p.Translator,
		UserSvc:       p.UserSvc,
		TeacherSvc:    p.TeacherSvc,
		RosterSvc:     p.RosterSvc,
		AttendanceSvc: p.AttendanceSvc,
		StudentSvc:    p.StudentSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewService))
	must(c.Provide(teacher.NewService))
	must(c.Provide(roster.NewService))
	must(c.Provide(attendance.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
