package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/attendance"
	"github.com/trezcool/absensi/core/roster"
	"github.com/trezcool/absensi/core/teacher"
	"github.com/trezcool/absensi/core/user"
	emailsvc "github.com/trezcool/absensi/services/email"
	logsvc "github.com/trezcool/absensi/services/logger"
	"github.com/trezcool/absensi/storage/database"
	dummydb "github.com/trezcool/absensi/storage/database/dummy"
	sqlxrepos "github.com/trezcool/absensi/storage/database/sqlx"
	firestorerepos "github.com/trezcool/absensi/storage/firestore"
)

var logger core.Logger

type repositories struct {
	db         *sql.DB // nil unless the engine is postgres
	user       user.Repository
	teacher    teacher.Repository
	roster     roster.Repository
	attendance attendance.Repository
	close      func() error
}

func main() {
	defer os.Exit(0)

	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	core.ParseEmailTemplates(conf, logger)

	// set up DB & repos
	repos, err := openRepositories(conf)
	errAndDie(err)
	defer func() {
		if err := repos.close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	// set up services
	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	roster.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	var emailSvc core.EmailService
	if conf.Debug {
		emailSvc = emailsvc.NewConsoleService(conf)
	} else {
		emailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	teacherSvc := teacher.NewService(repos.teacher)
	rosterSvc := roster.NewService(repos.roster, teacherSvc)

	// start CLI
	cli := commandLine{
		conf:          conf,
		db:            repos.db,
		validate:      validate,
		translator:    translator,
		usrSvc:        user.NewService(repos.user),
		teacherSvc:    teacherSvc,
		rosterSvc:     rosterSvc,
		attendanceSvc: attendance.NewService(repos.attendance, rosterSvc, teacherSvc, conf),
		emailSvc:      emailSvc,
		out:           os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		_ = repos.close()
		os.Exit(1)
	}
}

// openRepositories opens the database of the configured engine. Unlike the API, pending
// migrations are not applied: that is the job of the migrate command.
func openRepositories(conf *core.Config) (repositories, error) {
	switch conf.Database.Engine {
	case core.EngineMemory:
		db := dummydb.Open()
		return repositories{
			user:       dummydb.NewUserRepository(db),
			teacher:    dummydb.NewTeacherRepository(db),
			roster:     dummydb.NewRosterRepository(db),
			attendance: dummydb.NewAttendanceRepository(db),
			close:      func() error { return nil },
		}, nil

	case core.EngineFirestore:
		db, err := firestorerepos.Open(context.Background(), conf, logger)
		if err != nil {
			return repositories{}, err
		}
		return repositories{
			user:       firestorerepos.NewUserRepository(db),
			teacher:    firestorerepos.NewTeacherRepository(db),
			roster:     firestorerepos.NewRosterRepository(db),
			attendance: firestorerepos.NewAttendanceRepository(db),
			close:      db.Close,
		}, nil

	default:
		if err := database.CreateIfNotExist(conf); err != nil {
			return repositories{}, err
		}
		db, err := database.Open(conf)
		if err != nil {
			return repositories{}, err
		}
		return repositories{
			db:         db.DB,
			user:       sqlxrepos.NewUserRepository(db),
			teacher:    sqlxrepos.NewTeacherRepository(db, nil),
			roster:     sqlxrepos.NewRosterRepository(db, nil),
			attendance: sqlxrepos.NewAttendanceRepository(db, nil),
			close:      db.Close,
		}, nil
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
