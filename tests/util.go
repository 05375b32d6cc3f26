package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/attendance"
	"github.com/trezcool/absensi/core/roster"
	"github.com/trezcool/absensi/core/student"
	"github.com/trezcool/absensi/core/teacher"
	"github.com/trezcool/absensi/core/user"
	logsvc "github.com/trezcool/absensi/services/logger"
)

// NewConfig returns the app config in test mode, backed by the in-memory store.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.TestMode = true
	conf.Debug = true
	conf.Database.Engine = core.EngineMemory
	return conf
}

// NewLogger returns a logger that discards everything.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// NewValidator returns a validator with every app validation registered on translator, or on a
// new one.
func NewValidator(translator ...ut.Translator) *validator.Validate {
	validate := validator.New()
	var trans ut.Translator
	if len(translator) > 0 {
		trans = translator[0]
	} else {
		trans = core.NewTranslator()
	}
	core.InitValidators(validate, trans)
	roster.InitValidators(validate, trans)
	user.InitValidators(validate, trans)
	return validate
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles, groups []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		Groups:    groups,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func CreateTeacher(t *testing.T, repo teacher.Repository, name, code string) teacher.Teacher {
	now := time.Now().UTC()
	tchr, err := repo.CreateTeacher(context.Background(), teacher.Teacher{
		ID:        uuid.New().String(),
		Name:      name,
		Code:      code,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createTeacher() failed: %v", err)
	}
	return tchr
}

// CreateEntry stores a roster entry as is, without going through the conflict checker.
func CreateEntry(t *testing.T, repo roster.Repository, teacherID, classID string, day roster.Day, hours ...int) roster.Entry {
	now := time.Now().UTC()
	e, err := repo.CreateEntry(context.Background(), roster.Entry{
		ID:        uuid.New().String(),
		TeacherID: teacherID,
		ClassID:   classID,
		Day:       day,
		Hours:     hours,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createEntry() failed: %v", err)
	}
	return e
}

func CreateAttendance(t *testing.T, repo attendance.Repository, rosterID, date string, presentHours []int, keterangan string) attendance.Attendance {
	now := time.Now().UTC()
	if presentHours == nil {
		presentHours = []int{}
	}
	a, err := repo.CreateAttendance(context.Background(), attendance.Attendance{
		ID:           uuid.New().String(),
		RosterID:     rosterID,
		Date:         date,
		PresentHours: presentHours,
		Keterangan:   keterangan,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("createAttendance() failed: %v", err)
	}
	return a
}

func CreateStudent(t *testing.T, repo student.Repository, nis, name, classID, barak string) student.Student {
	now := time.Now().UTC()
	s, err := repo.CreateStudent(context.Background(), student.Student{
		ID:        uuid.New().String(),
		NIS:       nis,
		Name:      name,
		ClassID:   classID,
		Barak:     barak,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return s
}
