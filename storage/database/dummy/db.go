// Package dummydb is an in-memory implementation of the repositories, used in dev and tests.
package dummydb

import (
	"context"
	"sync"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/attendance"
	"github.com/trezcool/absensi/core/roster"
	"github.com/trezcool/absensi/core/student"
	"github.com/trezcool/absensi/core/teacher"
	"github.com/trezcool/absensi/core/user"
)

type (
	DB struct {
		user       *userTable
		teacher    *teacherTable
		roster     *rosterTable
		attendance *attendanceTable
		student    *studentTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	teacherTable struct {
		sync.RWMutex
		table map[string]*teacher.Teacher
		hub   core.Broadcaster
	}

	rosterTable struct {
		sync.RWMutex
		table map[string]*roster.Entry
		hub   core.Broadcaster
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Attendance
		hub   core.Broadcaster
	}

	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		teacher:    &teacherTable{table: make(map[string]*teacher.Teacher)},
		roster:     &rosterTable{table: make(map[string]*roster.Entry)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Attendance)},
		student:    &studentTable{table: make(map[string]*student.Student)},
	}
}

// Flush empties all the tables. Subscribers are notified.
func (db *DB) Flush() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.teacher.Lock()
	db.teacher.table = make(map[string]*teacher.Teacher)
	db.teacher.Unlock()
	db.teacher.hub.Broadcast()

	db.roster.Lock()
	db.roster.table = make(map[string]*roster.Entry)
	db.roster.Unlock()
	db.roster.hub.Broadcast()

	db.attendance.Lock()
	db.attendance.table = make(map[string]*attendance.Attendance)
	db.attendance.Unlock()
	db.attendance.hub.Broadcast()

	db.student.Lock()
	db.student.table = make(map[string]*student.Student)
	db.student.Unlock()
}

// snapshotOf adapts an in-memory snapshot func to core.Watch.
func snapshotOf[T any](snapshot func() []T) func(context.Context) ([]T, error) {
	return func(context.Context) ([]T, error) { return snapshot(), nil }
}
