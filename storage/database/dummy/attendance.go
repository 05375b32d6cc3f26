package dummydb

import (
	"context"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func (repo *attendanceRepository) query(filter attendance.QueryFilter) []attendance.Attendance {
	records := make([]attendance.Attendance, 0, len(repo.db.table))
	for _, a := range repo.db.table {
		if filter.Match(*a) {
			records = append(records, copyAttendance(*a))
		}
	}
	attendance.SortRecords(records)
	return records
}

func (repo *attendanceRepository) snapshot() []attendance.Attendance {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(attendance.QueryFilter{})
}

func (repo *attendanceRepository) find(rosterID, date string) *attendance.Attendance {
	for _, a := range repo.db.table {
		if a.RosterID == rosterID && a.Date == date {
			return a
		}
	}
	return nil
}

func (repo *attendanceRepository) ListAttendance(_ context.Context, filter attendance.QueryFilter) ([]attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(filter), nil
}

func (repo *attendanceRepository) GetAttendance(_ context.Context, id string) (attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return copyAttendance(*a), nil
	}
	return attendance.Attendance{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) FindAttendance(_ context.Context, rosterID, date string) (attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a := repo.find(rosterID, date); a != nil {
		return copyAttendance(*a), nil
	}
	return attendance.Attendance{}, attendance.ErrNotFound
}

// CreateAttendance returns attendance.ErrDuplicate when a record exists for the same roster entry and date.
func (repo *attendanceRepository) CreateAttendance(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	a = copyAttendance(a)
	repo.db.Lock()
	if repo.find(a.RosterID, a.Date) != nil {
		repo.db.Unlock()
		return attendance.Attendance{}, attendance.ErrDuplicate
	}
	repo.db.table[a.ID] = &a
	repo.db.Unlock()

	repo.db.hub.Broadcast()
	return copyAttendance(a), nil
}

func (repo *attendanceRepository) UpdateAttendance(_ context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	a = copyAttendance(a)
	repo.db.Lock()
	if _, ok := repo.db.table[a.ID]; !ok {
		repo.db.Unlock()
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	if other := repo.find(a.RosterID, a.Date); other != nil && other.ID != a.ID {
		repo.db.Unlock()
		return attendance.Attendance{}, attendance.ErrDuplicate
	}
	repo.db.table[a.ID] = &a
	repo.db.Unlock()

	repo.db.hub.Broadcast()
	return copyAttendance(a), nil
}

func (repo *attendanceRepository) DeleteAttendance(_ context.Context, id string) error {
	repo.db.Lock()
	if _, ok := repo.db.table[id]; !ok {
		repo.db.Unlock()
		return attendance.ErrNotFound
	}
	delete(repo.db.table, id)
	repo.db.Unlock()

	repo.db.hub.Broadcast()
	return nil
}

func (repo *attendanceRepository) Subscribe(ctx context.Context, fn func([]attendance.Attendance)) (func(), error) {
	return core.Watch(ctx, &repo.db.hub, snapshotOf(repo.snapshot), fn, nil)
}

func copyAttendance(a attendance.Attendance) attendance.Attendance {
	if a.PresentHours != nil {
		hours := make([]int, len(a.PresentHours))
		copy(hours, a.PresentHours)
		a.PresentHours = hours
	}
	return a
}
