package dummydb

import (
	"context"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/teacher"
)

type teacherRepository struct {
	db *teacherTable
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *DB) teacher.Repository {
	return &teacherRepository{db: db.teacher}
}

func (repo *teacherRepository) query() []teacher.Teacher {
	teachers := make([]teacher.Teacher, 0, len(repo.db.table))
	for _, t := range repo.db.table {
		teachers = append(teachers, *t)
	}
	return teachers
}

func (repo *teacherRepository) snapshot() []teacher.Teacher {
	repo.db.RLock()
	defer repo.db.RUnlock()
	teachers := repo.query()
	teacher.SortByName(teachers)
	return teachers
}

func (repo *teacherRepository) CheckCodeUniqueness(_ context.Context, code string, excludedID ...string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, t := range repo.db.table {
		if t.Code == code && !isExcluded(t.ID, excludedID) {
			return teacher.ErrCodeExists
		}
	}
	return nil
}

func (repo *teacherRepository) ListTeachers(_ context.Context, filter teacher.QueryFilter, ordering ...core.DBOrdering) ([]teacher.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	teachers := make([]teacher.Teacher, 0)
	for _, t := range repo.query() {
		if filter.Match(t) {
			teachers = append(teachers, t)
		}
	}
	if len(ordering) > 0 {
		teacher.SortTeachers(teachers, ordering...)
	}
	return teachers, nil
}

func (repo *teacherRepository) GetTeacher(_ context.Context, id string) (teacher.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.table[id]; ok {
		return *t, nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) GetTeacherByCode(_ context.Context, code string) (teacher.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, t := range repo.db.table {
		if t.Code == code {
			return *t, nil
		}
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *teacherRepository) CreateTeacher(_ context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	repo.db.Lock()
	repo.db.table[t.ID] = &t
	repo.db.Unlock()

	repo.db.hub.Broadcast()
	return t, nil
}

func (repo *teacherRepository) UpdateTeacher(_ context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	repo.db.Lock()
	if _, ok := repo.db.table[t.ID]; !ok {
		repo.db.Unlock()
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	repo.db.table[t.ID] = &t
	repo.db.Unlock()

	repo.db.hub.Broadcast()
	return t, nil
}

func (repo *teacherRepository) DeleteTeacher(_ context.Context, id string) error {
	repo.db.Lock()
	if _, ok := repo.db.table[id]; !ok {
		repo.db.Unlock()
		return teacher.ErrNotFound
	}
	delete(repo.db.table, id)
	repo.db.Unlock()

	repo.db.hub.Broadcast()
	return nil
}

func (repo *teacherRepository) Subscribe(ctx context.Context, fn func([]teacher.Teacher)) (func(), error) {
	return core.Watch(ctx, &repo.db.hub, snapshotOf(repo.snapshot), fn, nil)
}
