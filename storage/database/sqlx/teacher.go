package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/teacher"
)

const teacherColumns = `id, name, code, created_at, updated_at`

var teacherOrderings = map[string]string{
	"name":       "name",
	"code":       "code",
	"created_at": "created_at",
}

type teacherRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Code      string    `db:"code"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toTeacherRow(t teacher.Teacher) teacherRow {
	return teacherRow{ID: t.ID, Name: t.Name, Code: t.Code, CreatedAt: t.CreatedAt.UTC(), UpdatedAt: t.UpdatedAt.UTC()}
}

func (row teacherRow) teacher() teacher.Teacher {
	return teacher.Teacher{ID: row.ID, Name: row.Name, Code: row.Code, CreatedAt: row.CreatedAt.UTC(), UpdatedAt: row.UpdatedAt.UTC()}
}

type teacherRepository struct {
	db       *sqlx.DB
	notifier *Notifier
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *sqlx.DB, notifier *Notifier) teacher.Repository {
	return &teacherRepository{db: db, notifier: notifier}
}

func (repo *teacherRepository) CheckCodeUniqueness(ctx context.Context, code string, excludedID ...string) error {
	var found bool
	q := `SELECT true FROM teacher WHERE code = $1 AND NOT (id = ANY($2::uuid[])) LIMIT 1`
	err := repo.db.GetContext(ctx, &found, q, code, pq.Array(validIDs(excludedID)))
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "checking teacher code uniqueness")
	}
	return teacher.ErrCodeExists
}

func (repo *teacherRepository) list(ctx context.Context, filter teacher.QueryFilter, ordering []core.DBOrdering) ([]teacher.Teacher, error) {
	q := `SELECT ` + teacherColumns + ` FROM teacher`
	var args []interface{}
	if filter.Search != "" {
		q += ` WHERE name ILIKE $1 OR code ILIKE $1`
		args = append(args, "%"+filter.Search+"%")
	}
	q += ` ORDER BY ` + core.OrderBy(ordering, teacherOrderings, "name ASC") + `, id`

	var rows []teacherRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]teacher.Teacher, 0, len(rows))
	for _, row := range rows {
		teachers = append(teachers, row.teacher())
	}
	return teachers, nil
}

func (repo *teacherRepository) ListTeachers(ctx context.Context, filter teacher.QueryFilter, ordering ...core.DBOrdering) ([]teacher.Teacher, error) {
	return repo.list(ctx, filter, ordering)
}

func (repo *teacherRepository) GetTeacher(ctx context.Context, id string) (teacher.Teacher, error) {
	if !validID(id) {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	var row teacherRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+teacherColumns+` FROM teacher WHERE id = $1`, id); err != nil {
		return teacher.Teacher{}, trapNoRowsErr(err, teacher.ErrNotFound, "finding teacher by ID")
	}
	return row.teacher(), nil
}

func (repo *teacherRepository) GetTeacherByCode(ctx context.Context, code string) (teacher.Teacher, error) {
	var row teacherRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+teacherColumns+` FROM teacher WHERE code = $1`, code); err != nil {
		return teacher.Teacher{}, trapNoRowsErr(err, teacher.ErrNotFound, "finding teacher by code")
	}
	return row.teacher(), nil
}

func (repo *teacherRepository) CreateTeacher(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	q := `INSERT INTO teacher (` + teacherColumns + `) VALUES (:id, :name, :code, :created_at, :updated_at)`
	row := toTeacherRow(t)
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return teacher.Teacher{}, teacher.ErrCodeExists
		}
		return teacher.Teacher{}, errors.Wrap(err, "inserting teacher")
	}
	return row.teacher(), nil
}

func (repo *teacherRepository) UpdateTeacher(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	if !validID(t.ID) {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	q := `UPDATE teacher SET name = :name, code = :code, updated_at = :updated_at WHERE id = :id`
	row := toTeacherRow(t)
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		if isUniqueViolation(err) {
			return teacher.Teacher{}, teacher.ErrCodeExists
		}
		return teacher.Teacher{}, errors.Wrap(err, "updating teacher")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return row.teacher(), nil
}

func (repo *teacherRepository) DeleteTeacher(ctx context.Context, id string) error {
	if !validID(id) {
		return teacher.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM teacher WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return teacher.ErrNotFound
	}
	return nil
}

func (repo *teacherRepository) Subscribe(ctx context.Context, fn func([]teacher.Teacher)) (func(), error) {
	snapshot := func(ctx context.Context) ([]teacher.Teacher, error) {
		return repo.list(ctx, teacher.QueryFilter{}, nil)
	}
	return subscribe(ctx, repo.notifier, teacherChannel, snapshot, fn)
}
