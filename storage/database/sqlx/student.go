package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/absensi/core/student"
)

const studentColumns = `id, nis, name, class_id, barak, created_at, updated_at`

type studentRow struct {
	ID        string    `db:"id"`
	NIS       string    `db:"nis"`
	Name      string    `db:"name"`
	ClassID   string    `db:"class_id"`
	Barak     string    `db:"barak"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func toStudentRow(s student.Student) studentRow {
	return studentRow{
		ID:        s.ID,
		NIS:       s.NIS,
		Name:      s.Name,
		ClassID:   s.ClassID,
		Barak:     s.Barak,
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}
}

func (row studentRow) student() student.Student {
	return student.Student{
		ID:        row.ID,
		NIS:       row.NIS,
		Name:      row.Name,
		ClassID:   row.ClassID,
		Barak:     row.Barak,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CheckNISUniqueness(ctx context.Context, nis string, excludedID ...string) error {
	var found bool
	q := `SELECT true FROM student WHERE nis = $1 AND NOT (id = ANY($2::uuid[])) LIMIT 1`
	err := repo.db.GetContext(ctx, &found, q, nis, pq.Array(validIDs(excludedID)))
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "checking student NIS uniqueness")
	}
	return student.ErrNISExists
}

func (repo *studentRepository) ListStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Barak != "" {
		args = append(args, filter.Barak)
		where = append(where, fmt.Sprintf("barak = $%d", len(args)))
	}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		where = append(where, fmt.Sprintf("class_id = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%[1]d OR nis LIKE $%[1]d)", len(args)))
	}

	q := `SELECT ` + studentColumns + ` FROM student`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY class_id, name, id"

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	if !validID(id) {
		return student.Student{}, student.ErrNotFound
	}
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+studentColumns+` FROM student WHERE id = $1`, id); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student by ID")
	}
	return row.student(), nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	q := `INSERT INTO student (` + studentColumns + `)
		VALUES (:id, :nis, :name, :class_id, :barak, :created_at, :updated_at)`
	row := toStudentRow(s)
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrNISExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return row.student(), nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	if !validID(s.ID) {
		return student.Student{}, student.ErrNotFound
	}
	q := `UPDATE student SET nis = :nis, name = :name, class_id = :class_id, barak = :barak,
		updated_at = :updated_at WHERE id = :id`
	row := toStudentRow(s)
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrNISExists
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return row.student(), nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	if !validID(id) {
		return student.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.ErrNotFound
	}
	return nil
}
