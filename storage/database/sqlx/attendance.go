package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/attendance"
)

const attendanceColumns = `id, roster_id, to_char(date, 'YYYY-MM-DD') AS date, present_hours, keterangan, created_at, updated_at`

type attendanceRow struct {
	ID           string        `db:"id"`
	RosterID     string        `db:"roster_id"`
	Date         string        `db:"date"`
	PresentHours pq.Int64Array `db:"present_hours"`
	Keterangan   null.String   `db:"keterangan"`
	CreatedAt    time.Time     `db:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at"`
}

func toAttendanceRow(a attendance.Attendance) attendanceRow {
	return attendanceRow{
		ID:           a.ID,
		RosterID:     a.RosterID,
		Date:         a.Date,
		PresentHours: toInt64s(a.PresentHours),
		Keterangan:   null.NewString(a.Keterangan, a.Keterangan != ""),
		CreatedAt:    a.CreatedAt.UTC(),
		UpdatedAt:    a.UpdatedAt.UTC(),
	}
}

func (row attendanceRow) attendance() attendance.Attendance {
	return attendance.Attendance{
		ID:           row.ID,
		RosterID:     row.RosterID,
		Date:         row.Date,
		PresentHours: toInts(row.PresentHours),
		Keterangan:   row.Keterangan.String,
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

type attendanceRepository struct {
	db       *sqlx.DB
	notifier *Notifier
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB, notifier *Notifier) attendance.Repository {
	return &attendanceRepository{db: db, notifier: notifier}
}

func (repo *attendanceRepository) list(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Attendance, error) {
	// invalid bounds match nothing
	for _, d := range []string{filter.From, filter.To} {
		if d != "" {
			if _, err := core.ParseDate(d); err != nil {
				return []attendance.Attendance{}, nil
			}
		}
	}

	var (
		where []string
		args  []interface{}
	)
	if filter.From != "" {
		args = append(args, filter.From)
		where = append(where, fmt.Sprintf("attendance.date >= $%d::date", len(args)))
	}
	if filter.To != "" {
		args = append(args, filter.To)
		where = append(where, fmt.Sprintf("attendance.date <= $%d::date", len(args)))
	}
	if len(filter.RosterIDs) > 0 {
		args = append(args, pq.Array(validIDs(filter.RosterIDs)))
		where = append(where, fmt.Sprintf("roster_id = ANY($%d::uuid[])", len(args)))
	}

	q := `SELECT ` + attendanceColumns + ` FROM attendance`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY attendance.date, roster_id"
	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]attendance.Attendance, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.attendance())
	}
	return records, nil
}

func (repo *attendanceRepository) ListAttendance(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Attendance, error) {
	if len(filter.RosterIDs) > 0 && len(validIDs(filter.RosterIDs)) == 0 {
		return []attendance.Attendance{}, nil
	}
	return repo.list(ctx, filter)
}

func (repo *attendanceRepository) GetAttendance(ctx context.Context, id string) (attendance.Attendance, error) {
	if !validID(id) {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	var row attendanceRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+attendanceColumns+` FROM attendance WHERE id = $1`, id); err != nil {
		return attendance.Attendance{}, trapNoRowsErr(err, attendance.ErrNotFound, "finding attendance by ID")
	}
	return row.attendance(), nil
}

func (repo *attendanceRepository) FindAttendance(ctx context.Context, rosterID, date string) (attendance.Attendance, error) {
	if !validID(rosterID) {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	if _, err := core.ParseDate(date); err != nil {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	var row attendanceRow
	q := `SELECT ` + attendanceColumns + ` FROM attendance WHERE roster_id = $1 AND attendance.date = $2::date`
	if err := repo.db.GetContext(ctx, &row, q, rosterID, date); err != nil {
		return attendance.Attendance{}, trapNoRowsErr(err, attendance.ErrNotFound, "finding attendance by roster entry and date")
	}
	return row.attendance(), nil
}

// CreateAttendance returns attendance.ErrDuplicate when a record exists for the same roster entry and date.
func (repo *attendanceRepository) CreateAttendance(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	q := `INSERT INTO attendance (id, roster_id, date, present_hours, keterangan, created_at, updated_at)
		VALUES (:id, :roster_id, CAST(:date AS date), :present_hours, :keterangan, :created_at, :updated_at)`
	row := toAttendanceRow(a)
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		if isUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrDuplicate
		}
		return attendance.Attendance{}, errors.Wrap(err, "inserting attendance")
	}
	return row.attendance(), nil
}

func (repo *attendanceRepository) UpdateAttendance(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	if !validID(a.ID) {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	q := `UPDATE attendance SET roster_id = :roster_id, date = CAST(:date AS date), present_hours = :present_hours,
		keterangan = :keterangan, updated_at = :updated_at WHERE id = :id`
	row := toAttendanceRow(a)
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Attendance{}, attendance.ErrDuplicate
		}
		return attendance.Attendance{}, errors.Wrap(err, "updating attendance")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	return row.attendance(), nil
}

func (repo *attendanceRepository) DeleteAttendance(ctx context.Context, id string) error {
	if !validID(id) {
		return attendance.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting attendance")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

func (repo *attendanceRepository) Subscribe(ctx context.Context, fn func([]attendance.Attendance)) (func(), error) {
	snapshot := func(ctx context.Context) ([]attendance.Attendance, error) {
		return repo.list(ctx, attendance.QueryFilter{})
	}
	return subscribe(ctx, repo.notifier, attendanceChannel, snapshot, fn)
}
