package sqlxrepos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/absensi/core/roster"
)

const rosterColumns = `id, teacher_id, class_id, day_of_week, hours, created_at, updated_at`

type rosterRow struct {
	ID        string        `db:"id"`
	TeacherID string        `db:"teacher_id"`
	ClassID   string        `db:"class_id"`
	Day       string        `db:"day_of_week"`
	Hours     pq.Int64Array `db:"hours"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}

func toRosterRow(e roster.Entry) rosterRow {
	return rosterRow{
		ID:        e.ID,
		TeacherID: e.TeacherID,
		ClassID:   e.ClassID,
		Day:       string(e.Day),
		Hours:     toInt64s(e.Hours),
		CreatedAt: e.CreatedAt.UTC(),
		UpdatedAt: e.UpdatedAt.UTC(),
	}
}

func (row rosterRow) entry() roster.Entry {
	return roster.Entry{
		ID:        row.ID,
		TeacherID: row.TeacherID,
		ClassID:   row.ClassID,
		Day:       roster.Day(row.Day),
		Hours:     toInts(row.Hours),
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

type rosterRepository struct {
	db       *sqlx.DB
	notifier *Notifier
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *sqlx.DB, notifier *Notifier) roster.Repository {
	return &rosterRepository{db: db, notifier: notifier}
}

func (repo *rosterRepository) list(ctx context.Context, filter roster.QueryFilter) ([]roster.Entry, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.Day != "" {
		args = append(args, string(filter.Day))
		where = append(where, fmt.Sprintf("day_of_week = $%d", len(args)))
	}
	if filter.TeacherID != "" {
		if !validID(filter.TeacherID) {
			return []roster.Entry{}, nil
		}
		args = append(args, filter.TeacherID)
		where = append(where, fmt.Sprintf("teacher_id = $%d", len(args)))
	}
	if filter.ClassID != "" {
		args = append(args, filter.ClassID)
		where = append(where, fmt.Sprintf("class_id = $%d", len(args)))
	}

	q := `SELECT ` + rosterColumns + ` FROM roster_entry`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	var rows []rosterRow
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying roster entries")
	}
	entries := make([]roster.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}
	roster.SortEntries(entries)
	return entries, nil
}

func (repo *rosterRepository) ListEntries(ctx context.Context, filter roster.QueryFilter) ([]roster.Entry, error) {
	return repo.list(ctx, filter)
}

func (repo *rosterRepository) GetEntry(ctx context.Context, id string) (roster.Entry, error) {
	if !validID(id) {
		return roster.Entry{}, roster.ErrNotFound
	}
	var row rosterRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+rosterColumns+` FROM roster_entry WHERE id = $1`, id); err != nil {
		return roster.Entry{}, trapNoRowsErr(err, roster.ErrNotFound, "finding roster entry by ID")
	}
	return row.entry(), nil
}

func (repo *rosterRepository) CreateEntry(ctx context.Context, e roster.Entry) (roster.Entry, error) {
	q := `INSERT INTO roster_entry (` + rosterColumns + `)
		VALUES (:id, :teacher_id, :class_id, :day_of_week, :hours, :created_at, :updated_at)`
	row := toRosterRow(e)
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return roster.Entry{}, errors.Wrap(err, "inserting roster entry")
	}
	return row.entry(), nil
}

func (repo *rosterRepository) UpdateEntry(ctx context.Context, e roster.Entry) (roster.Entry, error) {
	if !validID(e.ID) {
		return roster.Entry{}, roster.ErrNotFound
	}
	q := `UPDATE roster_entry SET teacher_id = :teacher_id, class_id = :class_id, day_of_week = :day_of_week,
		hours = :hours, updated_at = :updated_at WHERE id = :id`
	row := toRosterRow(e)
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return roster.Entry{}, errors.Wrap(err, "updating roster entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return roster.Entry{}, roster.ErrNotFound
	}
	return row.entry(), nil
}

func (repo *rosterRepository) DeleteEntry(ctx context.Context, id string) error {
	if !validID(id) {
		return roster.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM roster_entry WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting roster entry")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return roster.ErrNotFound
	}
	return nil
}

func (repo *rosterRepository) Subscribe(ctx context.Context, fn func([]roster.Entry)) (func(), error) {
	snapshot := func(ctx context.Context) ([]roster.Entry, error) {
		return repo.list(ctx, roster.QueryFilter{})
	}
	return subscribe(ctx, repo.notifier, rosterChannel, snapshot, fn)
}

func toInt64s(ints []int) pq.Int64Array {
	res := make(pq.Int64Array, 0, len(ints))
	for _, i := range ints {
		res = append(res, int64(i))
	}
	return res
}

func toInts(ints pq.Int64Array) []int {
	res := make([]int, 0, len(ints))
	for _, i := range ints {
		res = append(res, int(i))
	}
	return res
}
