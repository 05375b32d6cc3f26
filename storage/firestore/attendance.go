package firestorerepos

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func decodeAttendance(doc *firestore.DocumentSnapshot) (attendance.Attendance, error) {
	var a attendance.Attendance
	if err := doc.DataTo(&a); err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "decoding attendance")
	}
	a.ID = doc.Ref.ID
	if a.PresentHours == nil {
		a.PresentHours = []int{}
	}
	return a, nil
}

func (repo *attendanceRepository) coll() *firestore.CollectionRef {
	return repo.db.collection(attendanceCollection)
}

func (repo *attendanceRepository) byRosterAndDate(rosterID, date string) firestore.Query {
	return repo.coll().Where("roster_id", "==", rosterID).Where("date", "==", date).Limit(1)
}

// ListAttendance filters the dates on the server and the roster entries in memory.
func (repo *attendanceRepository) ListAttendance(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Attendance, error) {
	q := repo.coll().Query
	for _, bound := range []struct {
		date string
		op   string
	}{{filter.From, ">="}, {filter.To, "<="}} {
		if bound.date == "" {
			continue
		}
		// invalid bounds match nothing
		if _, err := core.ParseDate(bound.date); err != nil {
			return []attendance.Attendance{}, nil
		}
		q = q.Where("date", bound.op, bound.date)
	}

	all, err := readAll(q.Documents(ctx), decodeAttendance)
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]attendance.Attendance, 0, len(all))
	for _, a := range all {
		if filter.Match(a) {
			records = append(records, a)
		}
	}
	attendance.SortRecords(records)
	return records, nil
}

func (repo *attendanceRepository) GetAttendance(ctx context.Context, id string) (attendance.Attendance, error) {
	ref := repo.db.doc(attendanceCollection, id)
	if ref == nil {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		return attendance.Attendance{}, trapNotFoundErr(err, attendance.ErrNotFound, "finding attendance by ID")
	}
	return decodeAttendance(doc)
}

func (repo *attendanceRepository) FindAttendance(ctx context.Context, rosterID, date string) (attendance.Attendance, error) {
	records, err := readAll(repo.byRosterAndDate(rosterID, date).Documents(ctx), decodeAttendance)
	if err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "finding attendance by roster entry and date")
	}
	if len(records) == 0 {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	return records[0], nil
}

// save writes a within a transaction that checks there is no other record for the same
// roster entry and date.
func (repo *attendanceRepository) save(ctx context.Context, a attendance.Attendance, create bool) error {
	ref := repo.db.doc(attendanceCollection, a.ID)
	if ref == nil {
		return attendance.ErrNotFound
	}
	err := repo.db.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := tx.Documents(repo.byRosterAndDate(a.RosterID, a.Date)).GetAll()
		if err != nil {
			return err
		}
		if len(docs) > 0 && docs[0].Ref.ID != a.ID {
			return attendance.ErrDuplicate
		}
		if create {
			return tx.Create(ref, a)
		}
		if _, err = tx.Get(ref); err != nil {
			if isNotFound(err) {
				return attendance.ErrNotFound
			}
			return err
		}
		return tx.Set(ref, a)
	})
	return trapTxErr(err, "saving attendance", attendance.ErrDuplicate, attendance.ErrNotFound)
}

func (repo *attendanceRepository) CreateAttendance(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	if err := repo.save(ctx, a, true); err != nil {
		return attendance.Attendance{}, err
	}
	return a, nil
}

func (repo *attendanceRepository) UpdateAttendance(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	if err := repo.save(ctx, a, false); err != nil {
		return attendance.Attendance{}, err
	}
	return a, nil
}

func (repo *attendanceRepository) DeleteAttendance(ctx context.Context, id string) error {
	return repo.db.remove(ctx, repo.db.doc(attendanceCollection, id), attendance.ErrNotFound)
}

func (repo *attendanceRepository) Subscribe(ctx context.Context, fn func([]attendance.Attendance)) (func(), error) {
	return subscribe(ctx, repo.db, repo.coll().Query, decodeAttendance, attendance.SortRecords, fn)
}
