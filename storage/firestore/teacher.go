package firestorerepos

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/teacher"
)

type teacherRepository struct {
	db *DB
}

var _ teacher.Repository = (*teacherRepository)(nil) // interface compliance check

func NewTeacherRepository(db *DB) teacher.Repository {
	return &teacherRepository{db: db}
}

func decodeTeacher(doc *firestore.DocumentSnapshot) (teacher.Teacher, error) {
	var t teacher.Teacher
	if err := doc.DataTo(&t); err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "decoding teacher")
	}
	t.ID = doc.Ref.ID
	return t, nil
}

func (repo *teacherRepository) coll() *firestore.CollectionRef {
	return repo.db.collection(teachersCollection)
}

func (repo *teacherRepository) byCode(code string) firestore.Query {
	return repo.coll().Where("code", "==", code).Limit(1)
}

func (repo *teacherRepository) CheckCodeUniqueness(ctx context.Context, code string, excludedID ...string) error {
	teachers, err := readAll(repo.byCode(code).Documents(ctx), decodeTeacher)
	if err != nil {
		return errors.Wrap(err, "checking teacher code uniqueness")
	}
	for _, t := range teachers {
		if !contains(excludedID, t.ID) {
			return teacher.ErrCodeExists
		}
	}
	return nil
}

func (repo *teacherRepository) ListTeachers(ctx context.Context, filter teacher.QueryFilter, ordering ...core.DBOrdering) ([]teacher.Teacher, error) {
	all, err := readAll(repo.coll().Documents(ctx), decodeTeacher)
	if err != nil {
		return nil, errors.Wrap(err, "querying teachers")
	}
	teachers := make([]teacher.Teacher, 0, len(all))
	for _, t := range all {
		if filter.Match(t) {
			teachers = append(teachers, t)
		}
	}
	if len(ordering) > 0 {
		teacher.SortTeachers(teachers, ordering...)
	} else {
		teacher.SortByName(teachers)
	}
	return teachers, nil
}

func (repo *teacherRepository) GetTeacher(ctx context.Context, id string) (teacher.Teacher, error) {
	ref := repo.db.doc(teachersCollection, id)
	if ref == nil {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		return teacher.Teacher{}, trapNotFoundErr(err, teacher.ErrNotFound, "finding teacher by ID")
	}
	return decodeTeacher(doc)
}

func (repo *teacherRepository) GetTeacherByCode(ctx context.Context, code string) (teacher.Teacher, error) {
	teachers, err := readAll(repo.byCode(code).Documents(ctx), decodeTeacher)
	if err != nil {
		return teacher.Teacher{}, errors.Wrap(err, "finding teacher by code")
	}
	if len(teachers) == 0 {
		return teacher.Teacher{}, teacher.ErrNotFound
	}
	return teachers[0], nil
}

// save writes t within a transaction that checks the code uniqueness.
func (repo *teacherRepository) save(ctx context.Context, t teacher.Teacher, create bool) error {
	ref := repo.db.doc(teachersCollection, t.ID)
	if ref == nil {
		return teacher.ErrNotFound
	}
	err := repo.db.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := tx.Documents(repo.byCode(t.Code)).GetAll()
		if err != nil {
			return err
		}
		if len(docs) > 0 && docs[0].Ref.ID != t.ID {
			return teacher.ErrCodeExists
		}
		if create {
			return tx.Create(ref, t)
		}
		if _, err = tx.Get(ref); err != nil {
			if isNotFound(err) {
				return teacher.ErrNotFound
			}
			return err
		}
		return tx.Set(ref, t)
	})
	return trapTxErr(err, "saving teacher", teacher.ErrCodeExists, teacher.ErrNotFound)
}

func (repo *teacherRepository) CreateTeacher(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	if err := repo.save(ctx, t, true); err != nil {
		return teacher.Teacher{}, err
	}
	return t, nil
}

func (repo *teacherRepository) UpdateTeacher(ctx context.Context, t teacher.Teacher) (teacher.Teacher, error) {
	if err := repo.save(ctx, t, false); err != nil {
		return teacher.Teacher{}, err
	}
	return t, nil
}

func (repo *teacherRepository) DeleteTeacher(ctx context.Context, id string) error {
	return repo.db.remove(ctx, repo.db.doc(teachersCollection, id), teacher.ErrNotFound)
}

func (repo *teacherRepository) Subscribe(ctx context.Context, fn func([]teacher.Teacher)) (func(), error) {
	return subscribe(ctx, repo.db, repo.coll().Query, decodeTeacher, teacher.SortByName, fn)
}

func contains(ids []string, id string) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}
