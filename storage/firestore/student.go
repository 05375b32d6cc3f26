package firestorerepos

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"github.com/trezcool/absensi/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func decodeStudent(doc *firestore.DocumentSnapshot) (student.Student, error) {
	var s student.Student
	if err := doc.DataTo(&s); err != nil {
		return student.Student{}, errors.Wrap(err, "decoding student")
	}
	s.ID = doc.Ref.ID
	return s, nil
}

func (repo *studentRepository) coll() *firestore.CollectionRef {
	return repo.db.collection(studentsCollection)
}

func (repo *studentRepository) byNIS(nis string) firestore.Query {
	return repo.coll().Where("nis", "==", nis).Limit(1)
}

func (repo *studentRepository) CheckNISUniqueness(ctx context.Context, nis string, excludedID ...string) error {
	students, err := readAll(repo.byNIS(nis).Documents(ctx), decodeStudent)
	if err != nil {
		return errors.Wrap(err, "checking student NIS uniqueness")
	}
	for _, s := range students {
		if !contains(excludedID, s.ID) {
			return student.ErrNISExists
		}
	}
	return nil
}

func (repo *studentRepository) ListStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	q := repo.coll().Query
	if filter.Barak != "" {
		q = q.Where("barak", "==", filter.Barak)
	}
	if filter.ClassID != "" {
		q = q.Where("class_id", "==", filter.ClassID)
	}
	all, err := readAll(q.Documents(ctx), decodeStudent)
	if err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	students := make([]student.Student, 0, len(all))
	for _, s := range all {
		if filter.Match(s) {
			students = append(students, s)
		}
	}
	student.SortStudents(students)
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string) (student.Student, error) {
	ref := repo.db.doc(studentsCollection, id)
	if ref == nil {
		return student.Student{}, student.ErrNotFound
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		return student.Student{}, trapNotFoundErr(err, student.ErrNotFound, "finding student by ID")
	}
	return decodeStudent(doc)
}

func (repo *studentRepository) save(ctx context.Context, s student.Student, create bool) error {
	ref := repo.db.doc(studentsCollection, s.ID)
	if ref == nil {
		return student.ErrNotFound
	}
	err := repo.db.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docs, err := tx.Documents(repo.byNIS(s.NIS)).GetAll()
		if err != nil {
			return err
		}
		if len(docs) > 0 && docs[0].Ref.ID != s.ID {
			return student.ErrNISExists
		}
		if create {
			return tx.Create(ref, s)
		}
		if _, err = tx.Get(ref); err != nil {
			if isNotFound(err) {
				return student.ErrNotFound
			}
			return err
		}
		return tx.Set(ref, s)
	})
	return trapTxErr(err, "saving student", student.ErrNISExists, student.ErrNotFound)
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	if err := repo.save(ctx, s, true); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	if err := repo.save(ctx, s, false); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	return repo.db.remove(ctx, repo.db.doc(studentsCollection, id), student.ErrNotFound)
}
