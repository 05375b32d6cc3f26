package firestorerepos

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"

	"github.com/trezcool/absensi/core/roster"
)

type rosterRepository struct {
	db *DB
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *DB) roster.Repository {
	return &rosterRepository{db: db}
}

func decodeEntry(doc *firestore.DocumentSnapshot) (roster.Entry, error) {
	var e roster.Entry
	if err := doc.DataTo(&e); err != nil {
		return roster.Entry{}, errors.Wrap(err, "decoding roster entry")
	}
	e.ID = doc.Ref.ID
	if e.Hours == nil {
		e.Hours = []int{}
	}
	return e, nil
}

func (repo *rosterRepository) coll() *firestore.CollectionRef {
	return repo.db.collection(rosterCollection)
}

func (repo *rosterRepository) ListEntries(ctx context.Context, filter roster.QueryFilter) ([]roster.Entry, error) {
	q := repo.coll().Query
	if filter.Day != "" {
		q = q.Where("day_of_week", "==", string(filter.Day))
	}
	if filter.TeacherID != "" {
		q = q.Where("teacher_id", "==", filter.TeacherID)
	}
	if filter.ClassID != "" {
		q = q.Where("class_id", "==", filter.ClassID)
	}
	entries, err := readAll(q.Documents(ctx), decodeEntry)
	if err != nil {
		return nil, errors.Wrap(err, "querying roster entries")
	}
	roster.SortEntries(entries)
	return entries, nil
}

func (repo *rosterRepository) GetEntry(ctx context.Context, id string) (roster.Entry, error) {
	ref := repo.db.doc(rosterCollection, id)
	if ref == nil {
		return roster.Entry{}, roster.ErrNotFound
	}
	doc, err := ref.Get(ctx)
	if err != nil {
		return roster.Entry{}, trapNotFoundErr(err, roster.ErrNotFound, "finding roster entry by ID")
	}
	return decodeEntry(doc)
}

func (repo *rosterRepository) CreateEntry(ctx context.Context, e roster.Entry) (roster.Entry, error) {
	ref := repo.db.doc(rosterCollection, e.ID)
	if ref == nil {
		return roster.Entry{}, errors.Errorf("invalid roster entry ID %q", e.ID)
	}
	if _, err := ref.Create(ctx, e); err != nil {
		return roster.Entry{}, errors.Wrap(err, "inserting roster entry")
	}
	return e, nil
}

func (repo *rosterRepository) UpdateEntry(ctx context.Context, e roster.Entry) (roster.Entry, error) {
	if err := repo.db.replace(ctx, repo.db.doc(rosterCollection, e.ID), e, roster.ErrNotFound); err != nil {
		return roster.Entry{}, err
	}
	return e, nil
}

func (repo *rosterRepository) DeleteEntry(ctx context.Context, id string) error {
	return repo.db.remove(ctx, repo.db.doc(rosterCollection, id), roster.ErrNotFound)
}

func (repo *rosterRepository) Subscribe(ctx context.Context, fn func([]roster.Entry)) (func(), error) {
	return subscribe(ctx, repo.db, repo.coll().Query, decodeEntry, roster.SortEntries, fn)
}
