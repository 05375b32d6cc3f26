package dummydb

import (
	"context"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/roster"
)

type rosterRepository struct {
	db *rosterTable
}

var _ roster.Repository = (*rosterRepository)(nil) // interface compliance check

func NewRosterRepository(db *DB) roster.Repository {
	return &rosterRepository{db: db.roster}
}

func (repo *rosterRepository) query(filter roster.QueryFilter) []roster.Entry {
	entries := make([]roster.Entry, 0, len(repo.db.table))
	for _, e := range repo.db.table {
		if filter.Match(*e) {
			entries = append(entries, copyEntry(*e))
		}
	}
	roster.SortEntries(entries)
	return entries
}

func (repo *rosterRepository) snapshot() []roster.Entry {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(roster.QueryFilter{})
}

func (repo *rosterRepository) ListEntries(_ context.Context, filter roster.QueryFilter) ([]roster.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(filter), nil
}

func (repo *rosterRepository) GetEntry(_ context.Context, id string) (roster.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.table[id]; ok {
		return copyEntry(*e), nil
	}
	return roster.Entry{}, roster.ErrNotFound
}

func (repo *rosterRepository) CreateEntry(_ context.Context, e roster.Entry) (roster.Entry, error) {
	e = copyEntry(e)
	repo.db.Lock()
	repo.db.table[e.ID] = &e
	repo.db.Unlock()

	repo.db.hub.Broadcast()
	return copyEntry(e), nil
}

func (repo *rosterRepository) UpdateEntry(_ context.Context, e roster.Entry) (roster.Entry, error) {
	e = copyEntry(e)
	repo.db.Lock()
	if _, ok := repo.db.table[e.ID]; !ok {
		repo.db.Unlock()
		return roster.Entry{}, roster.ErrNotFound
	}
	repo.db.table[e.ID] = &e
	repo.db.Unlock()

	repo.db.hub.Broadcast()
	return copyEntry(e), nil
}

func (repo *rosterRepository) DeleteEntry(_ context.Context, id string) error {
	repo.db.Lock()
	if _, ok := repo.db.table[id]; !ok {
		repo.db.Unlock()
		return roster.ErrNotFound
	}
	delete(repo.db.table, id)
	repo.db.Unlock()

	repo.db.hub.Broadcast()
	return nil
}

func (repo *rosterRepository) Subscribe(ctx context.Context, fn func([]roster.Entry)) (func(), error) {
	return core.Watch(ctx, &repo.db.hub, snapshotOf(repo.snapshot), fn, nil)
}

// copyEntry detaches the hours from the stored entry.
func copyEntry(e roster.Entry) roster.Entry {
	if e.Hours != nil {
		hours := make([]int, len(e.Hours))
		copy(hours, e.Hours)
		e.Hours = hours
	}
	return e
}
