package roster_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/roster"
	"github.com/trezcool/absensi/core/teacher"
	dummydb "github.com/trezcool/absensi/storage/database/dummy"
	testutil "github.com/trezcool/absensi/tests"
)

type fixture struct {
	svc        roster.Service
	rosterRepo roster.Repository
	teacherSvc teacher.Service
	budi, sari teacher.Teacher
}

func setup(t *testing.T) fixture {
	db := dummydb.Open()
	teacherRepo := dummydb.NewTeacherRepository(db)
	rosterRepo := dummydb.NewRosterRepository(db)
	teacherSvc := teacher.NewService(teacherRepo)
	return fixture{
		svc:        roster.NewService(rosterRepo, teacherSvc),
		rosterRepo: rosterRepo,
		teacherSvc: teacherSvc,
		budi:       testutil.CreateTeacher(t, teacherRepo, "Budi", "BDI"),
		sari:       testutil.CreateTeacher(t, teacherRepo, "Sari", "SRI"),
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	existing := testutil.CreateEntry(t, f.rosterRepo, f.budi.ID, "X-1", roster.Senin, 1, 2, 3)

	tests := []struct {
		name          string
		ne            roster.NewEntry
		wantConflicts []roster.Conflict
		wantMessage   string
		wantField     string
	}{
		{
			name: "class taken",
			ne:   roster.NewEntry{TeacherID: f.sari.ID, ClassID: "X-1", Day: roster.Senin, Hours: []int{3, 4}},
			wantConflicts: []roster.Conflict{
				{Hour: 3, Type: roster.ConflictClass, ConflictWith: "Budi", EntryID: existing.ID},
			},
			wantMessage: "Bentrok jam ke-3: kelas X-1 sudah diajar oleh Budi",
		},
		{
			name: "teacher busy",
			ne:   roster.NewEntry{TeacherID: f.budi.ID, ClassID: "X-2", Day: roster.Senin, Hours: []int{1}},
			wantConflicts: []roster.Conflict{
				{Hour: 1, Type: roster.ConflictTeacher, ConflictWith: "X-1", EntryID: existing.ID},
			},
			wantMessage: "Bentrok jam ke-1: guru Budi sudah mengajar di kelas X-1",
		},
		{name: "other day", ne: roster.NewEntry{TeacherID: f.budi.ID, ClassID: "X-1", Day: roster.Selasa, Hours: []int{1, 2}}},
		{name: "free hours", ne: roster.NewEntry{TeacherID: f.sari.ID, ClassID: "X-1", Day: roster.Senin, Hours: []int{4, 5}}},
		{name: "unknown teacher", ne: roster.NewEntry{TeacherID: "nobody", ClassID: "X-3", Day: roster.Senin, Hours: []int{7}}, wantField: "teacher_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := f.svc.Create(ctx, tt.ne)
			switch {
			case tt.wantConflicts != nil:
				var cerr *roster.ConflictError
				if !errors.As(err, &cerr) {
					t.Fatalf("Create() error = %v; want *ConflictError", err)
				}
				assert.Equal(t, tt.wantConflicts, cerr.Conflicts)
				assert.Equal(t, tt.wantMessage, cerr.Message)
			case tt.wantField != "":
				var verr *core.ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("Create() error = %v; want *ValidationError", err)
				}
				assert.Equal(t, tt.wantField, verr.Fields[0].Field)
			default:
				assert.NoError(t, err)
				assert.NotEmpty(t, e.ID)
				got, err := f.svc.GetByID(ctx, e.ID)
				assert.NoError(t, err)
				assert.Equal(t, e, got)
			}
		})
	}
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	e1 := testutil.CreateEntry(t, f.rosterRepo, f.budi.ID, "X-1", roster.Senin, 1, 2)
	testutil.CreateEntry(t, f.rosterRepo, f.sari.ID, "X-2", roster.Senin, 3)

	// the entry does not conflict with its own previous version
	updated, err := f.svc.Update(ctx, e1.ID, roster.UpdateEntry{TeacherID: f.budi.ID, ClassID: "X-1", Day: roster.Senin, Hours: []int{1, 2, 4}})
	assert.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4}, updated.Hours)

	_, err = f.svc.Update(ctx, e1.ID, roster.UpdateEntry{TeacherID: f.budi.ID, ClassID: "X-2", Day: roster.Senin, Hours: []int{3}})
	var cerr *roster.ConflictError
	if assert.True(t, errors.As(err, &cerr)) {
		assert.Equal(t, "Bentrok jam ke-3: kelas X-2 sudah diajar oleh Sari", cerr.Message)
	}

	got, err := f.svc.GetByID(ctx, e1.ID)
	assert.NoError(t, err)
	assert.Equal(t, updated, got, "rejected update leaves the entry untouched")

	_, err = f.svc.Update(ctx, "missing", roster.UpdateEntry{Day: roster.Senin, Hours: []int{1}})
	assert.Equal(t, roster.ErrNotFound, err)
}

func TestService_Check(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	testutil.CreateEntry(t, f.rosterRepo, f.budi.ID, "X-1", roster.Rabu, 5, 6)
	testutil.CreateEntry(t, f.rosterRepo, "deleted-teacher", "X-1", roster.Rabu, 7)

	res, err := f.svc.Check(ctx, roster.Candidate{TeacherID: f.sari.ID, ClassID: " X-1 ", Day: "rabu", Hours: []int{7, 6, 6}})
	assert.NoError(t, err)
	assert.Equal(t, []int{6, 7}, res.Hours)
	assert.Equal(t, "Bentrok jam ke-6, 7: kelas X-1 sudah diajar oleh Budi, Unknown", res.Message)

	res, err = f.svc.Check(ctx, roster.Candidate{TeacherID: f.sari.ID, ClassID: "X-1", Day: roster.Rabu})
	assert.NoError(t, err)
	assert.Equal(t, []roster.Conflict{}, res.Conflicts)
	assert.Equal(t, "", res.Message)

	_, err = f.svc.Check(ctx, roster.Candidate{TeacherID: f.sari.ID, ClassID: "X-1", Day: "Minggu", Hours: []int{1}})
	var verr *core.ValidationError
	if assert.True(t, errors.As(err, &verr)) {
		assert.Equal(t, "day_of_week", verr.Fields[0].Field)
	}
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	e3 := testutil.CreateEntry(t, f.rosterRepo, f.budi.ID, "X-2", roster.Selasa, 1)
	e2 := testutil.CreateEntry(t, f.rosterRepo, f.sari.ID, "X-1", roster.Senin, 4)
	e1 := testutil.CreateEntry(t, f.rosterRepo, f.budi.ID, "X-1", roster.Senin, 1, 2)

	entries, err := f.svc.Query(ctx, roster.QueryFilter{})
	assert.NoError(t, err)
	assert.Equal(t, []roster.Entry{e1, e2, e3}, entries)

	entries, err = f.svc.Query(ctx, roster.QueryFilter{TeacherID: f.budi.ID, Day: "senin"})
	assert.NoError(t, err)
	assert.Equal(t, []roster.Entry{e1}, entries)
}

// readBarrier holds every ListEntries call until n calls have read the roster.
type readBarrier struct {
	roster.Repository
	wg *sync.WaitGroup
}

func (r readBarrier) ListEntries(ctx context.Context, filter roster.QueryFilter) ([]roster.Entry, error) {
	entries, err := r.Repository.ListEntries(ctx, filter)
	r.wg.Done()
	r.wg.Wait()
	return entries, err
}

func TestService_Create_concurrentWritesBothPass(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	wg := new(sync.WaitGroup)
	wg.Add(2)
	svc := roster.NewService(readBarrier{Repository: f.rosterRepo, wg: wg}, f.teacherSvc)

	errs := make(chan error, 2)
	for _, tchr := range []teacher.Teacher{f.budi, f.sari} {
		ne := roster.NewEntry{TeacherID: tchr.ID, ClassID: "X-1", Day: roster.Senin, Hours: []int{1}}
		go func() {
			_, err := svc.Create(ctx, ne)
			errs <- err
		}()
	}
	for i := 0; i < 2; i++ {
		assert.NoError(t, <-errs)
	}

	// no atomic check-and-write: both writes passed the gate and now double-book X-1
	entries, err := f.rosterRepo.ListEntries(ctx, roster.QueryFilter{Day: roster.Senin, ClassID: "X-1"})
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
}
