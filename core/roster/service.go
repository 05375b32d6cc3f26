package roster

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/teacher"
)

var (
	ErrNotFound = errors.New("roster entry not found")

	errTeacherNotFound = "teacher not found"
)

type (
	Repository interface {
		ListEntries(ctx context.Context, filter QueryFilter) ([]Entry, error)
		GetEntry(ctx context.Context, id string) (Entry, error)
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		UpdateEntry(ctx context.Context, e Entry) (Entry, error)
		DeleteEntry(ctx context.Context, id string) error
		// Subscribe calls fn with the current entries, then again after every change,
		// until the returned func is called or ctx is done.
		Subscribe(ctx context.Context, fn func([]Entry)) (func(), error)
	}

	// CheckResult is the outcome of a pre-flight conflict check.
	CheckResult struct {
		Conflicts []Conflict `json:"conflicts"`
		Hours     []int      `json:"hours"`
		Message   string     `json:"message"`
	}

	// Service manages the roster.
	// Conflicts are checked against a snapshot of the roster before writing: there is no atomic
	// check-and-write, so two concurrent writes may both pass the check (last write wins).
	Service interface {
		Query(ctx context.Context, filter QueryFilter) ([]Entry, error)
		GetByID(ctx context.Context, id string) (Entry, error)
		Check(ctx context.Context, c Candidate) (CheckResult, error)
		Create(ctx context.Context, ne NewEntry) (Entry, error)
		Update(ctx context.Context, id string, ue UpdateEntry) (Entry, error)
		Delete(ctx context.Context, id string) error
		Subscribe(ctx context.Context, fn func([]Entry)) (func(), error)
	}

	service struct {
		repo       Repository
		teacherSvc teacher.Service
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, teacherSvc teacher.Service) Service {
	return &service{repo: repo, teacherSvc: teacherSvc}
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	filter.Clean()
	entries, err := svc.repo.ListEntries(ctx, filter)
	if err != nil {
		return nil, err
	}
	SortEntries(entries)
	return entries, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntry(ctx, id)
}

func (svc *service) check(ctx context.Context, c Candidate) (CheckResult, error) {
	entries, err := svc.repo.ListEntries(ctx, QueryFilter{Day: c.Day})
	if err != nil {
		return CheckResult{}, err
	}
	names, err := svc.teacherSvc.Names(ctx)
	if err != nil {
		return CheckResult{}, err
	}

	conflicts, err := CheckConflicts(c, entries, names)
	if err != nil {
		return CheckResult{}, core.NewValidationError(err, core.FieldError{Field: "day_of_week", Error: err.Error()})
	}
	return CheckResult{
		Conflicts: conflicts,
		Hours:     ConflictHours(conflicts),
		Message:   FormatConflicts(c, names.Get(c.TeacherID), conflicts),
	}, nil
}

// Check runs the conflict check of c against the current roster.
func (svc *service) Check(ctx context.Context, c Candidate) (CheckResult, error) {
	c.Day = cleanDay(c.Day)
	c.ClassID = core.CleanString(c.ClassID)
	c.TeacherID = core.CleanString(c.TeacherID)
	return svc.check(ctx, c)
}

func (svc *service) gate(ctx context.Context, c Candidate) error {
	if _, err := svc.teacherSvc.GetByID(ctx, c.TeacherID); err != nil {
		if err == teacher.ErrNotFound {
			return core.NewValidationError(err, core.FieldError{Field: "teacher_id", Error: errTeacherNotFound})
		}
		return err
	}
	res, err := svc.check(ctx, c)
	if err != nil {
		return err
	}
	if len(res.Conflicts) > 0 {
		return &ConflictError{Message: res.Message, Conflicts: res.Conflicts}
	}
	return nil
}

// Create expects ne to be validated. It returns a *ConflictError if the entry would double-book
// a class or a teacher.
func (svc *service) Create(ctx context.Context, ne NewEntry) (Entry, error) {
	if err := svc.gate(ctx, ne.Candidate()); err != nil {
		return Entry{}, err
	}
	now := core.NowFunc().UTC()
	return svc.repo.CreateEntry(ctx, Entry{
		ID:        uuid.New().String(),
		TeacherID: ne.TeacherID,
		ClassID:   ne.ClassID,
		Day:       ne.Day,
		Hours:     ne.Hours,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// Update expects ue to be validated against the current Entry. The entry does not conflict with
// its own previous version.
func (svc *service) Update(ctx context.Context, id string, ue UpdateEntry) (Entry, error) {
	orig, err := svc.repo.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if err = svc.gate(ctx, ue.Candidate(id)); err != nil {
		return Entry{}, err
	}
	orig.TeacherID = ue.TeacherID
	orig.ClassID = ue.ClassID
	orig.Day = ue.Day
	orig.Hours = ue.Hours
	orig.UpdatedAt = core.NowFunc().UTC()
	return svc.repo.UpdateEntry(ctx, orig)
}

// Delete leaves the entry's attendance records in place; reports skip them as orphans.
func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteEntry(ctx, id)
}

func (svc *service) Subscribe(ctx context.Context, fn func([]Entry)) (func(), error) {
	return svc.repo.Subscribe(ctx, fn)
}
