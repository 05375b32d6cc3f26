package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/roster"
	"github.com/trezcool/absensi/core/teacher"
)

var (
	ErrNotFound = errors.New("attendance not found")
	// ErrDuplicate is returned by repositories when an Attendance already exists for the roster
	// entry and date.
	ErrDuplicate = errors.New("attendance already exists for this roster entry and date")

	errRosterNotFound = "roster entry not found"
)

type (
	Repository interface {
		ListAttendance(ctx context.Context, filter QueryFilter) ([]Attendance, error)
		GetAttendance(ctx context.Context, id string) (Attendance, error)
		// FindAttendance returns the Attendance of a roster entry on a date or ErrNotFound.
		FindAttendance(ctx context.Context, rosterID, date string) (Attendance, error)
		CreateAttendance(ctx context.Context, a Attendance) (Attendance, error)
		UpdateAttendance(ctx context.Context, a Attendance) (Attendance, error)
		DeleteAttendance(ctx context.Context, id string) error
		// Subscribe calls fn with the current records, then again after every change,
		// until the returned func is called or ctx is done.
		Subscribe(ctx context.Context, fn func([]Attendance)) (func(), error)
	}

	Service interface {
		Query(ctx context.Context, filter QueryFilter) ([]Attendance, error)
		GetByID(ctx context.Context, id string) (Attendance, error)
		// Upsert creates or replaces the Attendance of a roster entry on a date.
		// created reports whether a new record was made.
		Upsert(ctx context.Context, ua UpsertAttendance) (a Attendance, created bool, err error)
		Delete(ctx context.Context, id string) error
		Report(ctx context.Context, r Range) (Report, error)
		PeriodReport(ctx context.Context, p Period, ref time.Time) (Report, error)
		Subscribe(ctx context.Context, fn func([]Attendance)) (func(), error)
	}

	service struct {
		repo       Repository
		rosterSvc  roster.Service
		teacherSvc teacher.Service
		today      func() time.Time
	}
)

var _ Service = (*service)(nil) // interface compliance check

func NewService(repo Repository, rosterSvc roster.Service, teacherSvc teacher.Service, conf *core.Config) Service {
	return &service{
		repo:       repo,
		rosterSvc:  rosterSvc,
		teacherSvc: teacherSvc,
		today:      conf.Today,
	}
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Attendance, error) {
	filter.Clean()
	return svc.repo.ListAttendance(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id string) (Attendance, error) {
	return svc.repo.GetAttendance(ctx, id)
}

// Upsert expects ua to be validated. It looks the (roster entry, date) pair up before deciding to
// create or update; a concurrent create of the same pair is retried as an update.
func (svc *service) Upsert(ctx context.Context, ua UpsertAttendance) (Attendance, bool, error) {
	if _, err := svc.rosterSvc.GetByID(ctx, ua.RosterID); err != nil {
		if err == roster.ErrNotFound {
			return Attendance{}, false, core.NewValidationError(err, core.FieldError{Field: "roster_id", Error: errRosterNotFound})
		}
		return Attendance{}, false, err
	}

	now := core.NowFunc().UTC()
	existing, err := svc.repo.FindAttendance(ctx, ua.RosterID, ua.Date)
	switch err {
	case nil:
		return svc.update(ctx, existing, ua, now)
	case ErrNotFound:
		a, err := svc.repo.CreateAttendance(ctx, Attendance{
			ID:           uuid.New().String(),
			RosterID:     ua.RosterID,
			Date:         ua.Date,
			PresentHours: ua.PresentHours,
			Keterangan:   ua.Keterangan,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err == ErrDuplicate {
			if existing, err = svc.repo.FindAttendance(ctx, ua.RosterID, ua.Date); err != nil {
				return Attendance{}, false, err
			}
			return svc.update(ctx, existing, ua, now)
		}
		return a, err == nil, err
	default:
		return Attendance{}, false, err
	}
}

func (svc *service) update(ctx context.Context, a Attendance, ua UpsertAttendance, now time.Time) (Attendance, bool, error) {
	a.PresentHours = ua.PresentHours
	a.Keterangan = ua.Keterangan
	a.UpdatedAt = now
	a, err := svc.repo.UpdateAttendance(ctx, a)
	return a, false, err
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteAttendance(ctx, id)
}

// Report builds the attendance Report of every teacher over r, from the current snapshots of the
// teachers, the roster and the attendance records.
func (svc *service) Report(ctx context.Context, r Range) (Report, error) {
	teachers, err := svc.teacherSvc.Query(ctx, teacher.QueryFilter{})
	if err != nil {
		return Report{}, err
	}
	entries, err := svc.rosterSvc.Query(ctx, roster.QueryFilter{})
	if err != nil {
		return Report{}, err
	}

	var records []Attendance
	if !r.IsEmpty() {
		records, err = svc.repo.ListAttendance(ctx, QueryFilter{From: r.From(), To: r.To()})
		if err != nil {
			return Report{}, err
		}
	}
	return BuildReport(teachers, records, entries, r), nil
}

// PeriodReport builds the weekly or monthly Report around ref, never past today.
func (svc *service) PeriodReport(ctx context.Context, p Period, ref time.Time) (Report, error) {
	r, err := PeriodRange(p, ref, svc.today())
	if err != nil {
		return Report{}, core.NewValidationError(err, core.FieldError{Field: "period", Error: err.Error()})
	}
	rep, err := svc.Report(ctx, r)
	if err != nil {
		return Report{}, err
	}
	rep.Period = p
	return rep, nil
}

func (svc *service) Subscribe(ctx context.Context, fn func([]Attendance)) (func(), error) {
	return svc.repo.Subscribe(ctx, fn)
}
