package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/absensi/core"
	"github.com/trezcool/absensi/core/attendance"
	"github.com/trezcool/absensi/core/roster"
	"github.com/trezcool/absensi/core/teacher"
	dummydb "github.com/trezcool/absensi/storage/database/dummy"
	testutil "github.com/trezcool/absensi/tests"
)

func TestService(t *testing.T) {
	ctx := context.Background()
	origNow := core.NowFunc
	core.NowFunc = func() time.Time { return time.Date(2026, time.October, 16, 5, 0, 0, 0, time.UTC) }
	defer func() { core.NowFunc = origNow }()

	db := dummydb.Open()
	teacherRepo := dummydb.NewTeacherRepository(db)
	rosterRepo := dummydb.NewRosterRepository(db)
	teacherSvc := teacher.NewService(teacherRepo)
	rosterSvc := roster.NewService(rosterRepo, teacherSvc)
	svc := attendance.NewService(dummydb.NewAttendanceRepository(db), rosterSvc, teacherSvc, testutil.NewConfig())

	budi := testutil.CreateTeacher(t, teacherRepo, "Budi", "BDI")
	sari := testutil.CreateTeacher(t, teacherRepo, "Sari", "SRI")
	e1 := testutil.CreateEntry(t, rosterRepo, budi.ID, "X-1", roster.Senin, 1, 2, 3)
	e2 := testutil.CreateEntry(t, rosterRepo, sari.ID, "X-2", roster.Rabu, 4, 5)

	t.Run("upsert creates then updates", func(t *testing.T) {
		a, created, err := svc.Upsert(ctx, attendance.UpsertAttendance{RosterID: e1.ID, Date: "2026-10-12", PresentHours: []int{1, 2}})
		assert.NoError(t, err)
		assert.True(t, created)

		b, created, err := svc.Upsert(ctx, attendance.UpsertAttendance{
			RosterID: e1.ID, Date: "2026-10-12", PresentHours: []int{1, 2, 3}, Keterangan: "lengkap",
		})
		assert.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, a.ID, b.ID)
		assert.Equal(t, []int{1, 2, 3}, b.PresentHours)
		assert.Equal(t, "lengkap", b.Keterangan)

		records, err := svc.Query(ctx, attendance.QueryFilter{})
		assert.NoError(t, err)
		assert.Equal(t, []attendance.Attendance{b}, records)
	})

	t.Run("upsert unknown roster entry", func(t *testing.T) {
		_, _, err := svc.Upsert(ctx, attendance.UpsertAttendance{RosterID: "missing", Date: "2026-10-12"})
		var verr *core.ValidationError
		if assert.True(t, errors.As(err, &verr)) {
			assert.Equal(t, "roster_id", verr.Fields[0].Field)
		}
	})

	t.Run("weekly report is clipped to today", func(t *testing.T) {
		_, _, err := svc.Upsert(ctx, attendance.UpsertAttendance{RosterID: e2.ID, Date: "2026-10-14", PresentHours: []int{4}, Keterangan: "rapat"})
		assert.NoError(t, err)
		_, _, err = svc.Upsert(ctx, attendance.UpsertAttendance{RosterID: e2.ID, Date: "2026-10-21", PresentHours: []int{}})
		assert.NoError(t, err)

		rep, err := svc.PeriodReport(ctx, attendance.PeriodWeekly, time.Date(2026, time.October, 18, 0, 0, 0, 0, time.UTC))
		assert.NoError(t, err)
		assert.Equal(t, attendance.PeriodWeekly, rep.Period)
		assert.Equal(t, "2026-10-12", rep.From)
		assert.Equal(t, "2026-10-16", rep.To)
		if assert.Len(t, rep.Rows, 2) {
			assert.Equal(t, budi.ID, rep.Rows[0].TeacherID)
			assert.Equal(t, attendance.Totals{Hadir: 3}, rep.Rows[0].Totals)
			assert.Equal(t, sari.ID, rep.Rows[1].TeacherID)
			assert.Equal(t, attendance.Totals{Hadir: 1, TidakHadir: 1}, rep.Rows[1].Totals)
			assert.Equal(t, []attendance.AbsenceDetail{
				{Date: "2026-10-14", AbsentHoursCount: 1, AbsentHours: []int{5}, ClassID: "X-2", Keterangan: "rapat"},
			}, rep.Rows[1].Absences)
		}
		assert.Empty(t, rep.Warnings)
	})

	t.Run("deleted roster entry becomes an orphan", func(t *testing.T) {
		assert.NoError(t, rosterSvc.Delete(ctx, e2.ID))
		rep, err := svc.Report(ctx, attendance.NewRange(
			time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, time.October, 31, 0, 0, 0, 0, time.UTC),
		))
		assert.NoError(t, err)
		assert.Equal(t, attendance.Totals{Hadir: 3}, rep.Totals())
		assert.Len(t, rep.Warnings, 2)
		for _, w := range rep.Warnings {
			assert.Equal(t, attendance.WarnOrphanRecord, w.Kind)
		}
	})

	t.Run("invalid period", func(t *testing.T) {
		_, err := svc.PeriodReport(ctx, "daily", time.Now())
		var verr *core.ValidationError
		assert.True(t, errors.As(err, &verr))
	})
}
