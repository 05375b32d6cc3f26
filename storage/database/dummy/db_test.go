package dummydb_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/absensi/core/attendance"
	"github.com/trezcool/absensi/core/roster"
	"github.com/trezcool/absensi/core/teacher"
	"github.com/trezcool/absensi/core/user"
	dummydb "github.com/trezcool/absensi/storage/database/dummy"
	testutil "github.com/trezcool/absensi/tests"
)

// receive waits for the next snapshot sent on ch.
func receive[T any](t *testing.T, ch <-chan []T) []T {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
		return nil
	}
}

func TestRosterRepository_Subscribe(t *testing.T) {
	db := dummydb.Open()
	repo := dummydb.NewRosterRepository(db)
	e1 := testutil.CreateEntry(t, repo, "t1", "X-1", roster.Senin, 1, 2)

	snaps := make(chan []roster.Entry, 10)
	unsubscribe, err := repo.Subscribe(context.Background(), func(entries []roster.Entry) { snaps <- entries })
	assert.NoError(t, err)

	assert.Equal(t, []roster.Entry{e1}, receive(t, snaps), "initial snapshot")

	e2 := testutil.CreateEntry(t, repo, "t2", "X-2", roster.Senin, 3)
	assert.ElementsMatch(t, []roster.Entry{e1, e2}, receive(t, snaps))

	assert.NoError(t, repo.DeleteEntry(context.Background(), e1.ID))
	assert.Equal(t, []roster.Entry{e2}, receive(t, snaps))

	unsubscribe()
	time.Sleep(50 * time.Millisecond)
	for len(snaps) > 0 {
		<-snaps
	}
	testutil.CreateEntry(t, repo, "t3", "X-3", roster.Rabu, 1)
	select {
	case snap := <-snaps:
		t.Errorf("got snapshot after unsubscribe: %v", snap)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTeacherRepository_SubscribeStopsWithContext(t *testing.T) {
	db := dummydb.Open()
	repo := dummydb.NewTeacherRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	snaps := make(chan []teacher.Teacher, 10)
	_, err := repo.Subscribe(ctx, func(teachers []teacher.Teacher) { snaps <- teachers })
	assert.NoError(t, err)
	assert.Empty(t, receive(t, snaps))

	tchr := testutil.CreateTeacher(t, repo, "Budi", "BDI")
	assert.Equal(t, []teacher.Teacher{tchr}, receive(t, snaps))

	cancel()
	time.Sleep(50 * time.Millisecond)
	testutil.CreateTeacher(t, repo, "Sari", "SRI")
	select {
	case snap := <-snaps:
		t.Errorf("got snapshot after cancel: %v", snap)
	case <-time.After(100 * time.Millisecond):
	}

	_, err = repo.Subscribe(ctx, func([]teacher.Teacher) {})
	assert.Equal(t, context.Canceled, err)
}

func TestAttendanceRepository(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	repo := dummydb.NewAttendanceRepository(db)

	a1 := testutil.CreateAttendance(t, repo, "e1", "2026-10-12", []int{1}, "")
	a2 := testutil.CreateAttendance(t, repo, "e1", "2026-10-13", nil, "sakit")
	testutil.CreateAttendance(t, repo, "e2", "2026-10-20", []int{3}, "")

	_, err := repo.CreateAttendance(ctx, attendance.Attendance{ID: "dup", RosterID: "e1", Date: "2026-10-12"})
	assert.Equal(t, attendance.ErrDuplicate, err)

	got, err := repo.FindAttendance(ctx, "e1", "2026-10-13")
	assert.NoError(t, err)
	assert.Equal(t, a2, got)

	_, err = repo.FindAttendance(ctx, "e2", "2026-10-13")
	assert.Equal(t, attendance.ErrNotFound, err)

	records, err := repo.ListAttendance(ctx, attendance.QueryFilter{From: "2026-10-12", To: "2026-10-18"})
	assert.NoError(t, err)
	assert.Equal(t, []attendance.Attendance{a1, a2}, records)

	// stored hours are not shared with callers
	records[0].PresentHours[0] = 99
	got, err = repo.GetAttendance(ctx, a1.ID)
	assert.NoError(t, err)
	assert.Equal(t, []int{1}, got.PresentHours)

	assert.NoError(t, repo.DeleteAttendance(ctx, a1.ID))
	assert.Equal(t, attendance.ErrNotFound, repo.DeleteAttendance(ctx, a1.ID))
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	repo := dummydb.NewUserRepository(db)

	day := time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)
	andi := testutil.CreateUser(t, repo, "Andi", "andi", "andi@example.com", "", []string{user.RoleAdmin}, nil, true, day)
	sari := testutil.CreateUser(t, repo, "Sari", "sari", "", "", []string{user.RoleBarak}, []string{"Barak A"}, true, day.AddDate(0, 0, 1))

	assert.Equal(t, user.ErrUsernameExists, repo.CheckUsernameUniqueness(ctx, "andi", "new@example.com"))
	assert.Equal(t, user.ErrEmailExists, repo.CheckUsernameUniqueness(ctx, "new", "andi@example.com"))
	assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "andi", "andi@example.com", andi.ID))
	assert.NoError(t, repo.CheckUsernameUniqueness(ctx, "budi", ""), "empty email is never taken")

	got, err := repo.GetUserByUsernameOrEmail(ctx, "andi@example.com")
	assert.NoError(t, err)
	assert.Equal(t, andi.ID, got.ID)
	_, err = repo.GetUserByUsernameOrEmail(ctx, "")
	assert.Equal(t, user.ErrNotFound, err)

	users, err := repo.FilterUsers(ctx, user.QueryFilter{})
	assert.NoError(t, err)
	assert.Equal(t, []user.User{sari, andi}, users, "newest first")

	users, err = repo.FilterUsers(ctx, user.QueryFilter{Group: "Barak A"})
	assert.NoError(t, err)
	assert.Equal(t, []user.User{sari}, users)

	assert.NoError(t, repo.DeleteUsersByID(ctx, andi.ID, sari.ID))
	users, err = repo.FilterUsers(ctx, user.QueryFilter{})
	assert.NoError(t, err)
	assert.Empty(t, users)
}
