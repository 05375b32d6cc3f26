package firestorerepos_test

import (
	"context"
	"os"
	"testing"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/absensi/core/attendance"
	"github.com/trezcool/absensi/core/roster"
	"github.com/trezcool/absensi/core/student"
	"github.com/trezcool/absensi/core/teacher"
	"github.com/trezcool/absensi/core/user"
	firestorerepos "github.com/trezcool/absensi/storage/firestore"
	testutil "github.com/trezcool/absensi/tests"
)

// openTestDB connects to the Firestore emulator. Every test gets its own collections.
func openTestDB(t *testing.T) *firestorerepos.DB {
	t.Helper()
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("set FIRESTORE_EMULATOR_HOST to run the Firestore tests")
	}
	client, err := firestore.NewClient(context.Background(), "absensi-test")
	require.NoError(t, err)
	db := firestorerepos.NewDB(client, uuid.NewString()[:8]+"_", testutil.NewLogger(testutil.NewConfig()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestTeacherRepository(t *testing.T) {
	repo := firestorerepos.NewTeacherRepository(openTestDB(t))
	ctx := context.Background()

	budi := testutil.CreateTeacher(t, repo, "budi", "BD")
	testutil.CreateTeacher(t, repo, "Andi", "AN")

	_, err := repo.CreateTeacher(ctx, teacher.Teacher{ID: uuid.NewString(), Name: "Bu Di", Code: "BD"})
	assert.Equal(t, teacher.ErrCodeExists, err)
	assert.NoError(t, repo.CheckCodeUniqueness(ctx, "BD", budi.ID))

	teachers, err := repo.ListTeachers(ctx, teacher.QueryFilter{})
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, []string{"Andi", "budi"}, []string{teachers[0].Name, teachers[1].Name})

	budi.Name = "Budi"
	_, err = repo.UpdateTeacher(ctx, budi)
	require.NoError(t, err)
	got, err := repo.GetTeacherByCode(ctx, "BD")
	require.NoError(t, err)
	assert.Equal(t, "Budi", got.Name)

	_, err = repo.UpdateTeacher(ctx, teacher.Teacher{ID: uuid.NewString(), Name: "X", Code: "XX"})
	assert.Equal(t, teacher.ErrNotFound, err)
	require.NoError(t, repo.DeleteTeacher(ctx, budi.ID))
	assert.Equal(t, teacher.ErrNotFound, repo.DeleteTeacher(ctx, budi.ID))
	_, err = repo.GetTeacher(ctx, "a/b")
	assert.Equal(t, teacher.ErrNotFound, err)
}

func TestRosterRepository_Subscribe(t *testing.T) {
	repo := firestorerepos.NewRosterRepository(openTestDB(t))
	ctx := context.Background()

	snapshots := make(chan []roster.Entry, 10)
	unsubscribe, err := repo.Subscribe(ctx, func(entries []roster.Entry) { snapshots <- entries })
	require.NoError(t, err)
	defer unsubscribe()

	select {
	case entries := <-snapshots:
		assert.Empty(t, entries)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial snapshot")
	}

	entry := testutil.CreateEntry(t, repo, uuid.NewString(), "X-1", roster.Senin, 1, 2)
	deadline := time.After(5 * time.Second)
	for {
		select {
		case entries := <-snapshots:
			if len(entries) == 1 {
				assert.Equal(t, entry.ID, entries[0].ID)
				assert.Equal(t, []int{1, 2}, entries[0].Hours)
				return
			}
		case <-deadline:
			t.Fatal("change not delivered")
		}
	}
}

func TestAttendanceRepository(t *testing.T) {
	repo := firestorerepos.NewAttendanceRepository(openTestDB(t))
	ctx := context.Background()
	rosterID := uuid.NewString()

	a := testutil.CreateAttendance(t, repo, rosterID, "2026-10-12", []int{1}, "")
	testutil.CreateAttendance(t, repo, rosterID, "2026-10-19", []int{}, "sakit")

	_, err := repo.CreateAttendance(ctx, attendance.Attendance{ID: uuid.NewString(), RosterID: rosterID, Date: "2026-10-12"})
	assert.Equal(t, attendance.ErrDuplicate, err)

	found, err := repo.FindAttendance(ctx, rosterID, "2026-10-12")
	require.NoError(t, err)
	assert.Equal(t, a.ID, found.ID)

	records, err := repo.ListAttendance(ctx, attendance.QueryFilter{From: "2026-10-13"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "sakit", records[0].Keterangan)

	records, err = repo.ListAttendance(ctx, attendance.QueryFilter{RosterIDs: []string{uuid.NewString()}})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestStudentRepository(t *testing.T) {
	repo := firestorerepos.NewStudentRepository(openTestDB(t))
	ctx := context.Background()

	testutil.CreateStudent(t, repo, "1001", "Rina", "X-1", "B1")
	testutil.CreateStudent(t, repo, "1002", "Dewi", "X-1", "B2")

	_, err := repo.CreateStudent(ctx, student.Student{ID: uuid.NewString(), NIS: "1001", Name: "Rini"})
	assert.Equal(t, student.ErrNISExists, err)

	students, err := repo.ListStudents(ctx, student.QueryFilter{ClassID: "X-1"})
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Dewi", students[0].Name)

	students, err = repo.ListStudents(ctx, student.QueryFilter{Barak: "B1"})
	require.NoError(t, err)
	require.Len(t, students, 1)
}

func TestUserRepository(t *testing.T) {
	repo := firestorerepos.NewUserRepository(openTestDB(t))
	ctx := context.Background()

	sup := testutil.CreateUser(t, repo, "Sup", "sup1", "", "", []string{user.RoleBarak}, []string{"B1"}, true)
	testutil.CreateUser(t, repo, "Admin", "", "admin@example.com", "", []string{user.RoleAdminOwner}, nil, true)

	assert.Equal(t, user.ErrUsernameExists, repo.CheckUsernameUniqueness(ctx, "sup1", ""))
	assert.Equal(t, user.ErrEmailExists, repo.CheckUsernameUniqueness(ctx, "", "admin@example.com"))

	got, err := repo.GetUserByUsernameOrEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Admin", got.Name)

	users, err := repo.FilterUsers(ctx, user.QueryFilter{Group: "B1"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, sup.ID, users[0].ID)

	require.NoError(t, repo.DeleteUsersByID(ctx, sup.ID, "not-an-id"))
	_, err = repo.GetUserByID(ctx, sup.ID)
	assert.Equal(t, user.ErrNotFound, err)
}
