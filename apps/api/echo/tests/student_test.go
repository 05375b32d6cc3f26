package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/absensi/core/student"
	"github.com/trezcool/absensi/core/user"
	testutil "github.com/trezcool/absensi/tests"
)

func Test_studentApi(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "", "", []string{user.RoleAdmin}, nil, true)
	sup := testutil.CreateUser(t, usrRepo, "Pengawas", "pengawas", "", "", []string{user.RoleBarak}, []string{"B1"}, true)
	guru := testutil.CreateUser(t, usrRepo, "Guru", "guru", "", "", []string{user.RoleTeacher}, nil, true)
	adminToken := getToken(t, admin)
	supToken := getToken(t, sup)

	ani := testutil.CreateStudent(t, studentRepo, "1001", "Ani", "7A", "B1")
	bima := testutil.CreateStudent(t, studentRepo, "1002", "Bima", "7A", "B2")
	citra := testutil.CreateStudent(t, studentRepo, "1003", "Citra", "7B", "")

	errNotAllowed := httpErr{Error: student.ErrForbidden.Error()}

	tests := []httpTest{
		{
			name:     "admin sees everyone",
			method:   http.MethodGet,
			path:     "/v1/students",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, ani, bima, citra),
		},
		{
			name:     "supervisor sees their barak",
			method:   http.MethodGet,
			path:     "/v1/students",
			token:    supToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, ani),
		},
		{
			name:     "teacher sees nobody",
			method:   http.MethodGet,
			path:     "/v1/students",
			token:    getToken(t, guru),
			wantCode: http.StatusOK,
			wantData: marchallList(t),
		},
		{
			name:     "by class",
			method:   http.MethodGet,
			path:     "/v1/students?class_id=7A&search=bi",
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, bima),
		},
		{
			name:     "supervisor reads their student",
			method:   http.MethodGet,
			path:     "/v1/students/" + ani.ID,
			token:    supToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, ani),
		},
		{
			name:     "supervisor reads another barak",
			method:   http.MethodGet,
			path:     "/v1/students/" + bima.ID,
			token:    supToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errNotAllowed),
		},
		{
			name:     "not found",
			method:   http.MethodGet,
			path:     "/v1/students/nope",
			token:    adminToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "student not found"}),
		},
		{
			name:     "supervisor cannot create",
			method:   http.MethodPost,
			path:     "/v1/students",
			body:     []byte(`{"nis": "1004", "name": "Dewi", "barak": "B1"}`),
			token:    supToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "invalid",
			method:   http.MethodPost,
			path:     "/v1/students",
			body:     []byte(`{"nis": "A-1"}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"nis":  "nis must be a valid numeric value",
				"name": "this field is required",
			}),
		},
		{
			name:     "nis taken",
			method:   http.MethodPost,
			path:     "/v1/students",
			body:     []byte(`{"nis": "1001", "name": "Dewi"}`),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"nis": student.ErrNISExists.Error()}),
		},
		{
			name:     "supervisor moves a student out of their barak",
			method:   http.MethodPut,
			path:     "/v1/students/" + ani.ID,
			body:     []byte(`{"barak": "B2"}`),
			token:    supToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errNotAllowed),
		},
		{
			name:     "supervisor deletes another barak's student",
			method:   http.MethodDelete,
			path:     "/v1/students/" + bima.ID,
			token:    supToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errNotAllowed),
		},
		{
			name:     "supervisor deletes an unassigned student",
			method:   http.MethodDelete,
			path:     "/v1/students/" + citra.ID,
			token:    supToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errNotAllowed),
		},
		{
			name:     "admin deletes",
			method:   http.MethodDelete,
			path:     "/v1/students/" + citra.ID,
			token:    adminToken,
			wantCode: http.StatusNoContent,
		},
	}
	runHTTPTests(t, app, tests)

	t.Run("supervisor renames their student", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/v1/students/"+ani.ID, supToken, []byte(`{"name": "Ani Lestari"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got student.Student
		decode(t, rec, &got)
		assert.Equal(t, "Ani Lestari", got.Name)
		assert.Equal(t, "B1", got.Barak)
		assert.Equal(t, "7A", got.ClassID)
	})

	t.Run("admin creates", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/students", adminToken, []byte(`{"nis": " 1004 ", "name": "Dewi", "class_id": "8A", "barak": "B1"}`))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got student.Student
		decode(t, rec, &got)
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, "1004", got.NIS)
		assert.Equal(t, "B1", got.Barak)
	})
}
