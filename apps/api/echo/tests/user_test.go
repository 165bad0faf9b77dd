package tests

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/tests"
)

func Test_userApi_query(t *testing.T) {
	app := setup(t)

	path := func(search, role, ordering string, page, limit int) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if role != "" {
			v.Add("role", role)
		}
		if ordering != "" {
			v.Add("ordering", ordering)
		}
		if page > 0 {
			v.Add("page", strconv.Itoa(page))
		}
		if limit > 0 {
			v.Add("limit", strconv.Itoa(limit))
		}
		return "/v1/users?" + v.Encode()
	}

	now := time.Now()
	admin := testutil.CreateUser(t, app.usrRepo, "Admin", "Boss", "admin@test.cd", user.RoleAdmin, "", true, now)
	teacher := testutil.CreateUser(t, app.usrRepo, "Tumaini", "Mwalimu", "teacher@test.cd", user.RoleTeacher, "", true, now.Add(1*time.Hour))
	student1 := testutil.CreateUser(t, app.usrRepo, "Amani", "Juma", "amani@test.cd", user.RoleStudent, "CS-B", true, now.Add(2*time.Hour))
	student2 := testutil.CreateUser(t, app.usrRepo, "Baraka", "Asani", "baraka@test.cd", user.RoleStudent, "CS-A", true, now.Add(3*time.Hour))
	testutil.CreateUser(t, app.usrRepo, "Naughty", "Dog", "ndog@test.cd", user.RoleStudent, "CS-A", false, now.Add(4*time.Hour))

	adminToken := app.getToken(t, admin)

	page := func(users []user.User, total, pages, current int) []byte {
		if users == nil {
			users = []user.User{}
		}
		return marchallObj(t, map[string]interface{}{
			"users": users, "total": total, "total_pages": pages, "current_page": current,
		})
	}

	app.run(t, []httpTest{
		{name: "Auth required", path: "/v1/users", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", path: "/v1/users", token: app.getToken(t, teacher), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all (active, newest first)", path: "/v1/users", token: adminToken, wantCode: http.StatusOK,
			wantData: page([]user.User{student2, student1, teacher, admin}, 4, 1, 1),
		},
		{name: "search (unknown)", path: path("lol", "", "", 0, 0), token: adminToken, wantCode: http.StatusOK, wantData: page(nil, 0, 0, 1)},
		{
			name: "search=JUMA", path: path("JUMA", "", "", 0, 0), token: adminToken, wantCode: http.StatusOK,
			wantData: page([]user.User{student1}, 1, 1, 1),
		},
		{
			name: "role=student", path: path("", user.RoleStudent, "", 0, 0), token: adminToken, wantCode: http.StatusOK,
			wantData: page([]user.User{student2, student1}, 2, 1, 1),
		},
		{
			name: "role=all", path: path("", "all", "", 0, 0), token: adminToken, wantCode: http.StatusOK,
			wantData: page([]user.User{student2, student1, teacher, admin}, 4, 1, 1),
		},
		{
			name: "ordering=first_name", path: path("", "", "first_name", 0, 0), token: adminToken, wantCode: http.StatusOK,
			wantData: page([]user.User{admin, student1, student2, teacher}, 4, 1, 1),
		},
		{
			name: "page 2", path: path("", "", "", 2, 3), token: adminToken, wantCode: http.StatusOK,
			wantData: page([]user.User{admin}, 4, 2, 2),
		},
		{
			name: "bad page", path: "/v1/users?page=one", token: adminToken, wantCode: http.StatusBadRequest,
		},
	})
}

func Test_userApi_statsAndStudents(t *testing.T) {
	app := setup(t)

	admin := app.createUser(t, "Admin", user.RoleAdmin, "")
	teacher := app.createUser(t, "Teacher", user.RoleTeacher, "")
	student := app.createUser(t, "Student", user.RoleStudent, "CS-B")
	other := testutil.CreateUser(t, app.usrRepo, "Other", "Aaa", "other@test.cd", user.RoleStudent, "CS-A", true)
	app.createUser(t, "Gone", user.RoleStudent, "CS-A", false)

	app.run(t, []httpTest{
		{
			name: "stats: admin required", path: "/v1/users/stats", token: app.getToken(t, teacher), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "stats", path: "/v1/users/stats", token: app.getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, user.Stats{TotalUsers: 4, TotalStudents: 2, TotalTeachers: 1, TotalAdmins: 1}),
		},
		{
			name: "students: teacher or admin required", path: "/v1/users/students", token: app.getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "students (by class)", path: "/v1/users/students", token: app.getToken(t, teacher), wantCode: http.StatusOK,
			wantData: marchallObj(t, []user.User{other, student}),
		},
		{
			name: "students (admin)", path: "/v1/users/students", token: app.getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, []user.User{other, student}),
		},
	})
}

func Test_userApi_profile(t *testing.T) {
	app := setup(t)

	admin := app.createUser(t, "Admin", user.RoleAdmin, "")
	student := app.createUser(t, "Amani", user.RoleStudent, "CS-A")
	other := app.createUser(t, "Baraka", user.RoleStudent, "CS-A")
	studentToken := app.getToken(t, student)

	app.run(t, []httpTest{
		{
			name: "me", path: "/v1/users/me", token: studentToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, student),
		},
		{
			name: "own profile by id", path: "/v1/users/" + student.ID, token: studentToken, wantCode: http.StatusOK,
			wantData: marchallObj(t, student),
		},
		{
			name: "other profile is hidden", path: "/v1/users/" + other.ID, token: studentToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{
			name: "admin sees anyone", path: "/v1/users/" + other.ID, token: app.getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, other),
		},
		{
			name: "unknown id", path: "/v1/users/nope", token: app.getToken(t, admin), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "user not found"}),
		},
		{
			name: "invalid profile image", method: http.MethodPut, path: "/v1/users/me", token: studentToken,
			body: marchallObj(t, user.UpdateProfile{ProfileImage: "not a url"}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"profile_image": "profile_image must be a valid URL"}),
		},
	})

	t.Run("update own profile", func(t *testing.T) {
		var got user.User
		rec := app.do(t, http.MethodPut, "/v1/users/me", studentToken, map[string]interface{}{
			"last_name":   "  Kabila ",
			"roll_number": "CS-A-042",
			"subjects":    []string{"Maths", " ", "Physics"},
			"role":        user.RoleAdmin, // not a profile field
		}, &got)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Amani", got.FirstName)
		assert.Equal(t, "Kabila", got.LastName)
		assert.Equal(t, "CS-A-042", got.RollNumber)
		assert.Equal(t, []string{"Maths", "Physics"}, got.Subjects)
		assert.Equal(t, user.RoleStudent, got.Role)
	})

	t.Run("admin updates another profile", func(t *testing.T) {
		var got user.User
		rec := app.do(t, http.MethodPut, "/v1/users/"+other.ID, app.getToken(t, admin), map[string]interface{}{
			"class": "CS-B",
		}, &got)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "CS-B", got.Class)
	})
}

func Test_userApi_admin(t *testing.T) {
	app := setup(t)

	admin := app.createUser(t, "Admin", user.RoleAdmin, "")
	teacher := app.createUser(t, "Teacher", user.RoleTeacher, "")
	student := app.createUser(t, "Amani", user.RoleStudent, "CS-A")
	adminToken := app.getToken(t, admin)

	app.run(t, []httpTest{
		{
			name: "set role: admin required", method: http.MethodPut, path: "/v1/users/" + teacher.ID + "/role",
			token: app.getToken(t, teacher), body: marchallObj(t, user.SetRole{Role: user.RoleAdmin}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "set role: invalid role", method: http.MethodPut, path: "/v1/users/" + student.ID + "/role",
			token: adminToken, body: marchallObj(t, user.SetRole{Role: "principal"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"role": "invalid role"}),
		},
		{
			name: "set role: required", method: http.MethodPut, path: "/v1/users/" + student.ID + "/role",
			token: adminToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"role": "this field is required"}),
		},
		{
			name: "deactivate: not yourself", method: http.MethodPut, path: "/v1/users/" + admin.ID + "/deactivate",
			token: adminToken, wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	})

	t.Run("set role", func(t *testing.T) {
		var got user.User
		rec := app.do(t, http.MethodPut, "/v1/users/"+student.ID+"/role", adminToken, user.SetRole{Role: " Teacher "}, &got)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, user.RoleTeacher, got.Role)
	})

	t.Run("deactivate", func(t *testing.T) {
		var got user.User
		rec := app.do(t, http.MethodPut, "/v1/users/"+teacher.ID+"/deactivate", adminToken, nil, &got)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, got.IsActive)

		// the deactivated user is locked out
		rec = app.do(t, http.MethodGet, "/v1/users/me", app.getToken(t, teacher), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
