package tests

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/note"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/tests"
)

type notesPage struct {
	pagedResponse
	Notes []note.Note `json:"notes"`
}

func bPtr(b bool) *bool { return &b }

func Test_noteApi(t *testing.T) {
	app := setup(t)

	teacher := app.createUser(t, "Tumaini", user.RoleTeacher, "")
	other := app.createUser(t, "Neema", user.RoleTeacher, "")
	student := app.createUser(t, "Amani", user.RoleStudent, "CS-A")
	teacherToken := app.getToken(t, teacher)
	studentToken := app.getToken(t, student)

	start := time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)
	share := func(at time.Time, data note.NewNote) note.Note {
		testutil.FreezeTime(t, at)
		var n note.Note
		rec := app.do(t, http.MethodPost, "/v1/notes", teacherToken, data, &n)
		require.Equal(t, http.StatusCreated, rec.Code)
		return n
	}

	calculus := share(start, note.NewNote{
		Title:       "Calculus cheat sheet",
		Subject:     "Maths",
		Description: "Limits and derivatives",
		FileName:    "calculus.pdf",
		FileURL:     "https://files.test.cd/calculus.pdf",
		FileSize:    2048,
		FileType:    "PDF",
		Tags:        []string{"Exam", " ", "formulas"},
	})
	assert.Equal(t, "Tumaini Test", calculus.Teacher.Name)
	assert.True(t, calculus.IsPublic)
	assert.Equal(t, 0, calculus.Downloads)
	assert.Equal(t, "calculus.pdf", calculus.Name)
	assert.Equal(t, "pdf", calculus.FileType)
	assert.Equal(t, []string{"exam", "formulas"}, calculus.Tags)

	pointers := share(start.Add(time.Hour), note.NewNote{Title: "Pointers", Subject: "Computer Science"})
	draft := share(start.Add(2*time.Hour), note.NewNote{Title: "Draft", Subject: "Maths", IsPublic: bPtr(false)})

	t.Run("download counts", func(t *testing.T) {
		var n note.Note
		for want := 1; want <= 2; want++ {
			rec := app.do(t, http.MethodGet, "/v1/notes/"+calculus.ID, studentToken, nil, &n)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, want, n.Downloads)
			assert.Equal(t, "https://files.test.cd/calculus.pdf", n.URL)
		}
	})

	ids := func(notes []note.Note) []string {
		res := make([]string, len(notes))
		for i, n := range notes {
			res[i] = n.ID
		}
		return res
	}
	tests := []struct {
		name      string
		query     string
		wantIDs   []string
		wantTotal int
	}{
		{"public only, newest first", "", []string{pointers.ID, calculus.ID}, 2},
		{"subject", "?subject=Maths", []string{calculus.ID}, 1},
		{"search description", "?search=DERIVATIVE", []string{calculus.ID}, 1},
		{"search subject", "?search=science", []string{pointers.ID}, 1},
		{"paginated", "?limit=1&page=2", []string{calculus.ID}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got notesPage
			rec := app.do(t, http.MethodGet, "/v1/notes"+tt.query, studentToken, nil, &got)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.wantIDs, ids(got.Notes))
			assert.Equal(t, tt.wantTotal, got.Total)
		})
	}

	app.run(t, []httpTest{
		{
			name: "teachers only", method: http.MethodPost, path: "/v1/notes", token: studentToken,
			body:     marchallObj(t, note.NewNote{Title: "Mine", Subject: "Maths"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "only teachers can share notes"}),
		},
		{
			name: "required fields", method: http.MethodPost, path: "/v1/notes", token: teacherToken,
			body: []byte(`{"file_url": "https://files.test.cd/x.pdf"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"title":     "this field is required",
				"subject":   "this field is required",
				"file_name": "this field is required",
			}),
		},
		{
			name: "not found", path: "/v1/notes/nope", token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "note not found"}),
		},
		{
			name: "only the owner updates", method: http.MethodPut, path: "/v1/notes/" + calculus.ID, token: app.getToken(t, other),
			body: []byte(`{"title": "Hijacked"}`), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "not the teacher of this note"}),
		},
		{
			name: "only the owner deletes", method: http.MethodDelete, path: "/v1/notes/" + calculus.ID, token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "not the teacher of this note"}),
		},
	})

	t.Run("update keeps blank fields", func(t *testing.T) {
		var n note.Note
		rec := app.do(t, http.MethodPut, "/v1/notes/"+draft.ID, teacherToken, map[string]interface{}{
			"description": "Ready",
			"is_public":   true,
		}, &n)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Draft", n.Title)
		assert.Equal(t, "Maths", n.Subject)
		assert.Equal(t, "Ready", n.Description)
		assert.True(t, n.IsPublic)
	})

	t.Run("delete", func(t *testing.T) {
		rec := app.do(t, http.MethodDelete, "/v1/notes/"+pointers.ID, teacherToken, nil)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = app.do(t, http.MethodGet, "/v1/notes/"+pointers.ID, teacherToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
