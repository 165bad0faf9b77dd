package assignment

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core/user"
)

func TestDeriveStatus(t *testing.T) {
	due := time.Date(2025, 8, 30, 0, 0, 0, 0, time.UTC)
	score := 45.0
	a := Assignment{
		DueDate: due,
		Submissions: []Submission{
			{ID: "s1", Student: user.NewRef("submitted")},
			{ID: "s2", Student: user.NewRef("graded"), Score: &score, IsGraded: true},
		},
	}

	tests := []struct {
		name      string
		studentID string
		now       time.Time
		want      string
	}{
		{name: "not submitted, before due date", studentID: "other", now: due.Add(-time.Hour), want: StatusPending},
		{name: "not submitted, at due date", studentID: "other", now: due, want: StatusPending},
		{name: "not submitted, after due date", studentID: "other", now: due.Add(time.Second), want: StatusOverdue},
		{name: "submitted", studentID: "submitted", now: due.Add(-time.Hour), want: StatusSubmitted},
		{name: "submitted late stays submitted", studentID: "submitted", now: due.Add(48 * time.Hour), want: StatusSubmitted},
		{name: "graded", studentID: "graded", now: due.Add(48 * time.Hour), want: StatusGraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(a, tt.studentID, tt.now))
		})
	}
}

func TestPolicy(t *testing.T) {
	teacher := user.User{ID: "t1", Role: user.RoleTeacher}
	other := user.User{ID: "t2", Role: user.RoleTeacher}
	admin := user.User{ID: "a1", Role: user.RoleAdmin}
	student := user.User{ID: "s1", Role: user.RoleStudent}
	a := Assignment{Teacher: teacher.Ref()}

	assert.True(t, CanCreate(teacher))
	assert.False(t, CanCreate(admin))
	assert.False(t, CanCreate(student))

	assert.True(t, CanSubmit(student))
	assert.False(t, CanSubmit(teacher))

	assert.True(t, CanManage(teacher, a))
	assert.False(t, CanManage(other, a))
	assert.False(t, CanManage(admin, a))
	assert.False(t, CanManage(user.User{}, Assignment{}))
}

func TestQueryFilter(t *testing.T) {
	a := Assignment{Teacher: user.NewRef("t1"), Class: "CS-A", Subject: "Maths", IsActive: true}

	qf := QueryFilter{Status: " ALL ", Subject: "all"}
	qf.Clean()
	assert.Equal(t, QueryFilter{}, qf)

	assert.True(t, QueryFilter{Class: "CS-A", Subject: "Maths"}.Match(a))
	assert.True(t, QueryFilter{TeacherID: "t1"}.Match(a))
	assert.False(t, QueryFilter{Class: "CS-B"}.Match(a))
	assert.False(t, QueryFilter{TeacherID: "t2"}.Match(a))
	a.IsActive = false
	assert.False(t, QueryFilter{}.Match(a))
}

func TestGrade_Validate(t *testing.T) {
	validate := validator.New()
	score := func(f float64) *float64 { return &f }

	tests := []struct {
		name    string
		grade   Grade
		wantErr bool
	}{
		{name: "missing score", grade: Grade{Feedback: "ok"}, wantErr: true},
		{name: "zero", grade: Grade{Score: score(0)}},
		{name: "negative", grade: Grade{Score: score(-5)}},
		{name: "above max marks", grade: Grade{Score: score(120)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := tt.grade
			err := g.Validate(validate)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
