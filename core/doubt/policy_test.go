package doubt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core/user"
)

func TestStatusAfterResponse(t *testing.T) {
	teacher := user.User{ID: "t1", Role: user.RoleTeacher}
	student := user.User{ID: "s1", Role: user.RoleStudent}
	admin := user.User{ID: "a1", Role: user.RoleAdmin}

	tests := []struct {
		name   string
		cur    string
		author user.User
		want   string
	}{
		{name: "teacher answers an open doubt", cur: StatusOpen, author: teacher, want: StatusAnswered},
		{name: "student response keeps it open", cur: StatusOpen, author: student, want: StatusOpen},
		{name: "admin response keeps it open", cur: StatusOpen, author: admin, want: StatusOpen},
		{name: "answered stays answered", cur: StatusAnswered, author: teacher, want: StatusAnswered},
		{name: "resolved is terminal", cur: StatusResolved, author: teacher, want: StatusResolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := Response{Author: tt.author.Ref(), IsTeacherResponse: tt.author.IsTeacher()}
			assert.Equal(t, tt.want, StatusAfterResponse(tt.cur, resp))
		})
	}
}

func TestCanResolve(t *testing.T) {
	owner := user.User{ID: "s1", Role: user.RoleStudent}
	d := Doubt{Student: owner.Ref(), Status: StatusResolved}

	assert.True(t, CanResolve(owner, d))
	assert.True(t, CanResolve(user.User{ID: "t1", Role: user.RoleTeacher}, d))
	assert.False(t, CanResolve(user.User{ID: "s2", Role: user.RoleStudent}, d))
	assert.False(t, CanResolve(user.User{ID: "a1", Role: user.RoleAdmin}, d))

	assert.True(t, CanCreate(owner))
	assert.False(t, CanCreate(user.User{ID: "t1", Role: user.RoleTeacher}))
	assert.True(t, CanRespond(owner, d))
}
