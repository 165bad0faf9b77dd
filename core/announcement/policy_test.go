package announcement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core/user"
)

func TestVisibleTo(t *testing.T) {
	studentA := user.User{ID: "s1", Role: user.RoleStudent, Class: "CS-A"}
	studentB := user.User{ID: "s2", Role: user.RoleStudent, Class: "CS-B"}
	teacher := user.User{ID: "t1", Role: user.RoleTeacher}
	admin := user.User{ID: "a1", Role: user.RoleAdmin}

	tests := []struct {
		name string
		a    Announcement
		want map[string]bool // user id: visible
	}{
		{
			name: "all",
			a:    Announcement{TargetAudience: AudienceAll},
			want: map[string]bool{"s1": true, "s2": true, "t1": true, "a1": true},
		},
		{
			name: "students",
			a:    Announcement{TargetAudience: AudienceStudents},
			want: map[string]bool{"s1": true, "s2": true, "t1": false, "a1": false},
		},
		{
			name: "teachers",
			a:    Announcement{TargetAudience: AudienceTeachers},
			want: map[string]bool{"s1": false, "s2": false, "t1": true, "a1": false},
		},
		{
			name: "specific class",
			a:    Announcement{TargetAudience: AudienceSpecificClass, TargetClass: "CS-A"},
			want: map[string]bool{"s1": true, "s2": false, "t1": false, "a1": false},
		},
		{
			name: "specific class without a class",
			a:    Announcement{TargetAudience: AudienceSpecificClass},
			want: map[string]bool{"s1": false, "s2": false, "t1": false, "a1": false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, u := range []user.User{studentA, studentB, teacher, admin} {
				assert.Equal(t, tt.want[u.ID], VisibleTo(u, tt.a), u.ID)
			}
		})
	}
}

func TestPolicy(t *testing.T) {
	author := user.User{ID: "t1", Role: user.RoleTeacher}
	a := Announcement{Author: author.Ref()}

	assert.True(t, CanCreate(author))
	assert.True(t, CanCreate(user.User{ID: "a1", Role: user.RoleAdmin}))
	assert.False(t, CanCreate(user.User{ID: "s1", Role: user.RoleStudent}))

	assert.True(t, CanManage(author, a))
	assert.False(t, CanManage(user.User{ID: "a1", Role: user.RoleAdmin}, a))
	assert.False(t, CanManage(user.User{ID: "t2", Role: user.RoleTeacher}, a))
}

func TestIsReadBy(t *testing.T) {
	a := Announcement{ReadBy: []Read{{User: user.NewRef("s1")}}}
	assert.True(t, a.IsReadBy("s1"))
	assert.False(t, a.IsReadBy("s2"))
}
