package assignment

import "github.com/trezcool/shule/core/user"

func CanCreate(caller user.User) bool {
	return caller.IsTeacher()
}

// CanSubmit reports whether caller may hand in work. Late submissions are accepted.
func CanSubmit(caller user.User) bool {
	return caller.IsStudent()
}

// CanManage reports whether caller may edit, delete or grade a: only its owning teacher.
func CanManage(caller user.User, a Assignment) bool {
	return caller.ID != "" && caller.ID == a.Teacher.ID
}
