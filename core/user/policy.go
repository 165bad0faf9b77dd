package user

// CanManage reports whether caller may administer other users (roles, activation, listings).
func CanManage(caller User) bool {
	return caller.IsActive && caller.IsAdmin()
}

// CanEditProfile reports whether caller may edit target's profile.
func CanEditProfile(caller, target User) bool {
	return caller.ID == target.ID || CanManage(caller)
}

// CanListStudents reports whether caller may browse the students directory.
func CanListStudents(caller User) bool {
	return caller.IsTeacher() || caller.IsAdmin()
}
