package doubt

import "github.com/trezcool/shule/core/user"

func CanCreate(caller user.User) bool {
	return caller.IsStudent()
}

// CanRespond reports whether caller may post a response on d.
// Any identified user may respond, including students on other students' doubts.
func CanRespond(caller user.User, d Doubt) bool {
	return caller.ID != ""
}

// CanResolve reports whether caller may resolve d: its owning student or any teacher.
// Resolving an already resolved doubt is allowed.
func CanResolve(caller user.User, d Doubt) bool {
	return caller.ID == d.Student.ID || caller.IsTeacher()
}

// StatusAfterResponse returns the status of a doubt in status cur once resp has been added to it.
// Only a teacher's response moves an open doubt forward. Stores apply it to the status they hold when the
// response is written, so a concurrent resolve is never undone.
func StatusAfterResponse(cur string, resp Response) string {
	if cur == StatusOpen && resp.IsTeacherResponse {
		return StatusAnswered
	}
	return cur
}
