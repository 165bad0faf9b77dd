package announcement

import "github.com/trezcool/shule/core/user"

func CanCreate(caller user.User) bool {
	return caller.IsTeacher() || caller.IsAdmin()
}

// CanManage reports whether caller may edit or delete a: only its author. Admins get no override.
func CanManage(caller user.User, a Announcement) bool {
	return caller.ID != "" && caller.ID == a.Author.ID
}

// VisibleTo reports whether a targets u: everybody, u's role, or u's class.
func VisibleTo(u user.User, a Announcement) bool {
	switch a.TargetAudience {
	case AudienceAll:
		return true
	case AudienceSpecificClass:
		return a.TargetClass != "" && a.TargetClass == u.Class
	default:
		return u.Role != "" && a.TargetAudience == u.Role+"s"
	}
}
