package inmemdb

import (
	"sync"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/announcement"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/doubt"
	"github.com/trezcool/shule/core/note"
	"github.com/trezcool/shule/core/user"
)

type (
	// DB is an in-memory store for tests and local development.
	DB struct {
		user         *userTable
		doubt        *doubtTable
		assignment   *assignmentTable
		announcement *announcementTable
		note         *noteTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	doubtTable struct {
		sync.RWMutex
		table map[string]*doubt.Doubt
	}

	assignmentTable struct {
		sync.RWMutex
		table map[string]*assignment.Assignment
	}

	announcementTable struct {
		sync.RWMutex
		table map[string]*announcement.Announcement
	}

	noteTable struct {
		sync.RWMutex
		table map[string]*note.Note
	}
)

func Open() *DB {
	return &DB{
		user:         &userTable{table: make(map[string]*user.User)},
		doubt:        &doubtTable{table: make(map[string]*doubt.Doubt)},
		assignment:   &assignmentTable{table: make(map[string]*assignment.Assignment)},
		announcement: &announcementTable{table: make(map[string]*announcement.Announcement)},
		note:         &noteTable{table: make(map[string]*note.Note)},
	}
}

func newID() string {
	return uuid.New().String()
}

func copyStrings(ss []string) []string {
	if ss == nil {
		return nil
	}
	return append([]string(nil), ss...)
}

func copyFiles(fs []core.File) []core.File {
	if fs == nil {
		return nil
	}
	return append([]core.File(nil), fs...)
}

// keep only the id of references; display fields are populated by the services
func ref(r user.Ref) user.Ref {
	return user.NewRef(r.ID)
}
