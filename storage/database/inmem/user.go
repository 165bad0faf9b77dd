package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.user}
}

func copyUser(usr user.User) user.User {
	usr.Subjects = copyStrings(usr.Subjects)
	return usr
}

// checkUniqueness must be called with the table locked.
func (repo *userRepository) checkUniqueness(usr user.User) error {
	for id, u := range repo.db.table {
		if id == usr.ID {
			continue
		}
		if u.Subject == usr.Subject || strings.EqualFold(u.Email, usr.Email) {
			return user.ErrUserExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.checkUniqueness(usr); err != nil {
		return user.User{}, err
	}
	usr.ID = newID()
	usr = copyUser(usr)
	repo.db.table[usr.ID] = &usr
	return copyUser(usr), nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.table[filter.ID]; ok {
			return copyUser(*usr), nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.db.table {
		if (filter.Subject != "" && usr.Subject == filter.Subject) ||
			(filter.Email != "" && strings.EqualFold(usr.Email, filter.Email)) {
			return copyUser(*usr), nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func matchUser(usr user.User, filter *user.QueryFilter) bool {
	if !usr.IsActive {
		return false
	}
	if filter == nil {
		return true
	}
	if filter.Role != "" && usr.Role != filter.Role {
		return false
	}
	if filter.Search != "" {
		return core.ContainsFold(usr.FirstName, filter.Search) ||
			core.ContainsFold(usr.LastName, filter.Search) ||
			core.ContainsFold(usr.Email, filter.Search) ||
			core.ContainsFold(usr.RollNumber, filter.Search)
	}
	return true
}

func lessUsers(a, b user.User, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		var cmp int
		switch ord.Field {
		case "first_name":
			cmp = strings.Compare(a.FirstName, b.FirstName)
		case "last_name":
			cmp = strings.Compare(a.LastName, b.LastName)
		case "email":
			cmp = strings.Compare(a.Email, b.Email)
		case "class":
			cmp = strings.Compare(a.Class, b.Class)
		case "created_at":
			switch {
			case a.CreatedAt.Before(b.CreatedAt):
				cmp = -1
			case a.CreatedAt.After(b.CreatedAt):
				cmp = 1
			}
		}
		if cmp != 0 {
			return (cmp < 0) == ord.Ascending
		}
	}
	return false
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, page core.Page, ordering []core.DBOrdering) ([]user.User, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	users := make([]user.User, 0)
	for _, usr := range repo.db.table {
		if matchUser(*usr, filter) {
			users = append(users, copyUser(*usr))
		}
	}
	sort.SliceStable(users, func(i, j int) bool { return lessUsers(users[i], users[j], ordering) })

	start, end := page.Bounds(len(users))
	return users[start:end], len(users), nil
}

func (repo *userRepository) QueryUsersByID(ctx context.Context, ids []string) ([]user.User, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	users := make([]user.User, 0, len(ids))
	for _, id := range ids {
		if usr, ok := repo.db.table[id]; ok {
			users = append(users, copyUser(*usr))
		}
	}
	return users, nil
}

func (repo *userRepository) CountUsers(ctx context.Context, role string) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var n int
	for _, usr := range repo.db.table {
		if usr.IsActive && (role == "" || usr.Role == role) {
			n++
		}
	}
	return n, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if err := repo.checkUniqueness(usr); err != nil {
		return user.User{}, err
	}
	usr.Subject = orig.Subject
	usr.CreatedAt = orig.CreatedAt
	usr = copyUser(usr)
	repo.db.table[usr.ID] = &usr
	return copyUser(usr), nil
}
