package user

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrNotFound        = core.NewNotFoundError("user")
	ErrUserExists      = core.NewConflictError("a user with this subject or email already exists")
	ErrNotAllowed      = core.NewForbiddenError("admin access required")
	ErrProfileNotOwned = core.NewForbiddenError("cannot edit another user's profile")
	ErrMissingSubject  = core.NewValidationError(
		errors.New("user event without id"),
		core.FieldError{Field: "id", Error: "this field is required"},
	)
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers returns one page of the active users matching filter, and the total count of matches.
		// QueryFilter.Search does a case-insensitive match on one of User.FirstName, User.LastName, User.Email or
		// User.RollNumber.
		QueryUsers(ctx context.Context, filter *QueryFilter, page core.Page, ordering []core.DBOrdering) ([]User, int, error)
		QueryUsersByID(ctx context.Context, ids []string) ([]User, error)
		// CountUsers counts the active users with the given role (all roles if empty).
		CountUsers(ctx context.Context, role string) (int, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	// Directory resolves user ids to Users; every engine uses it to populate its references.
	Directory interface {
		LookupUsers(ctx context.Context, ids ...string) (map[string]User, error)
	}

	Service interface {
		Directory

		Resolve(ctx context.Context, subject string) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Sync(ctx context.Context, evt ProviderEvent) (User, bool, error)
		UpdateProfile(ctx context.Context, caller, target User, data UpdateProfile) (User, error)
		SetRole(ctx context.Context, caller User, id string, data SetRole) (User, error)
		Deactivate(ctx context.Context, caller User, id string) (User, error)
		Query(ctx context.Context, filter *QueryFilter, page core.Page, ordering []core.DBOrdering) ([]User, int, error)
		ListStudents(ctx context.Context, caller User) ([]User, error)
		Stats(ctx context.Context) (Stats, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

// OrderingFields maps the accepted `ordering` query fields to their columns.
var OrderingFields = map[string]string{
	"created_at": "created_at",
	"first_name": "first_name",
	"last_name":  "last_name",
	"email":      "email",
	"class":      "class",
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Resolve(ctx context.Context, subject string) (User, error) {
	subject = core.CleanString(subject)
	if subject == "" {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUser(ctx, GetFilter{Subject: subject})
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) LookupUsers(ctx context.Context, ids ...string) (map[string]User, error) {
	uniq := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			uniq = append(uniq, id)
		}
	}
	users := make(map[string]User, len(uniq))
	if len(uniq) == 0 {
		return users, nil
	}

	found, err := svc.repo.QueryUsersByID(ctx, uniq)
	if err != nil {
		return nil, errors.Wrap(err, "querying users by ID")
	}
	for _, usr := range found {
		users[usr.ID] = usr
	}
	return users, nil
}

// Sync creates or updates the User described by an identity provider event.
// Events other than user.created & user.updated are ignored (synced = false).
// Role, class & activation are local to this system and never touched by a sync.
func (svc *service) Sync(ctx context.Context, evt ProviderEvent) (User, bool, error) {
	if !evt.IsUserEvent() {
		return User{}, false, nil
	}
	subject := core.CleanString(evt.Data.ID)
	if subject == "" {
		return User{}, false, ErrMissingSubject
	}

	now := core.Now()
	usr, err := svc.repo.GetUser(ctx, GetFilter{Subject: subject})
	switch {
	case err == nil:
		usr.Email = evt.PrimaryEmail()
		usr.FirstName = evt.Data.FirstName
		usr.LastName = evt.Data.LastName
		usr.ProfileImage = evt.Data.ImageURL
		usr.UpdatedAt = now
		usr, err = svc.repo.UpdateUser(ctx, usr)
		if err != nil {
			return User{}, false, errors.Wrap(err, "updating user")
		}
	case errors.Cause(err) == ErrNotFound:
		usr, err = svc.repo.CreateUser(ctx, User{
			Subject:      subject,
			Email:        evt.PrimaryEmail(),
			FirstName:    evt.Data.FirstName,
			LastName:     evt.Data.LastName,
			ProfileImage: evt.Data.ImageURL,
			Role:         RoleStudent,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return User{}, false, errors.Wrap(err, "creating user")
		}
	default:
		return User{}, false, errors.Wrap(err, "finding user by subject")
	}
	return usr, true, nil
}

func (svc *service) UpdateProfile(ctx context.Context, caller, target User, data UpdateProfile) (User, error) {
	if !CanEditProfile(caller, target) {
		return User{}, ErrProfileNotOwned
	}
	target.FirstName = data.FirstName
	target.LastName = data.LastName
	target.ProfileImage = data.ProfileImage
	target.Department = data.Department
	target.Class = data.Class
	target.RollNumber = data.RollNumber
	target.Subjects = data.Subjects
	target.UpdatedAt = core.Now()
	return svc.repo.UpdateUser(ctx, target)
}

func (svc *service) SetRole(ctx context.Context, caller User, id string, data SetRole) (User, error) {
	if !CanManage(caller) {
		return User{}, ErrNotAllowed
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	usr.Role = data.Role
	usr.UpdatedAt = core.Now()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Deactivate(ctx context.Context, caller User, id string) (User, error) {
	if !CanManage(caller) {
		return User{}, ErrNotAllowed
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, errors.Wrap(err, "finding user by ID")
	}
	usr.IsActive = false
	usr.UpdatedAt = core.Now()
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, page core.Page, ordering []core.DBOrdering) ([]User, int, error) {
	page.Clean()
	return svc.repo.QueryUsers(ctx, filter, page, core.CleanOrderings(ordering, OrderingFields))
}

func (svc *service) ListStudents(ctx context.Context, caller User) ([]User, error) {
	if !CanListStudents(caller) {
		return nil, core.NewForbiddenError("only teachers can list students")
	}
	students, _, err := svc.repo.QueryUsers(
		ctx,
		&QueryFilter{Role: RoleStudent},
		core.Unpaged(),
		[]core.DBOrdering{{Field: "class", Ascending: true}, {Field: "last_name", Ascending: true}},
	)
	return students, err
}

func (svc *service) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	counts := []struct {
		role string
		dest *int
	}{
		{"", &stats.TotalUsers},
		{RoleStudent, &stats.TotalStudents},
		{RoleTeacher, &stats.TotalTeachers},
		{RoleAdmin, &stats.TotalAdmins},
	}
	for _, c := range counts {
		n, err := svc.repo.CountUsers(ctx, c.role)
		if err != nil {
			return Stats{}, errors.Wrap(err, "counting users")
		}
		*c.dest = n
	}
	return stats, nil
}
