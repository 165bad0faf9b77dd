package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

const userColumns = `id, subject, email, first_name, last_name, role, profile_image, department, class, roll_number,
	subjects, is_active, created_at, updated_at`

type userRow struct {
	ID           string         `db:"id"`
	Subject      string         `db:"subject"`
	Email        string         `db:"email"`
	FirstName    string         `db:"first_name"`
	LastName     string         `db:"last_name"`
	Role         string         `db:"role"`
	ProfileImage string         `db:"profile_image"`
	Department   string         `db:"department"`
	Class        string         `db:"class"`
	RollNumber   string         `db:"roll_number"`
	Subjects     pq.StringArray `db:"subjects"`
	IsActive     bool           `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func newUserRow(usr user.User) userRow {
	subjects := pq.StringArray(usr.Subjects)
	if subjects == nil {
		subjects = pq.StringArray{}
	}
	return userRow{
		ID:           usr.ID,
		Subject:      usr.Subject,
		Email:        usr.Email,
		FirstName:    usr.FirstName,
		LastName:     usr.LastName,
		Role:         usr.Role,
		ProfileImage: usr.ProfileImage,
		Department:   usr.Department,
		Class:        usr.Class,
		RollNumber:   usr.RollNumber,
		Subjects:     subjects,
		IsActive:     usr.IsActive,
		CreatedAt:    usr.CreatedAt,
		UpdatedAt:    usr.UpdatedAt,
	}
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Subject:      r.Subject,
		Email:        r.Email,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Role:         r.Role,
		ProfileImage: r.ProfileImage,
		Department:   r.Department,
		Class:        r.Class,
		RollNumber:   r.RollNumber,
		Subjects:     []string(r.Subjects),
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func toUsers(rows []userRow) []user.User {
	users := make([]user.User, len(rows))
	for i, r := range rows {
		users[i] = r.toUser()
	}
	return users
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :subject, :email, :first_name, :last_name, :role, :profile_image, :department, :class,
			:roll_number, :subjects, :is_active, :created_at, :updated_at)`,
		newUserRow(usr),
	)
	if isUniqueViolation(err) {
		return user.User{}, user.ErrUserExists
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var q query
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		q.where("id = ?", filter.ID)
	case filter.Subject != "":
		q.where("subject = ?", filter.Subject)
	case filter.Email != "":
		q.where("LOWER(email) = LOWER(?)", filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	stmt := repo.db.Rebind("SELECT " + userColumns + " FROM users" + q.clause())
	if err := repo.db.GetContext(ctx, &row, stmt, q.args...); err != nil {
		return user.User{}, notFound(err, user.ErrNotFound)
	}
	return row.toUser(), nil
}

func (repo *userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, page core.Page, ordering []core.DBOrdering) ([]user.User, int, error) {
	var q query
	q.where("is_active")
	if filter != nil {
		if filter.Role != "" {
			q.where("role = ?", filter.Role)
		}
		if filter.Search != "" {
			q.search(filter.Search, "first_name", "last_name", "email", "roll_number")
		}
	}
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}

	total, err := count(ctx, repo.db, "users", q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting users")
	}

	var rows []userRow
	stmt := repo.db.Rebind("SELECT " + userColumns + " FROM users" + q.clause() + orderBy(ordering) + limit(page))
	if err = repo.db.SelectContext(ctx, &rows, stmt, q.args...); err != nil {
		return nil, 0, errors.Wrap(err, "selecting users")
	}
	return toUsers(rows), total, nil
}

func (repo *userRepository) QueryUsersByID(ctx context.Context, ids []string) ([]user.User, error) {
	if len(ids) == 0 {
		return []user.User{}, nil
	}
	stmt, args, err := sqlx.In("SELECT "+userColumns+" FROM users WHERE id IN (?)", ids)
	if err != nil {
		return nil, errors.Wrap(err, "building users query")
	}

	var rows []userRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(stmt), args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	return toUsers(rows), nil
}

func (repo *userRepository) CountUsers(ctx context.Context, role string) (int, error) {
	var q query
	q.where("is_active")
	if role != "" {
		q.where("role = ?", role)
	}
	return count(ctx, repo.db, "users", q)
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE users SET email = :email, first_name = :first_name, last_name = :last_name, role = :role,
			profile_image = :profile_image, department = :department, class = :class, roll_number = :roll_number,
			subjects = :subjects, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`,
		newUserRow(usr),
	)
	if isUniqueViolation(err) {
		return user.User{}, user.ErrUserExists
	}
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
}
