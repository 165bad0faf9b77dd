package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

var (
	AllRoles = []string{RoleStudent, RoleTeacher, RoleAdmin}

	Roles = []Role{
		{Name: "Student", Value: RoleStudent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Admin", Value: RoleAdmin},
	}
)

// Identity provider events
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
)

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type User struct {
	ID           string    `json:"id"`
	Subject      string    `json:"-"` // external-subject id issued by the identity provider
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Role         string    `json:"role"`
	ProfileImage string    `json:"profile_image"`
	Department   string    `json:"department"`
	Class        string    `json:"class"`
	RollNumber   string    `json:"roll_number"`
	Subjects     []string  `json:"subjects"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

func (u User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) IsStudent() bool { return u.Role == RoleStudent }
func (u User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u User) IsAdmin() bool   { return u.Role == RoleAdmin }

// Ref returns the projection of this User used wherever another resource references it.
func (u User) Ref() Ref {
	return Ref{ID: u.ID, Name: u.Name(), Role: u.Role, RollNumber: u.RollNumber}
}

// Ref is a populated reference to a User: display fields instead of a raw id.
type Ref struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	RollNumber string `json:"roll_number,omitempty"`
}

// NewRef returns a Ref carrying only the id, to be populated later.
func NewRef(id string) Ref { return Ref{ID: id} }

func (r Ref) IsZero() bool { return r.ID == "" }

// Populate fills the display fields of the Refs pointed to by `refs` from `users` ({id: User}).
func Populate(users map[string]User, refs ...*Ref) {
	for _, ref := range refs {
		if ref == nil || ref.ID == "" {
			continue
		}
		if usr, ok := users[ref.ID]; ok {
			*ref = usr.Ref()
		}
	}
}

// ProviderEvent is a user lifecycle event posted by the identity provider's webhook.
type ProviderEvent struct {
	Type string       `json:"type" validate:"required"`
	Data ProviderUser `json:"data"`
}

type ProviderUser struct {
	ID             string                 `json:"id"`
	EmailAddresses []ProviderEmailAddress `json:"email_addresses"`
	FirstName      string                 `json:"first_name"`
	LastName       string                 `json:"last_name"`
	ImageURL       string                 `json:"image_url"`
}

type ProviderEmailAddress struct {
	EmailAddress string `json:"email_address"`
}

func (e ProviderEvent) IsUserEvent() bool {
	return e.Type == EventUserCreated || e.Type == EventUserUpdated
}

// PrimaryEmail returns the first email address of the event's user.
func (e ProviderEvent) PrimaryEmail() string {
	if len(e.Data.EmailAddresses) == 0 {
		return ""
	}
	return core.CleanString(e.Data.EmailAddresses[0].EmailAddress, true /* lower */)
}

func (e *ProviderEvent) Validate(validate *validator.Validate) error {
	e.Type = core.CleanString(e.Type)
	e.Data.ID = core.CleanString(e.Data.ID)
	e.Data.FirstName = core.CleanString(e.Data.FirstName)
	e.Data.LastName = core.CleanString(e.Data.LastName)
	return validate.Struct(e)
}

// UpdateProfile defines what information may be provided to modify a User's profile.
// Role and active flag are not profile fields.
type UpdateProfile struct {
	FirstName    string   `json:"first_name"`
	LastName     string   `json:"last_name"`
	ProfileImage string   `json:"profile_image" validate:"omitempty,url"`
	Department   string   `json:"department"`
	Class        string   `json:"class"`
	RollNumber   string   `json:"roll_number"`
	Subjects     []string `json:"subjects" validate:"omitempty,dive,notblank"`
}

func (up *UpdateProfile) Validate(origUsr User, validate *validator.Validate) error {
	keep := func(val, orig string) string {
		if val = core.CleanString(val); val != "" {
			return val
		}
		return orig
	}
	up.FirstName = keep(up.FirstName, origUsr.FirstName)
	up.LastName = keep(up.LastName, origUsr.LastName)
	up.ProfileImage = keep(up.ProfileImage, origUsr.ProfileImage)
	up.Department = keep(up.Department, origUsr.Department)
	up.Class = keep(up.Class, origUsr.Class)
	up.RollNumber = keep(up.RollNumber, origUsr.RollNumber)
	if up.Subjects == nil {
		up.Subjects = origUsr.Subjects
	} else {
		up.Subjects = core.CleanStrings(up.Subjects)
	}
	return validate.Struct(up)
}

type SetRole struct {
	Role string `json:"role" validate:"required,userrole"`
}

func (sr *SetRole) Validate(validate *validator.Validate) error {
	sr.Role = core.CleanString(sr.Role, true /* lower */)
	return validate.Struct(sr)
}

type GetFilter struct {
	ID      string
	Subject string
	Email   string
}

type QueryFilter struct {
	Search string `query:"search"`
	Role   string `query:"role"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
	if qf.Role == "all" {
		qf.Role = ""
	}
}

// Stats counts active users.
type Stats struct {
	TotalUsers    int `json:"total_users"`
	TotalStudents int `json:"total_students"`
	TotalTeachers int `json:"total_teachers"`
	TotalAdmins   int `json:"total_admins"`
}
