package doubt

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// Statuses
const (
	StatusOpen     = "open"
	StatusAnswered = "answered"
	StatusResolved = "resolved"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var (
	AllStatuses   = []string{StatusOpen, StatusAnswered, StatusResolved}
	AllPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}
)

type Doubt struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Subject     string      `json:"subject"`
	Student     user.Ref    `json:"student"`
	Class       string      `json:"class"`
	Status      string      `json:"status"`
	Priority    string      `json:"priority"`
	Tags        []string    `json:"tags"`
	Attachments []core.File `json:"attachments"`
	Responses   []Response  `json:"responses"`
	ResolvedBy  *user.Ref   `json:"resolved_by"`
	ResolvedAt  *time.Time  `json:"resolved_at"` // UTC
	CreatedAt   time.Time   `json:"created_at"`  // UTC
	UpdatedAt   time.Time   `json:"updated_at"`  // UTC
}

func (d Doubt) IsResolved() bool { return d.Status == StatusResolved }

// refs returns pointers to every user reference held by the doubt and its responses.
func (d *Doubt) refs() []*user.Ref {
	refs := make([]*user.Ref, 0, len(d.Responses)+2)
	refs = append(refs, &d.Student, d.ResolvedBy)
	for i := range d.Responses {
		refs = append(refs, &d.Responses[i].Author)
	}
	return refs
}

type Response struct {
	ID                string      `json:"id"`
	Author            user.Ref    `json:"author"`
	Content           string      `json:"content"`
	IsTeacherResponse bool        `json:"is_teacher_response"`
	Attachments       []core.File `json:"attachments"`
	CreatedAt         time.Time   `json:"created_at"` // UTC
}

// NewDoubt defines what information may be provided to ask a question.
type NewDoubt struct {
	Title       string      `json:"title" validate:"required,max=200"`
	Description string      `json:"description" validate:"required"`
	Subject     string      `json:"subject" validate:"required"`
	Class       string      `json:"class"`
	Priority    string      `json:"priority" validate:"omitempty,doubtpriority"`
	Tags        []string    `json:"tags"`
	Attachments []core.File `json:"attachments" validate:"omitempty,dive"`
}

func (nd *NewDoubt) Validate(validate *validator.Validate) error {
	nd.Title = core.CleanString(nd.Title)
	nd.Description = core.CleanString(nd.Description)
	nd.Subject = core.CleanString(nd.Subject)
	nd.Class = core.CleanString(nd.Class)
	nd.Priority = core.CleanString(nd.Priority, true /* lower */)
	nd.Tags = core.CleanStrings(nd.Tags, true /* lower */)
	return validate.Struct(nd)
}

type NewResponse struct {
	Content     string      `json:"content" validate:"required"`
	Attachments []core.File `json:"attachments" validate:"omitempty,dive"`
}

func (nr *NewResponse) Validate(validate *validator.Validate) error {
	nr.Content = core.CleanString(nr.Content)
	return validate.Struct(nr)
}

type QueryFilter struct {
	Search    string `query:"search"`
	Status    string `query:"status"`
	Subject   string `query:"subject"`
	StudentID string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	all := func(s string) string {
		if s == "all" {
			return ""
		}
		return s
	}
	qf.Search = core.CleanString(qf.Search)
	qf.Status = all(core.CleanString(qf.Status, true /* lower */))
	qf.Subject = all(core.CleanString(qf.Subject))
}

// Match reports whether d satisfies the filter. Search is a case-insensitive match on one of
// Doubt.Title, Doubt.Description or Doubt.Subject.
func (qf QueryFilter) Match(d Doubt) bool {
	if qf.StudentID != "" && d.Student.ID != qf.StudentID {
		return false
	}
	if qf.Status != "" && d.Status != qf.Status {
		return false
	}
	if qf.Subject != "" && d.Subject != qf.Subject {
		return false
	}
	if qf.Search != "" {
		return core.ContainsFold(d.Title, qf.Search) ||
			core.ContainsFold(d.Description, qf.Search) ||
			core.ContainsFold(d.Subject, qf.Search)
	}
	return true
}
