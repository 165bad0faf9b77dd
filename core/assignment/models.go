package assignment

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

type Assignment struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Subject      string       `json:"subject"`
	Teacher      user.Ref     `json:"teacher"`
	Class        string       `json:"class"`
	DueDate      time.Time    `json:"due_date"` // UTC
	MaxMarks     int          `json:"max_marks"`
	Instructions string       `json:"instructions"`
	Attachments  []core.File  `json:"attachments"`
	IsActive     bool         `json:"is_active"`
	Submissions  []Submission `json:"submissions,omitempty"`
	CreatedAt    time.Time    `json:"created_at"` // UTC
	UpdatedAt    time.Time    `json:"updated_at"` // UTC
}

// SubmissionOf returns the submission of the student with the given id, if any.
func (a Assignment) SubmissionOf(studentID string) (Submission, bool) {
	for _, sub := range a.Submissions {
		if sub.Student.ID == studentID {
			return sub, true
		}
	}
	return Submission{}, false
}

func (a Assignment) submission(id string) (Submission, bool) {
	for _, sub := range a.Submissions {
		if sub.ID == id {
			return sub, true
		}
	}
	return Submission{}, false
}

func (a *Assignment) refs() []*user.Ref {
	refs := make([]*user.Ref, 0, len(a.Submissions)+1)
	refs = append(refs, &a.Teacher)
	for i := range a.Submissions {
		refs = append(refs, &a.Submissions[i].Student)
	}
	return refs
}

type Submission struct {
	ID          string    `json:"id"`
	Student     user.Ref  `json:"student"`
	File        core.File `json:"file"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
	Score       *float64  `json:"score"`
	Feedback    string    `json:"feedback"`
	IsGraded    bool      `json:"is_graded"`
}

// StudentAssignment is an Assignment as seen by one student: their own submission and its derived status.
type StudentAssignment struct {
	Assignment
	SubmissionStatus string      `json:"submission_status"`
	Submission       *Submission `json:"submission"`
}

type NewAssignment struct {
	Title        string      `json:"title" validate:"required,max=200"`
	Description  string      `json:"description" validate:"required"`
	Subject      string      `json:"subject" validate:"required"`
	Class        string      `json:"class"`
	DueDate      time.Time   `json:"due_date" validate:"required"`
	MaxMarks     int         `json:"max_marks" validate:"required,gt=0"`
	Instructions string      `json:"instructions"`
	Attachments  []core.File `json:"attachments" validate:"omitempty,dive"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.Subject = core.CleanString(na.Subject)
	na.Class = core.CleanString(na.Class)
	na.Instructions = core.CleanString(na.Instructions)
	na.DueDate = na.DueDate.UTC()
	return validate.Struct(na)
}

// UpdateAssignment defines what information may be provided to modify an Assignment.
// Blank fields keep their current value.
type UpdateAssignment struct {
	Title        string      `json:"title" validate:"max=200"`
	Description  string      `json:"description"`
	Subject      string      `json:"subject"`
	Class        string      `json:"class"`
	DueDate      time.Time   `json:"due_date"`
	MaxMarks     int         `json:"max_marks" validate:"gte=0"`
	Instructions string      `json:"instructions"`
	Attachments  []core.File `json:"attachments" validate:"omitempty,dive"`
}

func (ua *UpdateAssignment) Validate(orig Assignment, validate *validator.Validate) error {
	keep := func(val, orig string) string {
		if val = core.CleanString(val); val != "" {
			return val
		}
		return orig
	}
	ua.Title = keep(ua.Title, orig.Title)
	ua.Description = keep(ua.Description, orig.Description)
	ua.Subject = keep(ua.Subject, orig.Subject)
	ua.Class = keep(ua.Class, orig.Class)
	ua.Instructions = keep(ua.Instructions, orig.Instructions)
	if ua.DueDate.IsZero() {
		ua.DueDate = orig.DueDate
	}
	ua.DueDate = ua.DueDate.UTC()
	if ua.MaxMarks == 0 {
		ua.MaxMarks = orig.MaxMarks
	}
	if ua.Attachments == nil {
		ua.Attachments = orig.Attachments
	}
	return validate.Struct(ua)
}

type NewSubmission struct {
	FileName string `json:"file_name" validate:"required,max=255"`
	FileURL  string `json:"file_url" validate:"required,url"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.FileName = core.CleanString(ns.FileName)
	ns.FileURL = core.CleanString(ns.FileURL)
	return validate.Struct(ns)
}

// Grade is a teacher's evaluation of a Submission. Score is taken as given: it is neither bounded by the
// assignment's max marks nor required to be positive.
type Grade struct {
	Score    *float64 `json:"score" validate:"required"`
	Feedback string   `json:"feedback"`
}

func (g *Grade) Validate(validate *validator.Validate) error {
	g.Feedback = core.CleanString(g.Feedback)
	return validate.Struct(g)
}

type QueryFilter struct {
	Status    string `query:"status"`
	Subject   string `query:"subject"`
	TeacherID string `query:"-"`
	Class     string `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	if qf.Status == "all" {
		qf.Status = ""
	}
	qf.Subject = core.CleanString(qf.Subject)
	if qf.Subject == "all" {
		qf.Subject = ""
	}
}

// Match reports whether the active assignment a satisfies the stored-field part of the filter.
// Status is derived per student and matched separately.
func (qf QueryFilter) Match(a Assignment) bool {
	if !a.IsActive {
		return false
	}
	if qf.TeacherID != "" && a.Teacher.ID != qf.TeacherID {
		return false
	}
	if qf.Class != "" && a.Class != qf.Class {
		return false
	}
	if qf.Subject != "" && a.Subject != qf.Subject {
		return false
	}
	return true
}
