package note

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// Note is study material shared by a teacher.
type Note struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	Teacher     user.Ref `json:"teacher"`
	core.File
	FileSize  int64     `json:"file_size"`
	FileType  string    `json:"file_type"`
	Class     string    `json:"class"`
	Tags      []string  `json:"tags"`
	IsPublic  bool      `json:"is_public"`
	Downloads int       `json:"downloads"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type NewNote struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Subject     string   `json:"subject" validate:"required"`
	Description string   `json:"description"`
	FileName    string   `json:"file_name" validate:"required_with=FileURL,max=255"`
	FileURL     string   `json:"file_url" validate:"omitempty,url"`
	FileSize    int64    `json:"file_size" validate:"gte=0"`
	FileType    string   `json:"file_type"`
	Class       string   `json:"class"`
	Tags        []string `json:"tags"`
	IsPublic    *bool    `json:"is_public"`
}

func (nn *NewNote) Validate(validate *validator.Validate) error {
	nn.Title = core.CleanString(nn.Title)
	nn.Subject = core.CleanString(nn.Subject)
	nn.Description = core.CleanString(nn.Description)
	nn.FileName = core.CleanString(nn.FileName)
	nn.FileURL = core.CleanString(nn.FileURL)
	nn.FileType = core.CleanString(nn.FileType, true /* lower */)
	nn.Class = core.CleanString(nn.Class)
	nn.Tags = core.CleanStrings(nn.Tags, true /* lower */)
	return validate.Struct(nn)
}

// Fill returns n updated with the non-blank fields of nn.
func (nn NewNote) Fill(n Note) Note {
	set := func(dst *string, val string) {
		if val != "" {
			*dst = val
		}
	}
	set(&n.Title, nn.Title)
	set(&n.Subject, nn.Subject)
	set(&n.Description, nn.Description)
	set(&n.Name, nn.FileName)
	set(&n.URL, nn.FileURL)
	set(&n.FileType, nn.FileType)
	set(&n.Class, nn.Class)
	if nn.FileSize > 0 {
		n.FileSize = nn.FileSize
	}
	if nn.Tags != nil {
		n.Tags = nn.Tags
	}
	if nn.IsPublic != nil {
		n.IsPublic = *nn.IsPublic
	}
	return n
}

// UpdateNote holds the same fields as NewNote, all optional.
type UpdateNote struct {
	NewNote
}

func (un *UpdateNote) Validate(orig Note, validate *validator.Validate) error {
	if un.Title == "" {
		un.Title = orig.Title
	}
	if un.Subject == "" {
		un.Subject = orig.Subject
	}
	return un.NewNote.Validate(validate)
}

type QueryFilter struct {
	Search  string `query:"search"`
	Subject string `query:"subject"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Subject = core.CleanString(qf.Subject)
	if qf.Subject == "all" {
		qf.Subject = ""
	}
}

// Match reports whether n is public and satisfies the filter. Search is a case-insensitive match on one of
// Note.Title, Note.Description or Note.Subject.
func (qf QueryFilter) Match(n Note) bool {
	if !n.IsPublic {
		return false
	}
	if qf.Subject != "" && n.Subject != qf.Subject {
		return false
	}
	if qf.Search != "" {
		return core.ContainsFold(n.Title, qf.Search) ||
			core.ContainsFold(n.Description, qf.Search) ||
			core.ContainsFold(n.Subject, qf.Search)
	}
	return true
}
