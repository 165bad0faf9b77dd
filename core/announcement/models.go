package announcement

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

// Types
const (
	TypeGeneral    = "general"
	TypeExam       = "exam"
	TypeAssignment = "assignment"
	TypeEvent      = "event"
	TypeFacility   = "facility"
)

// Priorities
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Audiences
const (
	AudienceAll           = "all"
	AudienceStudents      = "students"
	AudienceTeachers      = "teachers"
	AudienceSpecificClass = "specific_class"
)

var (
	AllTypes     = []string{TypeGeneral, TypeExam, TypeAssignment, TypeEvent, TypeFacility}
	AllAudiences = []string{AudienceAll, AudienceStudents, AudienceTeachers, AudienceSpecificClass}
)

type Announcement struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Content        string      `json:"content"`
	Type           string      `json:"type"`
	Priority       string      `json:"priority"`
	Author         user.Ref    `json:"author"`
	TargetAudience string      `json:"target_audience"`
	TargetClass    string      `json:"target_class"`
	IsPinned       bool        `json:"is_pinned"`
	IsActive       bool        `json:"is_active"`
	Attachments    []core.File `json:"attachments"`
	ReadBy         []Read      `json:"read_by"`
	CreatedAt      time.Time   `json:"created_at"` // UTC
	UpdatedAt      time.Time   `json:"updated_at"` // UTC
}

// IsReadBy reports whether the user with the given id is in the read set.
func (a Announcement) IsReadBy(userID string) bool {
	for _, r := range a.ReadBy {
		if r.User.ID == userID {
			return true
		}
	}
	return false
}

type Read struct {
	User   user.Ref  `json:"user"`
	ReadAt time.Time `json:"read_at"` // UTC
}

// FeedItem is an Announcement as seen by one reader.
type FeedItem struct {
	Announcement
	IsRead bool `json:"is_read"`
}

type NewAnnouncement struct {
	Title          string      `json:"title" validate:"required,max=200"`
	Content        string      `json:"content" validate:"required"`
	Type           string      `json:"type" validate:"omitempty,announcementtype"`
	Priority       string      `json:"priority" validate:"omitempty,oneof=low medium high"`
	TargetAudience string      `json:"target_audience" validate:"omitempty,audience"`
	TargetClass    string      `json:"target_class" validate:"required_if=TargetAudience specific_class"`
	IsPinned       bool        `json:"is_pinned"`
	Attachments    []core.File `json:"attachments" validate:"omitempty,dive"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Content = core.CleanString(na.Content)
	na.Type = core.CleanString(na.Type, true /* lower */)
	na.Priority = core.CleanString(na.Priority, true /* lower */)
	na.TargetAudience = core.CleanString(na.TargetAudience, true /* lower */)
	na.TargetClass = core.CleanString(na.TargetClass)
	return validate.Struct(na)
}

// UpdateAnnouncement defines what information may be provided to modify an Announcement.
// Blank fields keep their current value.
type UpdateAnnouncement struct {
	Title          string      `json:"title" validate:"max=200"`
	Content        string      `json:"content"`
	Type           string      `json:"type" validate:"omitempty,announcementtype"`
	Priority       string      `json:"priority" validate:"omitempty,oneof=low medium high"`
	TargetAudience string      `json:"target_audience" validate:"omitempty,audience"`
	TargetClass    string      `json:"target_class" validate:"required_if=TargetAudience specific_class"`
	IsPinned       *bool       `json:"is_pinned"`
	IsActive       *bool       `json:"is_active"`
	Attachments    []core.File `json:"attachments" validate:"omitempty,dive"`
}

func (ua *UpdateAnnouncement) Validate(orig Announcement, validate *validator.Validate) error {
	keep := func(val, orig string, lower bool) string {
		if val = core.CleanString(val, lower); val != "" {
			return val
		}
		return orig
	}
	ua.Title = keep(ua.Title, orig.Title, false)
	ua.Content = keep(ua.Content, orig.Content, false)
	ua.Type = keep(ua.Type, orig.Type, true)
	ua.Priority = keep(ua.Priority, orig.Priority, true)
	ua.TargetAudience = keep(ua.TargetAudience, orig.TargetAudience, true)
	ua.TargetClass = keep(ua.TargetClass, orig.TargetClass, false)
	if ua.IsPinned == nil {
		ua.IsPinned = &orig.IsPinned
	}
	if ua.IsActive == nil {
		ua.IsActive = &orig.IsActive
	}
	if ua.Attachments == nil {
		ua.Attachments = orig.Attachments
	}
	return validate.Struct(ua)
}

type QueryFilter struct {
	Search string `query:"search"`
	Type   string `query:"type"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Type = core.CleanString(qf.Type, true /* lower */)
	if qf.Type == "all" {
		qf.Type = ""
	}
}

// Match reports whether a is active and satisfies the filter. Search is a case-insensitive match on one of
// Announcement.Title or Announcement.Content.
func (qf QueryFilter) Match(a Announcement) bool {
	if !a.IsActive {
		return false
	}
	if qf.Type != "" && a.Type != qf.Type {
		return false
	}
	if qf.Search != "" {
		return core.ContainsFold(a.Title, qf.Search) || core.ContainsFold(a.Content, qf.Search)
	}
	return true
}
