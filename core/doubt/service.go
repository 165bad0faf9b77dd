package doubt

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("doubt")
	ErrStudentsOnly  = core.NewForbiddenError("only students can ask doubts")
	ErrCannotRespond = core.NewForbiddenError("not allowed to respond to this doubt")
	ErrCannotResolve = core.NewForbiddenError("only the student who asked or a teacher can resolve this doubt")
)

type (
	Repository interface {
		CreateDoubt(ctx context.Context, d Doubt) (Doubt, error)
		GetDoubt(ctx context.Context, id string) (Doubt, error)
		// QueryDoubts returns one page of the doubts matching filter (see QueryFilter.Match), newest first,
		// and the total count of matches.
		QueryDoubts(ctx context.Context, filter QueryFilter, page core.Page) ([]Doubt, int, error)
		// AddResponse appends resp to the responses of the doubt with the given id and moves its current status
		// through StatusAfterResponse, atomically. resp.CreatedAt becomes the doubt's update time.
		AddResponse(ctx context.Context, id string, resp Response) (Doubt, error)
		// ResolveDoubt saves d's status & resolution.
		ResolveDoubt(ctx context.Context, d Doubt) (Doubt, error)
	}

	// Notifier is told about the doubts a teacher has answered.
	Notifier interface {
		DoubtAnswered(ctx context.Context, student user.User, d Doubt, resp Response)
	}

	Service interface {
		Create(ctx context.Context, caller user.User, data NewDoubt) (Doubt, error)
		Get(ctx context.Context, id string) (Doubt, error)
		List(ctx context.Context, filter QueryFilter, page core.Page) ([]Doubt, int, error)
		ListForStudent(ctx context.Context, caller user.User) ([]Doubt, error)
		Respond(ctx context.Context, id string, author user.User, data NewResponse) (Doubt, error)
		Resolve(ctx context.Context, id string, caller user.User) (Doubt, error)
	}

	service struct {
		repo     Repository
		users    user.Directory
		notifier Notifier
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, users user.Directory, notifier Notifier) Service {
	return &service{repo: repo, users: users, notifier: notifier}
}

func (svc *service) Create(ctx context.Context, caller user.User, data NewDoubt) (Doubt, error) {
	if !CanCreate(caller) {
		return Doubt{}, ErrStudentsOnly
	}

	class := data.Class
	if class == "" {
		class = caller.Class
	}
	priority := data.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	now := core.Now()
	d, err := svc.repo.CreateDoubt(ctx, Doubt{
		Title:       data.Title,
		Description: data.Description,
		Subject:     data.Subject,
		Student:     caller.Ref(),
		Class:       class,
		Status:      StatusOpen,
		Priority:    priority,
		Tags:        data.Tags,
		Attachments: data.Attachments,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Doubt{}, errors.Wrap(err, "creating doubt")
	}
	d.Student = caller.Ref()
	return d, nil
}

func (svc *service) Get(ctx context.Context, id string) (Doubt, error) {
	d, err := svc.repo.GetDoubt(ctx, id)
	if err != nil {
		return Doubt{}, err
	}
	if _, err = svc.populate(ctx, &d); err != nil {
		return Doubt{}, err
	}
	return d, nil
}

func (svc *service) List(ctx context.Context, filter QueryFilter, page core.Page) ([]Doubt, int, error) {
	filter.Clean()
	page.Clean()
	doubts, total, err := svc.repo.QueryDoubts(ctx, filter, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying doubts")
	}
	if _, err = svc.populate(ctx, ptrs(doubts)...); err != nil {
		return nil, 0, err
	}
	return doubts, total, nil
}

func (svc *service) ListForStudent(ctx context.Context, caller user.User) ([]Doubt, error) {
	doubts, _, err := svc.repo.QueryDoubts(ctx, QueryFilter{StudentID: caller.ID}, core.Unpaged())
	if err != nil {
		return nil, errors.Wrap(err, "querying student doubts")
	}
	if _, err = svc.populate(ctx, ptrs(doubts)...); err != nil {
		return nil, err
	}
	return doubts, nil
}

func (svc *service) Respond(ctx context.Context, id string, author user.User, data NewResponse) (Doubt, error) {
	d, err := svc.repo.GetDoubt(ctx, id)
	if err != nil {
		return Doubt{}, err
	}
	if !CanRespond(author, d) {
		return Doubt{}, ErrCannotRespond
	}

	now := core.Now()
	resp := Response{
		Author:            author.Ref(),
		Content:           data.Content,
		IsTeacherResponse: author.IsTeacher(),
		Attachments:       data.Attachments,
		CreatedAt:         now,
	}
	if d, err = svc.repo.AddResponse(ctx, d.ID, resp); err != nil {
		return Doubt{}, errors.Wrap(err, "adding response")
	}

	users, err := svc.populate(ctx, &d)
	if err != nil {
		return Doubt{}, err
	}
	if resp.IsTeacherResponse && svc.notifier != nil {
		if student, ok := users[d.Student.ID]; ok {
			svc.notifier.DoubtAnswered(ctx, student, d, resp)
		}
	}
	return d, nil
}

func (svc *service) Resolve(ctx context.Context, id string, caller user.User) (Doubt, error) {
	d, err := svc.repo.GetDoubt(ctx, id)
	if err != nil {
		return Doubt{}, err
	}
	if !CanResolve(caller, d) {
		return Doubt{}, ErrCannotResolve
	}

	now := core.Now()
	resolver := caller.Ref()
	d.Status = StatusResolved
	d.ResolvedBy = &resolver
	d.ResolvedAt = &now
	d.UpdatedAt = now
	if d, err = svc.repo.ResolveDoubt(ctx, d); err != nil {
		return Doubt{}, errors.Wrap(err, "resolving doubt")
	}
	if _, err = svc.populate(ctx, &d); err != nil {
		return Doubt{}, err
	}
	return d, nil
}

// populate replaces the user references of doubts with their display fields.
func (svc *service) populate(ctx context.Context, doubts ...*Doubt) (map[string]user.User, error) {
	var refs []*user.Ref
	for _, d := range doubts {
		refs = append(refs, d.refs()...)
	}
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref != nil {
			ids = append(ids, ref.ID)
		}
	}
	users, err := svc.users.LookupUsers(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "looking up users")
	}
	user.Populate(users, refs...)
	return users, nil
}

func ptrs(doubts []Doubt) []*Doubt {
	ps := make([]*Doubt, len(doubts))
	for i := range doubts {
		ps[i] = &doubts[i]
	}
	return ps
}
