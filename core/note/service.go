package note

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("note")
	ErrTeachersOnly = core.NewForbiddenError("only teachers can share notes")
	ErrNotOwner     = core.NewForbiddenError("not the teacher of this note")
)

type (
	Repository interface {
		CreateNote(ctx context.Context, n Note) (Note, error)
		GetNote(ctx context.Context, id string) (Note, error)
		// QueryNotes returns one page of the notes matching filter (see QueryFilter.Match), newest first,
		// and the total count of matches.
		QueryNotes(ctx context.Context, filter QueryFilter, page core.Page) ([]Note, int, error)
		// IncrementDownloads adds one to the download count of the note and returns it.
		IncrementDownloads(ctx context.Context, id string) (Note, error)
		UpdateNote(ctx context.Context, n Note) (Note, error)
		DeleteNote(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, caller user.User, data NewNote) (Note, error)
		Get(ctx context.Context, id string) (Note, error)
		Download(ctx context.Context, id string) (Note, error)
		List(ctx context.Context, filter QueryFilter, page core.Page) ([]Note, int, error)
		Update(ctx context.Context, id string, caller user.User, data UpdateNote) (Note, error)
		Delete(ctx context.Context, id string, caller user.User) error
	}

	service struct {
		repo  Repository
		users user.Directory
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, users user.Directory) Service {
	return &service{repo: repo, users: users}
}

func CanCreate(caller user.User) bool {
	return caller.IsTeacher()
}

func CanManage(caller user.User, n Note) bool {
	return caller.ID != "" && caller.ID == n.Teacher.ID
}

func (svc *service) Create(ctx context.Context, caller user.User, data NewNote) (Note, error) {
	if !CanCreate(caller) {
		return Note{}, ErrTeachersOnly
	}

	now := core.Now()
	n, err := svc.repo.CreateNote(ctx, data.Fill(Note{
		Teacher:   caller.Ref(),
		IsPublic:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}))
	if err != nil {
		return Note{}, errors.Wrap(err, "creating note")
	}
	n.Teacher = caller.Ref()
	return n, nil
}

func (svc *service) Get(ctx context.Context, id string) (Note, error) {
	n, err := svc.repo.GetNote(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if err = svc.populate(ctx, &n); err != nil {
		return Note{}, err
	}
	return n, nil
}

// Download returns the note after counting one more download of it.
func (svc *service) Download(ctx context.Context, id string) (Note, error) {
	n, err := svc.repo.IncrementDownloads(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if err = svc.populate(ctx, &n); err != nil {
		return Note{}, err
	}
	return n, nil
}

func (svc *service) List(ctx context.Context, filter QueryFilter, page core.Page) ([]Note, int, error) {
	filter.Clean()
	page.Clean()
	notes, total, err := svc.repo.QueryNotes(ctx, filter, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying notes")
	}
	ps := make([]*Note, len(notes))
	for i := range notes {
		ps[i] = &notes[i]
	}
	if err = svc.populate(ctx, ps...); err != nil {
		return nil, 0, err
	}
	return notes, total, nil
}

func (svc *service) Update(ctx context.Context, id string, caller user.User, data UpdateNote) (Note, error) {
	n, err := svc.repo.GetNote(ctx, id)
	if err != nil {
		return Note{}, err
	}
	if !CanManage(caller, n) {
		return Note{}, ErrNotOwner
	}

	n = data.Fill(n)
	n.UpdatedAt = core.Now()
	if n, err = svc.repo.UpdateNote(ctx, n); err != nil {
		return Note{}, errors.Wrap(err, "updating note")
	}
	if err = svc.populate(ctx, &n); err != nil {
		return Note{}, err
	}
	return n, nil
}

func (svc *service) Delete(ctx context.Context, id string, caller user.User) error {
	n, err := svc.repo.GetNote(ctx, id)
	if err != nil {
		return err
	}
	if !CanManage(caller, n) {
		return ErrNotOwner
	}
	if err = svc.repo.DeleteNote(ctx, n.ID); err != nil {
		return errors.Wrap(err, "deleting note")
	}
	return nil
}

func (svc *service) populate(ctx context.Context, notes ...*Note) error {
	refs := make([]*user.Ref, len(notes))
	ids := make([]string, len(notes))
	for i, n := range notes {
		refs[i] = &n.Teacher
		ids[i] = n.Teacher.ID
	}
	users, err := svc.users.LookupUsers(ctx, ids...)
	if err != nil {
		return errors.Wrap(err, "looking up users")
	}
	user.Populate(users, refs...)
	return nil
}
