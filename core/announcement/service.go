package announcement

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotFound   = core.NewNotFoundError("announcement")
	ErrCannotPost = core.NewForbiddenError("only teachers and admins can post announcements")
	ErrNotAuthor  = core.NewForbiddenError("not the author of this announcement")
)

// Ordering is the order announcements are listed in: pinned first, newest first.
var Ordering = []core.DBOrdering{{Field: "is_pinned"}, {Field: "created_at"}}

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		GetAnnouncement(ctx context.Context, id string) (Announcement, error)
		// QueryAnnouncements returns one page of the announcements matching filter (see QueryFilter.Match) in
		// Ordering, read sets included, and the total count of matches.
		QueryAnnouncements(ctx context.Context, filter QueryFilter, page core.Page) ([]Announcement, int, error)
		UpdateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		DeleteAnnouncement(ctx context.Context, id string) error
		// MarkRead adds read to the read set of the announcement unless its user is already there.
		MarkRead(ctx context.Context, id string, read Read) error
	}

	Service interface {
		Create(ctx context.Context, caller user.User, data NewAnnouncement) (Announcement, error)
		Get(ctx context.Context, id string) (Announcement, error)
		List(ctx context.Context, filter QueryFilter, page core.Page) ([]Announcement, int, error)
		Feed(ctx context.Context, caller user.User) ([]FeedItem, error)
		MarkRead(ctx context.Context, id string, caller user.User) error
		MarkAllRead(ctx context.Context, caller user.User) (int, error)
		Update(ctx context.Context, id string, caller user.User, data UpdateAnnouncement) (Announcement, error)
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

func (svc *service) Create(ctx context.Context, caller user.User, data NewAnnouncement) (Announcement, error) {
	if !CanCreate(caller) {
		return Announcement{}, ErrCannotPost
	}

	orDefault := func(val, def string) string {
		if val == "" {
			return def
		}
		return val
	}
	now := core.Now()
	a, err := svc.repo.CreateAnnouncement(ctx, Announcement{
		Title:          data.Title,
		Content:        data.Content,
		Type:           orDefault(data.Type, TypeGeneral),
		Priority:       orDefault(data.Priority, PriorityMedium),
		Author:         caller.Ref(),
		TargetAudience: orDefault(data.TargetAudience, AudienceAll),
		TargetClass:    data.TargetClass,
		IsPinned:       data.IsPinned,
		IsActive:       true,
		Attachments:    data.Attachments,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Announcement{}, errors.Wrap(err, "creating announcement")
	}
	a.Author = caller.Ref()
	return a, nil
}

func (svc *service) Get(ctx context.Context, id string) (Announcement, error) {
	a, err := svc.repo.GetAnnouncement(ctx, id)
	if err != nil {
		return Announcement{}, err
	}
	if err = svc.populate(ctx, &a); err != nil {
		return Announcement{}, err
	}
	return a, nil
}

func (svc *service) List(ctx context.Context, filter QueryFilter, page core.Page) ([]Announcement, int, error) {
	filter.Clean()
	page.Clean()
	announcements, total, err := svc.repo.QueryAnnouncements(ctx, filter, page)
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying announcements")
	}
	if err = svc.populate(ctx, ptrs(announcements)...); err != nil {
		return nil, 0, err
	}
	return announcements, total, nil
}

// Feed returns the active announcements visible to caller, each flagged as read or not by caller.
func (svc *service) Feed(ctx context.Context, caller user.User) ([]FeedItem, error) {
	announcements, _, err := svc.repo.QueryAnnouncements(ctx, QueryFilter{}, core.Unpaged())
	if err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}

	visible := make([]Announcement, 0, len(announcements))
	for _, a := range announcements {
		if VisibleTo(caller, a) {
			visible = append(visible, a)
		}
	}
	if err = svc.populate(ctx, ptrs(visible)...); err != nil {
		return nil, err
	}

	feed := make([]FeedItem, len(visible))
	for i, a := range visible {
		feed[i] = FeedItem{Announcement: a, IsRead: a.IsReadBy(caller.ID)}
	}
	return feed, nil
}

// MarkRead adds caller to the read set of the announcement; it is a no-op if caller is already there.
func (svc *service) MarkRead(ctx context.Context, id string, caller user.User) error {
	a, err := svc.repo.GetAnnouncement(ctx, id)
	if err != nil {
		return err
	}
	return svc.markRead(ctx, a, caller)
}

func (svc *service) markRead(ctx context.Context, a Announcement, caller user.User) error {
	if a.IsReadBy(caller.ID) {
		return nil
	}
	if err := svc.repo.MarkRead(ctx, a.ID, Read{User: caller.Ref(), ReadAt: core.Now()}); err != nil {
		return errors.Wrap(err, "marking announcement as read")
	}
	return nil
}

// MarkAllRead marks every active announcement as read by caller and returns how many were newly marked.
// It is not atomic: on failure, the announcements marked so far stay marked.
func (svc *service) MarkAllRead(ctx context.Context, caller user.User) (int, error) {
	announcements, _, err := svc.repo.QueryAnnouncements(ctx, QueryFilter{}, core.Unpaged())
	if err != nil {
		return 0, errors.Wrap(err, "querying announcements")
	}

	var marked int
	for _, a := range announcements {
		if a.IsReadBy(caller.ID) {
			continue
		}
		if err = svc.markRead(ctx, a, caller); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

func (svc *service) Update(ctx context.Context, id string, caller user.User, data UpdateAnnouncement) (Announcement, error) {
	a, err := svc.repo.GetAnnouncement(ctx, id)
	if err != nil {
		return Announcement{}, err
	}
	if !CanManage(caller, a) {
		return Announcement{}, ErrNotAuthor
	}

	a.Title = data.Title
	a.Content = data.Content
	a.Type = data.Type
	a.Priority = data.Priority
	a.TargetAudience = data.TargetAudience
	a.TargetClass = data.TargetClass
	if data.IsPinned != nil {
		a.IsPinned = *data.IsPinned
	}
	if data.IsActive != nil {
		a.IsActive = *data.IsActive
	}
	a.Attachments = data.Attachments
	a.UpdatedAt = core.Now()
	if a, err = svc.repo.UpdateAnnouncement(ctx, a); err != nil {
		return Announcement{}, errors.Wrap(err, "updating announcement")
	}
	if err = svc.populate(ctx, &a); err != nil {
		return Announcement{}, err
	}
	return a, nil
}

func (svc *service) Delete(ctx context.Context, id string, caller user.User) error {
	a, err := svc.repo.GetAnnouncement(ctx, id)
	if err != nil {
		return err
	}
	if !CanManage(caller, a) {
		return ErrNotAuthor
	}
	if err = svc.repo.DeleteAnnouncement(ctx, a.ID); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return nil
}

func (svc *service) populate(ctx context.Context, announcements ...*Announcement) error {
	var refs []*user.Ref
	for _, a := range announcements {
		refs = append(refs, &a.Author)
		for i := range a.ReadBy {
			refs = append(refs, &a.ReadBy[i].User)
		}
	}
	ids := make([]string, len(refs))
	for i, ref := range refs {
		ids[i] = ref.ID
	}
	users, err := svc.users.LookupUsers(ctx, ids...)
	if err != nil {
		return errors.Wrap(err, "looking up users")
	}
	user.Populate(users, refs...)
	return nil
}

func ptrs(announcements []Announcement) []*Announcement {
	ps := make([]*Announcement, len(announcements))
	for i := range announcements {
		ps[i] = &announcements[i]
	}
	return ps
}
