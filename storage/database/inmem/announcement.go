package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/announcement"
)

type announcementRepository struct {
	db *announcementTable
}

var _ announcement.Repository = (*announcementRepository)(nil)

func NewAnnouncementRepository(db *DB) announcement.Repository {
	return &announcementRepository{db: db.announcement}
}

func copyAnnouncement(a announcement.Announcement) announcement.Announcement {
	a.Author = ref(a.Author)
	a.Attachments = copyFiles(a.Attachments)
	reads := make([]announcement.Read, len(a.ReadBy))
	for i, r := range a.ReadBy {
		r.User = ref(r.User)
		reads[i] = r
	}
	a.ReadBy = reads
	return a
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = newID()
	a = copyAnnouncement(a)
	repo.db.table[a.ID] = &a
	return copyAnnouncement(a), nil
}

func (repo *announcementRepository) GetAnnouncement(ctx context.Context, id string) (announcement.Announcement, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok {
		return copyAnnouncement(*a), nil
	}
	return announcement.Announcement{}, announcement.ErrNotFound
}

func (repo *announcementRepository) QueryAnnouncements(ctx context.Context, filter announcement.QueryFilter, page core.Page) ([]announcement.Announcement, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	announcements := make([]announcement.Announcement, 0)
	for _, a := range repo.db.table {
		if filter.Match(*a) {
			announcements = append(announcements, copyAnnouncement(*a))
		}
	}
	sort.SliceStable(announcements, func(i, j int) bool {
		x, y := announcements[i], announcements[j]
		if x.IsPinned != y.IsPinned {
			return x.IsPinned
		}
		return x.CreatedAt.After(y.CreatedAt)
	})

	start, end := page.Bounds(len(announcements))
	return announcements[start:end], len(announcements), nil
}

func (repo *announcementRepository) UpdateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[a.ID]
	if !ok {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	updated := copyAnnouncement(a)
	updated.Author = orig.Author
	updated.ReadBy = orig.ReadBy
	updated.CreatedAt = orig.CreatedAt
	repo.db.table[a.ID] = &updated
	return copyAnnouncement(updated), nil
}

func (repo *announcementRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return announcement.ErrNotFound
	}
	delete(repo.db.table, id)
	return nil
}

func (repo *announcementRepository) MarkRead(ctx context.Context, id string, read announcement.Read) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	a, ok := repo.db.table[id]
	if !ok {
		return announcement.ErrNotFound
	}
	if a.IsReadBy(read.User.ID) {
		return nil
	}
	read.User = ref(read.User)
	a.ReadBy = append(a.ReadBy, read)
	return nil
}
