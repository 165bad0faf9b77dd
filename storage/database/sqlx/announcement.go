package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/announcement"
	"github.com/trezcool/shule/core/user"
)

const announcementColumns = `id, title, content, type, priority, author_id, target_audience, target_class, is_pinned,
	is_active, attachments, created_at, updated_at`

type announcementRow struct {
	ID             string    `db:"id"`
	Title          string    `db:"title"`
	Content        string    `db:"content"`
	Type           string    `db:"type"`
	Priority       string    `db:"priority"`
	AuthorID       string    `db:"author_id"`
	TargetAudience string    `db:"target_audience"`
	TargetClass    string    `db:"target_class"`
	IsPinned       bool      `db:"is_pinned"`
	IsActive       bool      `db:"is_active"`
	Attachments    files     `db:"attachments"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func newAnnouncementRow(a announcement.Announcement) announcementRow {
	return announcementRow{
		ID:             a.ID,
		Title:          a.Title,
		Content:        a.Content,
		Type:           a.Type,
		Priority:       a.Priority,
		AuthorID:       a.Author.ID,
		TargetAudience: a.TargetAudience,
		TargetClass:    a.TargetClass,
		IsPinned:       a.IsPinned,
		IsActive:       a.IsActive,
		Attachments:    files(a.Attachments),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (r announcementRow) toAnnouncement() announcement.Announcement {
	return announcement.Announcement{
		ID:             r.ID,
		Title:          r.Title,
		Content:        r.Content,
		Type:           r.Type,
		Priority:       r.Priority,
		Author:         user.NewRef(r.AuthorID),
		TargetAudience: r.TargetAudience,
		TargetClass:    r.TargetClass,
		IsPinned:       r.IsPinned,
		IsActive:       r.IsActive,
		Attachments:    []core.File(r.Attachments),
		ReadBy:         []announcement.Read{},
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

type readRow struct {
	AnnouncementID string    `db:"announcement_id"`
	UserID         string    `db:"user_id"`
	ReadAt         time.Time `db:"read_at"`
}

type announcementRepository struct {
	db *sqlx.DB
}

var _ announcement.Repository = (*announcementRepository)(nil)

func NewAnnouncementRepository(db *sqlx.DB) announcement.Repository {
	return &announcementRepository{db: db}
}

// withReads loads the read sets of rows, in reading order.
func (repo *announcementRepository) withReads(ctx context.Context, rows []announcementRow) ([]announcement.Announcement, error) {
	announcements := make([]announcement.Announcement, len(rows))
	if len(rows) == 0 {
		return announcements, nil
	}
	ids := make([]string, len(rows))
	idx := make(map[string]int, len(rows))
	for i, r := range rows {
		announcements[i] = r.toAnnouncement()
		ids[i] = r.ID
		idx[r.ID] = i
	}

	var reads []readRow
	err := repo.db.SelectContext(
		ctx, &reads,
		"SELECT announcement_id, user_id, read_at FROM announcement_reads WHERE announcement_id = ANY($1) ORDER BY read_at",
		pq.Array(ids),
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting announcement reads")
	}
	for _, r := range reads {
		i := idx[r.AnnouncementID]
		announcements[i].ReadBy = append(announcements[i].ReadBy, announcement.Read{
			User:   user.NewRef(r.UserID),
			ReadAt: r.ReadAt.UTC(),
		})
	}
	return announcements, nil
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	a.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO announcements (`+announcementColumns+`)
		VALUES (:id, :title, :content, :type, :priority, :author_id, :target_audience, :target_class, :is_pinned,
			:is_active, :attachments, :created_at, :updated_at)`,
		newAnnouncementRow(a),
	)
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	if a.ReadBy == nil {
		a.ReadBy = []announcement.Read{}
	}
	return a, nil
}

func (repo *announcementRepository) GetAnnouncement(ctx context.Context, id string) (announcement.Announcement, error) {
	if !validID(id) {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	var row announcementRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+announcementColumns+" FROM announcements WHERE id = $1", id); err != nil {
		return announcement.Announcement{}, notFound(err, announcement.ErrNotFound)
	}
	announcements, err := repo.withReads(ctx, []announcementRow{row})
	if err != nil {
		return announcement.Announcement{}, err
	}
	return announcements[0], nil
}

func (repo *announcementRepository) QueryAnnouncements(ctx context.Context, filter announcement.QueryFilter, page core.Page) ([]announcement.Announcement, int, error) {
	var q query
	q.where("is_active")
	if filter.Type != "" {
		q.where("type = ?", filter.Type)
	}
	if filter.Search != "" {
		q.search(filter.Search, "title", "content")
	}

	total, err := count(ctx, repo.db, "announcements", q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting announcements")
	}

	var rows []announcementRow
	stmt := repo.db.Rebind(
		"SELECT " + announcementColumns + " FROM announcements" + q.clause() + orderBy(announcement.Ordering) + limit(page),
	)
	if err = repo.db.SelectContext(ctx, &rows, stmt, q.args...); err != nil {
		return nil, 0, errors.Wrap(err, "selecting announcements")
	}
	announcements, err := repo.withReads(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return announcements, total, nil
}

func (repo *announcementRepository) UpdateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE announcements SET title = :title, content = :content, type = :type, priority = :priority,
			target_audience = :target_audience, target_class = :target_class, is_pinned = :is_pinned,
			is_active = :is_active, attachments = :attachments, updated_at = :updated_at
		WHERE id = :id`,
		newAnnouncementRow(a),
	)
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "updating announcement")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	return repo.GetAnnouncement(ctx, a.ID)
}

func (repo *announcementRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	if !validID(id) {
		return announcement.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM announcements WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return announcement.ErrNotFound
	}
	return nil
}

func (repo *announcementRepository) MarkRead(ctx context.Context, id string, read announcement.Read) error {
	if !validID(id) {
		return announcement.ErrNotFound
	}
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO announcement_reads (announcement_id, user_id, read_at)
		SELECT id, $2, $3 FROM announcements WHERE id = $1
		ON CONFLICT (announcement_id, user_id) DO NOTHING`,
		id, read.User.ID, read.ReadAt,
	)
	return errors.Wrap(err, "inserting announcement read")
}
