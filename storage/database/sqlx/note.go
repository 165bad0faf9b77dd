package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/note"
	"github.com/trezcool/shule/core/user"
)

const noteColumns = `id, title, description, subject, teacher_id, file_name, file_url, file_size, file_type, class, tags,
	is_public, download_count, created_at, updated_at`

type noteRow struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	Description   string         `db:"description"`
	Subject       string         `db:"subject"`
	TeacherID     string         `db:"teacher_id"`
	FileName      string         `db:"file_name"`
	FileURL       string         `db:"file_url"`
	FileSize      int64          `db:"file_size"`
	FileType      string         `db:"file_type"`
	Class         string         `db:"class"`
	Tags          pq.StringArray `db:"tags"`
	IsPublic      bool           `db:"is_public"`
	DownloadCount int            `db:"download_count"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func newNoteRow(n note.Note) noteRow {
	tags := pq.StringArray(n.Tags)
	if tags == nil {
		tags = pq.StringArray{}
	}
	return noteRow{
		ID:            n.ID,
		Title:         n.Title,
		Description:   n.Description,
		Subject:       n.Subject,
		TeacherID:     n.Teacher.ID,
		FileName:      n.Name,
		FileURL:       n.URL,
		FileSize:      n.FileSize,
		FileType:      n.FileType,
		Class:         n.Class,
		Tags:          tags,
		IsPublic:      n.IsPublic,
		DownloadCount: n.Downloads,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
}

func (r noteRow) toNote() note.Note {
	return note.Note{
		ID:          r.ID,
		Title:       r.Title,
		Subject:     r.Subject,
		Description: r.Description,
		Teacher:     user.NewRef(r.TeacherID),
		File:        core.File{Name: r.FileName, URL: r.FileURL},
		FileSize:    r.FileSize,
		FileType:    r.FileType,
		Class:       r.Class,
		Tags:        []string(r.Tags),
		IsPublic:    r.IsPublic,
		Downloads:   r.DownloadCount,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type noteRepository struct {
	db *sqlx.DB
}

var _ note.Repository = (*noteRepository)(nil)

func NewNoteRepository(db *sqlx.DB) note.Repository {
	return &noteRepository{db: db}
}

func (repo *noteRepository) CreateNote(ctx context.Context, n note.Note) (note.Note, error) {
	n.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO notes (`+noteColumns+`)
		VALUES (:id, :title, :description, :subject, :teacher_id, :file_name, :file_url, :file_size, :file_type,
			:class, :tags, :is_public, :download_count, :created_at, :updated_at)`,
		newNoteRow(n),
	)
	if err != nil {
		return note.Note{}, errors.Wrap(err, "inserting note")
	}
	return n, nil
}

func (repo *noteRepository) GetNote(ctx context.Context, id string) (note.Note, error) {
	if !validID(id) {
		return note.Note{}, note.ErrNotFound
	}
	var row noteRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+noteColumns+" FROM notes WHERE id = $1", id); err != nil {
		return note.Note{}, notFound(err, note.ErrNotFound)
	}
	return row.toNote(), nil
}

func (repo *noteRepository) QueryNotes(ctx context.Context, filter note.QueryFilter, page core.Page) ([]note.Note, int, error) {
	var q query
	q.where("is_public")
	if filter.Subject != "" {
		q.where("subject = ?", filter.Subject)
	}
	if filter.Search != "" {
		q.search(filter.Search, "title", "description", "subject")
	}

	total, err := count(ctx, repo.db, "notes", q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting notes")
	}

	var rows []noteRow
	stmt := repo.db.Rebind("SELECT " + noteColumns + " FROM notes" + q.clause() + " ORDER BY created_at DESC" + limit(page))
	if err = repo.db.SelectContext(ctx, &rows, stmt, q.args...); err != nil {
		return nil, 0, errors.Wrap(err, "selecting notes")
	}
	notes := make([]note.Note, len(rows))
	for i, r := range rows {
		notes[i] = r.toNote()
	}
	return notes, total, nil
}

func (repo *noteRepository) IncrementDownloads(ctx context.Context, id string) (note.Note, error) {
	if !validID(id) {
		return note.Note{}, note.ErrNotFound
	}
	var row noteRow
	stmt := "UPDATE notes SET download_count = download_count + 1 WHERE id = $1 RETURNING " + noteColumns
	if err := repo.db.GetContext(ctx, &row, stmt, id); err != nil {
		return note.Note{}, notFound(err, note.ErrNotFound)
	}
	return row.toNote(), nil
}

func (repo *noteRepository) UpdateNote(ctx context.Context, n note.Note) (note.Note, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE notes SET title = :title, description = :description, subject = :subject, file_name = :file_name,
			file_url = :file_url, file_size = :file_size, file_type = :file_type, class = :class, tags = :tags,
			is_public = :is_public, updated_at = :updated_at
		WHERE id = :id`,
		newNoteRow(n),
	)
	if err != nil {
		return note.Note{}, errors.Wrap(err, "updating note")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return note.Note{}, note.ErrNotFound
	}
	return repo.GetNote(ctx, n.ID)
}

func (repo *noteRepository) DeleteNote(ctx context.Context, id string) error {
	if !validID(id) {
		return note.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM notes WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting note")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return note.ErrNotFound
	}
	return nil
}
