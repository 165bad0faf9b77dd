package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/doubt"
	"github.com/trezcool/shule/core/user"
)

const (
	doubtColumns = `id, title, description, subject, student_id, class, status, priority, tags, attachments,
	resolved_by, resolved_at, created_at, updated_at`
	responseColumns = `id, doubt_id, author_id, content, is_teacher_response, attachments, created_at`
)

type doubtRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	Subject     string         `db:"subject"`
	StudentID   string         `db:"student_id"`
	Class       string         `db:"class"`
	Status      string         `db:"status"`
	Priority    string         `db:"priority"`
	Tags        pq.StringArray `db:"tags"`
	Attachments files          `db:"attachments"`
	ResolvedBy  null.String    `db:"resolved_by"`
	ResolvedAt  null.Time      `db:"resolved_at"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

func newDoubtRow(d doubt.Doubt) doubtRow {
	tags := pq.StringArray(d.Tags)
	if tags == nil {
		tags = pq.StringArray{}
	}
	row := doubtRow{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Subject:     d.Subject,
		StudentID:   d.Student.ID,
		Class:       d.Class,
		Status:      d.Status,
		Priority:    d.Priority,
		Tags:        tags,
		Attachments: files(d.Attachments),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.ResolvedBy != nil {
		row.ResolvedBy = null.StringFrom(d.ResolvedBy.ID)
	}
	row.ResolvedAt = null.TimeFromPtr(d.ResolvedAt)
	return row
}

func (r doubtRow) toDoubt() doubt.Doubt {
	d := doubt.Doubt{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Subject:     r.Subject,
		Student:     user.NewRef(r.StudentID),
		Class:       r.Class,
		Status:      r.Status,
		Priority:    r.Priority,
		Tags:        []string(r.Tags),
		Attachments: []core.File(r.Attachments),
		Responses:   []doubt.Response{},
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.ResolvedBy.Valid {
		resolver := user.NewRef(r.ResolvedBy.String)
		d.ResolvedBy = &resolver
	}
	if r.ResolvedAt.Valid {
		resolvedAt := r.ResolvedAt.Time.UTC()
		d.ResolvedAt = &resolvedAt
	}
	return d
}

type responseRow struct {
	ID                string    `db:"id"`
	DoubtID           string    `db:"doubt_id"`
	AuthorID          string    `db:"author_id"`
	Content           string    `db:"content"`
	IsTeacherResponse bool      `db:"is_teacher_response"`
	Attachments       files     `db:"attachments"`
	CreatedAt         time.Time `db:"created_at"`
}

func (r responseRow) toResponse() doubt.Response {
	return doubt.Response{
		ID:                r.ID,
		Author:            user.NewRef(r.AuthorID),
		Content:           r.Content,
		IsTeacherResponse: r.IsTeacherResponse,
		Attachments:       []core.File(r.Attachments),
		CreatedAt:         r.CreatedAt.UTC(),
	}
}

type doubtRepository struct {
	db *sqlx.DB
}

var _ doubt.Repository = (*doubtRepository)(nil)

func NewDoubtRepository(db *sqlx.DB) doubt.Repository {
	return &doubtRepository{db: db}
}

// withResponses loads the responses of rows, in posting order.
func (repo *doubtRepository) withResponses(ctx context.Context, rows []doubtRow) ([]doubt.Doubt, error) {
	doubts := make([]doubt.Doubt, len(rows))
	if len(rows) == 0 {
		return doubts, nil
	}
	ids := make([]string, len(rows))
	idx := make(map[string]int, len(rows))
	for i, r := range rows {
		doubts[i] = r.toDoubt()
		ids[i] = r.ID
		idx[r.ID] = i
	}

	var respRows []responseRow
	err := repo.db.SelectContext(
		ctx, &respRows,
		"SELECT "+responseColumns+" FROM doubt_responses WHERE doubt_id = ANY($1) ORDER BY seq",
		pq.Array(ids),
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting responses")
	}
	for _, r := range respRows {
		i := idx[r.DoubtID]
		doubts[i].Responses = append(doubts[i].Responses, r.toResponse())
	}
	return doubts, nil
}

func (repo *doubtRepository) CreateDoubt(ctx context.Context, d doubt.Doubt) (doubt.Doubt, error) {
	d.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO doubts (`+doubtColumns+`)
		VALUES (:id, :title, :description, :subject, :student_id, :class, :status, :priority, :tags, :attachments,
			:resolved_by, :resolved_at, :created_at, :updated_at)`,
		newDoubtRow(d),
	)
	if err != nil {
		return doubt.Doubt{}, errors.Wrap(err, "inserting doubt")
	}
	if d.Responses == nil {
		d.Responses = []doubt.Response{}
	}
	return d, nil
}

func (repo *doubtRepository) GetDoubt(ctx context.Context, id string) (doubt.Doubt, error) {
	if !validID(id) {
		return doubt.Doubt{}, doubt.ErrNotFound
	}
	var row doubtRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+doubtColumns+" FROM doubts WHERE id = $1", id); err != nil {
		return doubt.Doubt{}, notFound(err, doubt.ErrNotFound)
	}
	doubts, err := repo.withResponses(ctx, []doubtRow{row})
	if err != nil {
		return doubt.Doubt{}, err
	}
	return doubts[0], nil
}

func (repo *doubtRepository) QueryDoubts(ctx context.Context, filter doubt.QueryFilter, page core.Page) ([]doubt.Doubt, int, error) {
	var q query
	if filter.StudentID != "" {
		q.where("student_id = ?", filter.StudentID)
	}
	if filter.Status != "" {
		q.where("status = ?", filter.Status)
	}
	if filter.Subject != "" {
		q.where("subject = ?", filter.Subject)
	}
	if filter.Search != "" {
		q.search(filter.Search, "title", "description", "subject")
	}

	total, err := count(ctx, repo.db, "doubts", q)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting doubts")
	}

	var rows []doubtRow
	stmt := repo.db.Rebind("SELECT " + doubtColumns + " FROM doubts" + q.clause() + " ORDER BY created_at DESC" + limit(page))
	if err = repo.db.SelectContext(ctx, &rows, stmt, q.args...); err != nil {
		return nil, 0, errors.Wrap(err, "selecting doubts")
	}
	doubts, err := repo.withResponses(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return doubts, total, nil
}

// AddResponse moves the status in the same statement that reads it (see doubt.StatusAfterResponse).
func (repo *doubtRepository) AddResponse(ctx context.Context, id string, resp doubt.Response) (doubt.Doubt, error) {
	if !validID(id) {
		return doubt.Doubt{}, doubt.ErrNotFound
	}
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE doubts
			SET status = CASE WHEN status = $1 AND $2 THEN $3 ELSE status END, updated_at = $4
			WHERE id = $5`,
			doubt.StatusOpen, resp.IsTeacherResponse, doubt.StatusAnswered, resp.CreatedAt, id,
		)
		if err != nil {
			return errors.Wrap(err, "updating doubt status")
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return doubt.ErrNotFound
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO doubt_responses (`+responseColumns+`)
			VALUES (:id, :doubt_id, :author_id, :content, :is_teacher_response, :attachments, :created_at)`,
			responseRow{
				ID:                newID(),
				DoubtID:           id,
				AuthorID:          resp.Author.ID,
				Content:           resp.Content,
				IsTeacherResponse: resp.IsTeacherResponse,
				Attachments:       files(resp.Attachments),
				CreatedAt:         resp.CreatedAt,
			},
		)
		return errors.Wrap(err, "inserting response")
	})
	if err != nil {
		return doubt.Doubt{}, err
	}
	return repo.GetDoubt(ctx, id)
}

func (repo *doubtRepository) ResolveDoubt(ctx context.Context, d doubt.Doubt) (doubt.Doubt, error) {
	row := newDoubtRow(d)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE doubts SET status = :status, resolved_by = :resolved_by, resolved_at = :resolved_at,
			updated_at = :updated_at
		WHERE id = :id`,
		row,
	)
	if err != nil {
		return doubt.Doubt{}, errors.Wrap(err, "resolving doubt")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return doubt.Doubt{}, doubt.ErrNotFound
	}
	return repo.GetDoubt(ctx, d.ID)
}
