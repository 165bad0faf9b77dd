package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/user"
)

const (
	assignmentColumns = `id, title, description, subject, teacher_id, class, due_date, max_marks, instructions,
	attachments, is_active, created_at, updated_at`
	submissionColumns = `id, assignment_id, student_id, file_name, file_url, submitted_at, score, feedback, is_graded`

	submissionUniqueKey = "submissions_assignment_student_key"
)

// AssignmentOrderingFields maps the accepted orderings to their columns.
var AssignmentOrderingFields = map[string]string{
	"due_date":   "due_date",
	"created_at": "created_at",
}

type assignmentRow struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	Subject      string    `db:"subject"`
	TeacherID    string    `db:"teacher_id"`
	Class        string    `db:"class"`
	DueDate      time.Time `db:"due_date"`
	MaxMarks     int       `db:"max_marks"`
	Instructions string    `db:"instructions"`
	Attachments  files     `db:"attachments"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func newAssignmentRow(a assignment.Assignment) assignmentRow {
	return assignmentRow{
		ID:           a.ID,
		Title:        a.Title,
		Description:  a.Description,
		Subject:      a.Subject,
		TeacherID:    a.Teacher.ID,
		Class:        a.Class,
		DueDate:      a.DueDate,
		MaxMarks:     a.MaxMarks,
		Instructions: a.Instructions,
		Attachments:  files(a.Attachments),
		IsActive:     a.IsActive,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (r assignmentRow) toAssignment() assignment.Assignment {
	return assignment.Assignment{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Subject:      r.Subject,
		Teacher:      user.NewRef(r.TeacherID),
		Class:        r.Class,
		DueDate:      r.DueDate.UTC(),
		MaxMarks:     r.MaxMarks,
		Instructions: r.Instructions,
		Attachments:  []core.File(r.Attachments),
		IsActive:     r.IsActive,
		Submissions:  []assignment.Submission{},
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

type submissionRow struct {
	ID           string       `db:"id"`
	AssignmentID string       `db:"assignment_id"`
	StudentID    string       `db:"student_id"`
	FileName     string       `db:"file_name"`
	FileURL      string       `db:"file_url"`
	SubmittedAt  time.Time    `db:"submitted_at"`
	Score        null.Float64 `db:"score"`
	Feedback     string       `db:"feedback"`
	IsGraded     bool         `db:"is_graded"`
}

func newSubmissionRow(assignmentID string, sub assignment.Submission) submissionRow {
	return submissionRow{
		ID:           sub.ID,
		AssignmentID: assignmentID,
		StudentID:    sub.Student.ID,
		FileName:     sub.File.Name,
		FileURL:      sub.File.URL,
		SubmittedAt:  sub.SubmittedAt,
		Score:        null.Float64FromPtr(sub.Score),
		Feedback:     sub.Feedback,
		IsGraded:     sub.IsGraded,
	}
}

func (r submissionRow) toSubmission() assignment.Submission {
	return assignment.Submission{
		ID:          r.ID,
		Student:     user.NewRef(r.StudentID),
		File:        core.File{Name: r.FileName, URL: r.FileURL},
		SubmittedAt: r.SubmittedAt.UTC(),
		Score:       r.Score.Ptr(),
		Feedback:    r.Feedback,
		IsGraded:    r.IsGraded,
	}
}

type assignmentRepository struct {
	db *sqlx.DB
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *sqlx.DB) assignment.Repository {
	return &assignmentRepository{db: db}
}

// withSubmissions loads the submissions of rows, in submission order.
func (repo *assignmentRepository) withSubmissions(ctx context.Context, rows []assignmentRow) ([]assignment.Assignment, error) {
	assignments := make([]assignment.Assignment, len(rows))
	if len(rows) == 0 {
		return assignments, nil
	}
	ids := make([]string, len(rows))
	idx := make(map[string]int, len(rows))
	for i, r := range rows {
		assignments[i] = r.toAssignment()
		ids[i] = r.ID
		idx[r.ID] = i
	}

	var subRows []submissionRow
	err := repo.db.SelectContext(
		ctx, &subRows,
		"SELECT "+submissionColumns+" FROM submissions WHERE assignment_id = ANY($1) ORDER BY submitted_at",
		pq.Array(ids),
	)
	if err != nil {
		return nil, errors.Wrap(err, "selecting submissions")
	}
	for _, r := range subRows {
		i := idx[r.AssignmentID]
		assignments[i].Submissions = append(assignments[i].Submissions, r.toSubmission())
	}
	return assignments, nil
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	a.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO assignments (`+assignmentColumns+`)
		VALUES (:id, :title, :description, :subject, :teacher_id, :class, :due_date, :max_marks, :instructions,
			:attachments, :is_active, :created_at, :updated_at)`,
		newAssignmentRow(a),
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "inserting assignment")
	}
	if a.Submissions == nil {
		a.Submissions = []assignment.Submission{}
	}
	return a, nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	if !validID(id) {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	var row assignmentRow
	stmt := "SELECT " + assignmentColumns + " FROM assignments WHERE id = $1 AND is_active"
	if err := repo.db.GetContext(ctx, &row, stmt, id); err != nil {
		return assignment.Assignment{}, notFound(err, assignment.ErrNotFound)
	}
	assignments, err := repo.withSubmissions(ctx, []assignmentRow{row})
	if err != nil {
		return assignment.Assignment{}, err
	}
	return assignments[0], nil
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter, ordering []core.DBOrdering) ([]assignment.Assignment, error) {
	var q query
	q.where("is_active")
	if filter.TeacherID != "" {
		q.where("teacher_id = ?", filter.TeacherID)
	}
	if filter.Class != "" {
		q.where("class = ?", filter.Class)
	}
	if filter.Subject != "" {
		q.where("subject = ?", filter.Subject)
	}
	ordering = core.CleanOrderings(ordering, AssignmentOrderingFields)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}

	var rows []assignmentRow
	stmt := repo.db.Rebind("SELECT " + assignmentColumns + " FROM assignments" + q.clause() + orderBy(ordering))
	if err := repo.db.SelectContext(ctx, &rows, stmt, q.args...); err != nil {
		return nil, errors.Wrap(err, "selecting assignments")
	}
	return repo.withSubmissions(ctx, rows)
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE assignments SET title = :title, description = :description, subject = :subject, class = :class,
			due_date = :due_date, max_marks = :max_marks, instructions = :instructions, attachments = :attachments,
			is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`,
		newAssignmentRow(a),
	)
	if err != nil {
		return assignment.Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	if !a.IsActive {
		return a, nil
	}
	return repo.GetAssignment(ctx, a.ID)
}

func (repo *assignmentRepository) AddSubmission(ctx context.Context, assignmentID string, sub assignment.Submission) (assignment.Submission, error) {
	sub.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO submissions (`+submissionColumns+`)
		VALUES (:id, :assignment_id, :student_id, :file_name, :file_url, :submitted_at, :score, :feedback, :is_graded)`,
		newSubmissionRow(assignmentID, sub),
	)
	if isUniqueViolation(err, submissionUniqueKey) {
		return assignment.Submission{}, assignment.ErrAlreadySubmitted
	}
	if err != nil {
		return assignment.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return sub, nil
}

func (repo *assignmentRepository) GradeSubmission(ctx context.Context, assignmentID string, sub assignment.Submission) (assignment.Submission, error) {
	var row submissionRow
	stmt := `
		UPDATE submissions SET score = $1, feedback = $2, is_graded = $3
		WHERE id = $4 AND assignment_id = $5
		RETURNING ` + submissionColumns
	err := repo.db.GetContext(ctx, &row, stmt, null.Float64FromPtr(sub.Score), sub.Feedback, sub.IsGraded, sub.ID, assignmentID)
	if err != nil {
		return assignment.Submission{}, notFound(err, assignment.ErrSubmissionNotFound)
	}
	return row.toSubmission(), nil
}
