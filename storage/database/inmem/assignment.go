package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
)

type assignmentRepository struct {
	db *assignmentTable
}

var _ assignment.Repository = (*assignmentRepository)(nil)

func NewAssignmentRepository(db *DB) assignment.Repository {
	return &assignmentRepository{db: db.assignment}
}

func copySubmission(sub assignment.Submission) assignment.Submission {
	sub.Student = ref(sub.Student)
	if sub.Score != nil {
		score := *sub.Score
		sub.Score = &score
	}
	return sub
}

func copyAssignment(a assignment.Assignment) assignment.Assignment {
	a.Teacher = ref(a.Teacher)
	a.Attachments = copyFiles(a.Attachments)
	subs := make([]assignment.Submission, len(a.Submissions))
	for i, sub := range a.Submissions {
		subs[i] = copySubmission(sub)
	}
	a.Submissions = subs
	return a
}

func (repo *assignmentRepository) CreateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a.ID = newID()
	a = copyAssignment(a)
	repo.db.table[a.ID] = &a
	return copyAssignment(a), nil
}

func (repo *assignmentRepository) GetAssignment(ctx context.Context, id string) (assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if a, ok := repo.db.table[id]; ok && a.IsActive {
		return copyAssignment(*a), nil
	}
	return assignment.Assignment{}, assignment.ErrNotFound
}

func lessAssignments(a, b assignment.Assignment, ordering []core.DBOrdering) bool {
	for _, ord := range ordering {
		x, y := a.CreatedAt, b.CreatedAt
		if ord.Field == "due_date" {
			x, y = a.DueDate, b.DueDate
		}
		if !x.Equal(y) {
			return x.Before(y) == ord.Ascending
		}
	}
	return false
}

func (repo *assignmentRepository) QueryAssignments(ctx context.Context, filter assignment.QueryFilter, ordering []core.DBOrdering) ([]assignment.Assignment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	assignments := make([]assignment.Assignment, 0)
	for _, a := range repo.db.table {
		if filter.Match(*a) {
			assignments = append(assignments, copyAssignment(*a))
		}
	}
	sort.SliceStable(assignments, func(i, j int) bool { return lessAssignments(assignments[i], assignments[j], ordering) })
	return assignments, nil
}

func (repo *assignmentRepository) UpdateAssignment(ctx context.Context, a assignment.Assignment) (assignment.Assignment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[a.ID]
	if !ok {
		return assignment.Assignment{}, assignment.ErrNotFound
	}
	updated := copyAssignment(a)
	updated.Teacher = orig.Teacher
	updated.Submissions = orig.Submissions
	updated.CreatedAt = orig.CreatedAt
	repo.db.table[a.ID] = &updated
	return copyAssignment(updated), nil
}

func (repo *assignmentRepository) AddSubmission(ctx context.Context, assignmentID string, sub assignment.Submission) (assignment.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a, ok := repo.db.table[assignmentID]
	if !ok {
		return assignment.Submission{}, assignment.ErrNotFound
	}
	if _, found := a.SubmissionOf(sub.Student.ID); found {
		return assignment.Submission{}, assignment.ErrAlreadySubmitted
	}
	sub.ID = newID()
	sub = copySubmission(sub)
	a.Submissions = append(a.Submissions, sub)
	return copySubmission(sub), nil
}

func (repo *assignmentRepository) GradeSubmission(ctx context.Context, assignmentID string, sub assignment.Submission) (assignment.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	a, ok := repo.db.table[assignmentID]
	if !ok {
		return assignment.Submission{}, assignment.ErrNotFound
	}
	for i := range a.Submissions {
		if a.Submissions[i].ID == sub.ID {
			graded := copySubmission(sub)
			a.Submissions[i].Score = graded.Score
			a.Submissions[i].Feedback = graded.Feedback
			a.Submissions[i].IsGraded = graded.IsGraded
			return copySubmission(a.Submissions[i]), nil
		}
	}
	return assignment.Submission{}, assignment.ErrSubmissionNotFound
}
