package assignment

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("assignment")
	ErrSubmissionNotFound = core.NewNotFoundError("submission")
	ErrAlreadySubmitted   = core.NewConflictError("assignment already submitted")
	ErrTeachersOnly       = core.NewForbiddenError("only teachers can create assignments")
	ErrStudentsOnly       = core.NewForbiddenError("only students can submit assignments")
	ErrNotOwner           = core.NewForbiddenError("not the teacher of this assignment")
)

type (
	Repository interface {
		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		// GetAssignment returns the active assignment with the given id, submissions included.
		GetAssignment(ctx context.Context, id string) (Assignment, error)
		// QueryAssignments returns the assignments matching filter (see QueryFilter.Match), submissions included.
		QueryAssignments(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Assignment, error)
		UpdateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		// AddSubmission returns ErrAlreadySubmitted if the student already has a submission for the assignment.
		AddSubmission(ctx context.Context, assignmentID string, sub Submission) (Submission, error)
		GradeSubmission(ctx context.Context, assignmentID string, sub Submission) (Submission, error)
	}

	// Notifier is told about graded submissions.
	Notifier interface {
		SubmissionGraded(ctx context.Context, student user.User, a Assignment, sub Submission)
	}

	Service interface {
		Create(ctx context.Context, caller user.User, data NewAssignment) (Assignment, error)
		Get(ctx context.Context, id string, caller user.User) (Assignment, error)
		Update(ctx context.Context, id string, caller user.User, data UpdateAssignment) (Assignment, error)
		Delete(ctx context.Context, id string, caller user.User) error
		Submit(ctx context.Context, id string, caller user.User, data NewSubmission) (Submission, error)
		Grade(ctx context.Context, id, submissionID string, caller user.User, data Grade) (Submission, error)
		ListForStudent(ctx context.Context, caller user.User, filter QueryFilter, page core.Page) ([]StudentAssignment, int, error)
		ListForTeacher(ctx context.Context, caller user.User) ([]Assignment, error)
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

func (svc *service) Create(ctx context.Context, caller user.User, data NewAssignment) (Assignment, error) {
	if !CanCreate(caller) {
		return Assignment{}, ErrTeachersOnly
	}

	now := core.Now()
	a, err := svc.repo.CreateAssignment(ctx, Assignment{
		Title:        data.Title,
		Description:  data.Description,
		Subject:      data.Subject,
		Teacher:      caller.Ref(),
		Class:        data.Class,
		DueDate:      data.DueDate,
		MaxMarks:     data.MaxMarks,
		Instructions: data.Instructions,
		Attachments:  data.Attachments,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Assignment{}, errors.Wrap(err, "creating assignment")
	}
	a.Teacher = caller.Ref()
	return a, nil
}

// Get returns the assignment with the given id. Students only see their own submission.
func (svc *service) Get(ctx context.Context, id string, caller user.User) (Assignment, error) {
	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if caller.IsStudent() {
		a.Submissions = ownSubmissions(a, caller.ID)
	}
	if _, err = svc.populate(ctx, &a); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

func (svc *service) Update(ctx context.Context, id string, caller user.User, data UpdateAssignment) (Assignment, error) {
	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if !CanManage(caller, a) {
		return Assignment{}, ErrNotOwner
	}

	a.Title = data.Title
	a.Description = data.Description
	a.Subject = data.Subject
	a.Class = data.Class
	a.DueDate = data.DueDate
	a.MaxMarks = data.MaxMarks
	a.Instructions = data.Instructions
	a.Attachments = data.Attachments
	a.UpdatedAt = core.Now()
	if a, err = svc.repo.UpdateAssignment(ctx, a); err != nil {
		return Assignment{}, errors.Wrap(err, "updating assignment")
	}
	if _, err = svc.populate(ctx, &a); err != nil {
		return Assignment{}, err
	}
	return a, nil
}

// Delete deactivates the assignment; its submissions are kept.
func (svc *service) Delete(ctx context.Context, id string, caller user.User) error {
	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return err
	}
	if !CanManage(caller, a) {
		return ErrNotOwner
	}

	a.IsActive = false
	a.UpdatedAt = core.Now()
	if _, err = svc.repo.UpdateAssignment(ctx, a); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return nil
}

// Submit hands in the caller's work. Submissions past the due date are accepted.
func (svc *service) Submit(ctx context.Context, id string, caller user.User, data NewSubmission) (Submission, error) {
	if !CanSubmit(caller) {
		return Submission{}, ErrStudentsOnly
	}
	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if _, ok := a.SubmissionOf(caller.ID); ok {
		return Submission{}, ErrAlreadySubmitted
	}

	sub, err := svc.repo.AddSubmission(ctx, a.ID, Submission{
		Student:     caller.Ref(),
		File:        core.File{Name: data.FileName, URL: data.FileURL},
		SubmittedAt: core.Now(),
	})
	if err != nil {
		return Submission{}, errors.Wrap(err, "adding submission")
	}
	sub.Student = caller.Ref()
	return sub, nil
}

func (svc *service) Grade(ctx context.Context, id, submissionID string, caller user.User, data Grade) (Submission, error) {
	a, err := svc.repo.GetAssignment(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if !CanManage(caller, a) {
		return Submission{}, ErrNotOwner
	}
	sub, ok := a.submission(submissionID)
	if !ok {
		return Submission{}, ErrSubmissionNotFound
	}

	score := *data.Score
	sub.Score = &score
	sub.Feedback = data.Feedback
	sub.IsGraded = true
	if sub, err = svc.repo.GradeSubmission(ctx, a.ID, sub); err != nil {
		return Submission{}, errors.Wrap(err, "grading submission")
	}

	users, err := svc.users.LookupUsers(ctx, sub.Student.ID, a.Teacher.ID)
	if err != nil {
		return Submission{}, errors.Wrap(err, "looking up users")
	}
	user.Populate(users, &sub.Student, &a.Teacher)
	if svc.notifier != nil {
		if student, ok := users[sub.Student.ID]; ok {
			svc.notifier.SubmissionGraded(ctx, student, a, sub)
		}
	}
	return sub, nil
}

// ListForStudent returns the active assignments of the caller's class (all classes if the caller has none), by
// due date, each with the caller's submission and derived status. The status filter applies to the derived status,
// before pagination.
func (svc *service) ListForStudent(ctx context.Context, caller user.User, filter QueryFilter, page core.Page) ([]StudentAssignment, int, error) {
	filter.Clean()
	page.Clean()
	filter.TeacherID = ""
	filter.Class = caller.Class

	assignments, err := svc.repo.QueryAssignments(ctx, filter, []core.DBOrdering{{Field: "due_date", Ascending: true}})
	if err != nil {
		return nil, 0, errors.Wrap(err, "querying assignments")
	}

	now := core.Now()
	views := make([]StudentAssignment, 0, len(assignments))
	for _, a := range assignments {
		status := DeriveStatus(a, caller.ID, now)
		if filter.Status != "" && status != filter.Status {
			continue
		}
		view := StudentAssignment{SubmissionStatus: status}
		if sub, ok := a.SubmissionOf(caller.ID); ok {
			view.Submission = &sub
		}
		a.Submissions = nil
		view.Assignment = a
		views = append(views, view)
	}

	total := len(views)
	start, end := page.Bounds(total)
	views = views[start:end]

	refs := make([]*user.Ref, 0, 2*len(views))
	for i := range views {
		refs = append(refs, &views[i].Teacher)
		if views[i].Submission != nil {
			refs = append(refs, &views[i].Submission.Student)
		}
	}
	if _, err = svc.lookup(ctx, refs); err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (svc *service) ListForTeacher(ctx context.Context, caller user.User) ([]Assignment, error) {
	if !caller.IsTeacher() {
		return nil, core.NewForbiddenError("only teachers have assignments")
	}
	assignments, err := svc.repo.QueryAssignments(ctx, QueryFilter{TeacherID: caller.ID}, []core.DBOrdering{{Field: "created_at"}})
	if err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	ps := make([]*Assignment, len(assignments))
	for i := range assignments {
		ps[i] = &assignments[i]
		sort.SliceStable(assignments[i].Submissions, func(x, y int) bool {
			return assignments[i].Submissions[x].SubmittedAt.Before(assignments[i].Submissions[y].SubmittedAt)
		})
	}
	if _, err = svc.populate(ctx, ps...); err != nil {
		return nil, err
	}
	return assignments, nil
}

func (svc *service) populate(ctx context.Context, assignments ...*Assignment) (map[string]user.User, error) {
	var refs []*user.Ref
	for _, a := range assignments {
		refs = append(refs, a.refs()...)
	}
	return svc.lookup(ctx, refs)
}

func (svc *service) lookup(ctx context.Context, refs []*user.Ref) (map[string]user.User, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	users, err := svc.users.LookupUsers(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "looking up users")
	}
	user.Populate(users, refs...)
	return users, nil
}

func ownSubmissions(a Assignment, studentID string) []Submission {
	if sub, ok := a.SubmissionOf(studentID); ok {
		return []Submission{sub}
	}
	return nil
}
