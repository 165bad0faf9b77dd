package doubt_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/doubt"
	"github.com/trezcool/shule/core/user"
	"github.com/trezcool/shule/storage/database/inmem"
	"github.com/trezcool/shule/tests"
)

type notification struct {
	studentID string
	content   string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) DoubtAnswered(ctx context.Context, student user.User, d doubt.Doubt, resp doubt.Response) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{studentID: student.ID, content: resp.Content})
}

func TestService_lifecycle(t *testing.T) {
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	notifier := new(recordingNotifier)
	svc := doubt.NewService(inmemdb.NewDoubtRepository(db), user.NewService(usrRepo), notifier)
	ctx := context.Background()

	student := testutil.CreateUser(t, usrRepo, "Amani", "Juma", "amani@test.cd", user.RoleStudent, "CS-A", true)
	classmate := testutil.CreateUser(t, usrRepo, "Baraka", "Asani", "baraka@test.cd", user.RoleStudent, "CS-A", true)
	teacher := testutil.CreateUser(t, usrRepo, "Tumaini", "Mwalimu", "teacher@test.cd", user.RoleTeacher, "", true)

	_, err := svc.Create(ctx, teacher, doubt.NewDoubt{Title: "t", Description: "d", Subject: "s"})
	assert.Equal(t, doubt.ErrStudentsOnly, err)

	d, err := svc.Create(ctx, student, doubt.NewDoubt{Title: "Limits", Description: "sin(x)/x", Subject: "Maths", Class: "CS-B"})
	require.NoError(t, err)
	assert.Equal(t, doubt.StatusOpen, d.Status)
	assert.Equal(t, "CS-B", d.Class)

	// a classmate's answer does not count
	d, err = svc.Respond(ctx, d.ID, classmate, doubt.NewResponse{Content: "L'Hopital?"})
	require.NoError(t, err)
	assert.Equal(t, doubt.StatusOpen, d.Status)
	assert.Empty(t, notifier.sent)

	d, err = svc.Respond(ctx, d.ID, teacher, doubt.NewResponse{Content: "It tends to 1."})
	require.NoError(t, err)
	assert.Equal(t, doubt.StatusAnswered, d.Status)
	assert.Equal(t, []notification{{studentID: student.ID, content: "It tends to 1."}}, notifier.sent)

	_, err = svc.Resolve(ctx, d.ID, classmate)
	assert.Equal(t, doubt.ErrCannotResolve, err)

	d, err = svc.Resolve(ctx, d.ID, student)
	require.NoError(t, err)
	assert.True(t, d.IsResolved())
	assert.Equal(t, "Amani Juma", d.ResolvedBy.Name)

	// every teacher response notifies, even on a resolved doubt
	d, err = svc.Respond(ctx, d.ID, teacher, doubt.NewResponse{Content: "You're welcome."})
	require.NoError(t, err)
	assert.Equal(t, doubt.StatusResolved, d.Status)
	assert.Len(t, notifier.sent, 2)

	_, err = svc.Respond(ctx, "unknown", teacher, doubt.NewResponse{Content: "?"})
	assert.Equal(t, doubt.ErrNotFound, err)

	mine, err := svc.ListForStudent(ctx, student)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Len(t, mine[0].Responses, 3)
	assert.Equal(t, "Baraka Asani", mine[0].Responses[0].Author.Name)
}

// resolvingRepository resolves the doubt after the service has read it, before the response is written.
type resolvingRepository struct {
	doubt.Repository
	resolver user.User
}

func (r resolvingRepository) AddResponse(ctx context.Context, id string, resp doubt.Response) (doubt.Doubt, error) {
	d, err := r.Repository.GetDoubt(ctx, id)
	if err != nil {
		return doubt.Doubt{}, err
	}
	resolver := r.resolver.Ref()
	now := resp.CreatedAt
	d.Status = doubt.StatusResolved
	d.ResolvedBy = &resolver
	d.ResolvedAt = &now
	if _, err = r.Repository.ResolveDoubt(ctx, d); err != nil {
		return doubt.Doubt{}, err
	}
	return r.Repository.AddResponse(ctx, id, resp)
}

func TestService_Respond_concurrentResolve(t *testing.T) {
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	ctx := context.Background()

	student := testutil.CreateUser(t, usrRepo, "Amani", "Juma", "amani@test.cd", user.RoleStudent, "CS-A", true)
	teacher := testutil.CreateUser(t, usrRepo, "Tumaini", "Mwalimu", "teacher@test.cd", user.RoleTeacher, "", true)

	repo := resolvingRepository{Repository: inmemdb.NewDoubtRepository(db), resolver: student}
	svc := doubt.NewService(repo, user.NewService(usrRepo), nil)

	d, err := svc.Create(ctx, student, doubt.NewDoubt{Title: "Limits", Description: "sin(x)/x", Subject: "Maths"})
	require.NoError(t, err)

	d, err = svc.Respond(ctx, d.ID, teacher, doubt.NewResponse{Content: "It tends to 1."})
	require.NoError(t, err)
	assert.Equal(t, doubt.StatusResolved, d.Status)
	assert.NotNil(t, d.ResolvedAt)
	assert.Len(t, d.Responses, 1)
}
