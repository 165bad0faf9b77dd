package inmemdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/announcement"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/user"
)

func TestAssignmentRepository_concurrentSubmissions(t *testing.T) {
	repo := NewAssignmentRepository(Open())
	ctx := context.Background()

	a, err := repo.CreateAssignment(ctx, assignment.Assignment{Title: "Essay", IsActive: true, DueDate: time.Now()})
	require.NoError(t, err)

	const attempts = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AddSubmission(ctx, a.ID, assignment.Submission{Student: user.NewRef("s1")})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if err == assignment.ErrAlreadySubmitted {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)

	got, err := repo.GetAssignment(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, got.Submissions, 1)
}

func TestAssignmentRepository_isolation(t *testing.T) {
	repo := NewAssignmentRepository(Open())
	ctx := context.Background()

	a, err := repo.CreateAssignment(ctx, assignment.Assignment{
		Title:       "Essay",
		IsActive:    true,
		Attachments: []core.File{{Name: "brief.pdf", URL: "https://files.test.cd/brief.pdf"}},
	})
	require.NoError(t, err)
	sub, err := repo.AddSubmission(ctx, a.ID, assignment.Submission{Student: user.NewRef("s1")})
	require.NoError(t, err)

	got, err := repo.GetAssignment(ctx, a.ID)
	require.NoError(t, err)
	got.Attachments[0].Name = "changed"
	got.Submissions[0].Feedback = "changed"

	score := 10.0
	sub.Score = &score
	sub.IsGraded = true
	graded, err := repo.GradeSubmission(ctx, a.ID, sub)
	require.NoError(t, err)
	score = 0

	got, err = repo.GetAssignment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "brief.pdf", got.Attachments[0].Name)
	assert.Equal(t, "", got.Submissions[0].Feedback)
	require.NotNil(t, got.Submissions[0].Score)
	assert.Equal(t, 10.0, *got.Submissions[0].Score)
	assert.Equal(t, 10.0, *graded.Score)

	_, err = repo.GradeSubmission(ctx, a.ID, assignment.Submission{ID: "unknown"})
	assert.Equal(t, assignment.ErrSubmissionNotFound, err)
	_, err = repo.GetAssignment(ctx, "unknown")
	assert.Equal(t, assignment.ErrNotFound, err)
}

func TestAnnouncementRepository_concurrentMarkRead(t *testing.T) {
	repo := NewAnnouncementRepository(Open())
	ctx := context.Background()

	a, err := repo.CreateAnnouncement(ctx, announcement.Announcement{Title: "Exams", IsActive: true})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, repo.MarkRead(ctx, a.ID, announcement.Read{User: user.NewRef("s1"), ReadAt: core.Now()}))
		}()
	}
	wg.Wait()
	require.NoError(t, repo.MarkRead(ctx, a.ID, announcement.Read{User: user.NewRef("s2"), ReadAt: core.Now()}))

	got, err := repo.GetAnnouncement(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, got.ReadBy, 2)

	assert.Equal(t, announcement.ErrNotFound, repo.MarkRead(ctx, "unknown", announcement.Read{User: user.NewRef("s1")}))
}
