package notifysvc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/doubt"
	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	"github.com/trezcool/shule/tests"
)

func setup(t *testing.T) *Service {
	conf := core.NewTestConfig()
	emailsvc.ClearSentMessages()
	return NewService(emailsvc.NewConsoleServiceMock(conf), testutil.NewLogger(conf))
}

func TestService_DoubtAnswered(t *testing.T) {
	svc := setup(t)
	student := user.User{ID: "s1", FirstName: "Amani", LastName: "Juma", Email: "amani@test.cd"}
	d := doubt.Doubt{ID: "d1", Title: "Recursion"}
	resp := doubt.Response{
		Author:  user.Ref{ID: "t1", Name: "Tumaini Mwalimu"},
		Content: "Add a **base case**.\n\n<script>alert(1)</script>",
	}

	svc.DoubtAnswered(context.Background(), student, d, resp)

	sent := emailsvc.SentMessagesSnapshot()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "Amani Juma", msg.To[0].Name)
	assert.Equal(t, "amani@test.cd", msg.To[0].Address)
	assert.Equal(t, "Your doubt has been answered", msg.Subject)
	assert.Contains(t, msg.HTMLContent, "<strong>base case</strong>")
	assert.NotContains(t, msg.HTMLContent, "<script>")
	assert.Contains(t, msg.TextContent, "Add a **base case**.")
}

func TestService_SubmissionGraded(t *testing.T) {
	svc := setup(t)
	student := user.User{ID: "s1", FirstName: "Amani", LastName: "Juma", Email: "amani@test.cd"}
	a := assignment.Assignment{
		Title:    "Sorting",
		Subject:  "Computer Science",
		MaxMarks: 50,
		Teacher:  user.Ref{ID: "t1", Name: "Tumaini Mwalimu"},
	}
	score := 42.5
	sub := assignment.Submission{ID: "sub1", Score: &score, Feedback: "Good _work_", IsGraded: true}

	svc.SubmissionGraded(context.Background(), student, a, sub)

	sent := emailsvc.SentMessagesSnapshot()
	require.Len(t, sent, 1)
	assert.Equal(t, "Your submission for Sorting has been graded", sent[0].Subject)
	assert.Contains(t, sent[0].TextContent, "Score: 42.5 / 50")
	assert.Contains(t, sent[0].HTMLContent, "<em>work</em>")
	assert.Contains(t, sent[0].HTMLContent, "Tumaini Mwalimu")
}

func TestService_noEmail(t *testing.T) {
	svc := setup(t)
	svc.DoubtAnswered(context.Background(), user.User{ID: "s1"}, doubt.Doubt{}, doubt.Response{Content: "hi"})
	assert.Empty(t, emailsvc.SentMessagesSnapshot())
}
