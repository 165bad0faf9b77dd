// Package notifysvc emails users about the events of the lifecycle engines that concern them.
package notifysvc

import (
	"bytes"
	"context"
	"html/template"
	"net/mail"
	"strconv"

	"github.com/yuin/goldmark"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/assignment"
	"github.com/trezcool/shule/core/doubt"
	"github.com/trezcool/shule/core/user"
)

type (
	doubtAnsweredData struct {
		StudentName  string
		TeacherName  string
		DoubtID      string
		DoubtTitle   string
		ResponseText string
		ResponseHTML template.HTML
	}

	submissionGradedData struct {
		StudentName     string
		TeacherName     string
		AssignmentTitle string
		Subject         string
		Score           string
		MaxMarks        int
		FeedbackText    string
		FeedbackHTML    template.HTML
	}
)

// Service sends the notification emails. Sending is fire and forget: failures are logged, never returned.
type Service struct {
	mailer core.EmailService
	logger core.Logger
	md     goldmark.Markdown
}

var (
	_ doubt.Notifier      = (*Service)(nil)
	_ assignment.Notifier = (*Service)(nil)
)

func NewService(mailer core.EmailService, logger core.Logger) *Service {
	return &Service{
		mailer: mailer,
		logger: logger,
		md:     goldmark.New(),
	}
}

// markdown renders src as HTML; raw HTML in src is omitted.
func (svc *Service) markdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := svc.md.Convert([]byte(src), &buf); err != nil {
		svc.logger.Warn("notify: rendering markdown", err)
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

func recipient(u user.User) []mail.Address {
	if u.Email == "" {
		return nil
	}
	return []mail.Address{{Name: u.Name(), Address: u.Email}}
}

func (svc *Service) DoubtAnswered(ctx context.Context, student user.User, d doubt.Doubt, resp doubt.Response) {
	svc.mailer.SendMessages(&core.EmailMessage{
		To:           recipient(student),
		Subject:      "Your doubt has been answered",
		TemplateName: "doubt_answered",
		TemplateData: doubtAnsweredData{
			StudentName:  student.Name(),
			TeacherName:  resp.Author.Name,
			DoubtID:      d.ID,
			DoubtTitle:   d.Title,
			ResponseText: resp.Content,
			ResponseHTML: svc.markdown(resp.Content),
		},
	})
}

func (svc *Service) SubmissionGraded(ctx context.Context, student user.User, a assignment.Assignment, sub assignment.Submission) {
	var score string
	if sub.Score != nil {
		score = strconv.FormatFloat(*sub.Score, 'f', -1, 64)
	}
	svc.mailer.SendMessages(&core.EmailMessage{
		To:           recipient(student),
		Subject:      "Your submission for " + a.Title + " has been graded",
		TemplateName: "submission_graded",
		TemplateData: submissionGradedData{
			StudentName:     student.Name(),
			TeacherName:     a.Teacher.Name,
			AssignmentTitle: a.Title,
			Subject:         a.Subject,
			Score:           score,
			MaxMarks:        a.MaxMarks,
			FeedbackText:    sub.Feedback,
			FeedbackHTML:    svc.markdown(sub.Feedback),
		},
	})
}
