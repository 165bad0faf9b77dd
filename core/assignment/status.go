package assignment

import "time"

// Derived submission statuses
const (
	StatusPending   = "pending"
	StatusOverdue   = "overdue"
	StatusSubmitted = "submitted"
	StatusGraded    = "graded"
)

var AllStatuses = []string{StatusPending, StatusOverdue, StatusSubmitted, StatusGraded}

// DeriveStatus computes the status of a for the student with the given id at instant now.
// It is computed on read and never stored.
func DeriveStatus(a Assignment, studentID string, now time.Time) string {
	sub, ok := a.SubmissionOf(studentID)
	switch {
	case ok && sub.IsGraded:
		return StatusGraded
	case ok:
		return StatusSubmitted
	case now.After(a.DueDate):
		return StatusOverdue
	default:
		return StatusPending
	}
}
