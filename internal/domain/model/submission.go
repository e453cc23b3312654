package model

import "time"

// CheckStatus describes the originality check of a submission.
type CheckStatus string

const (
	CheckStatusPending   CheckStatus = "pending"
	CheckStatusChecking  CheckStatus = "checking"
	CheckStatusChecked   CheckStatus = "checked"
	CheckStatusUnchecked CheckStatus = "unchecked"
)

// Submission is one delivery of work for an order.
type Submission struct {
	ID          int64
	OrderID     int64
	WriterID    int64
	FileRef     string
	Note        string
	SubmittedAt time.Time

	CheckStatus CheckStatus
	Score       *float64
	Flagged     bool
	CheckedAt   *time.Time
}

// OriginalityResult is what the checker reports for a file.
type OriginalityResult struct {
	Score   float64
	Flagged bool
}
