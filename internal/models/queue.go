package models

import "time"

// Queue item status constants
const (
	QueueStatusPending  = "pending"
	QueueStatusInReview = "in_review"
	QueueStatusResolved = "resolved"
)

// Priority constants
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Resolution constants
const (
	ResolutionApproved  = "approved"
	ResolutionReturned  = "returned"
	ResolutionEdited    = "edited"
	ResolutionEscalated = "escalated"
)

// ReviewQueueItem tracks the triage of one low-accuracy report. Created at
// most once per open report; once resolved it is immutable and serves as an
// audit record.
type ReviewQueueItem struct {
	ID              string     `json:"id"`
	OrgID           string     `json:"orgId"`
	ReportID        string     `json:"reportId"`
	AccuracyScore   float64    `json:"accuracyScore"`
	Status          string     `json:"status"`
	Priority        string     `json:"priority"`
	DueDate         time.Time  `json:"dueDate"`
	AssignedTo      *string    `json:"assignedTo,omitempty"`
	AssignedAt      *time.Time `json:"assignedAt,omitempty"`
	Resolution      *string    `json:"resolution,omitempty"`
	ResolutionNotes *string    `json:"resolutionNotes,omitempty"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Open reports whether the item still needs reviewer action.
func (i *ReviewQueueItem) Open() bool {
	return i.Status != QueueStatusResolved
}

// Overdue reports whether the item blew its SLA window as of now.
func (i *ReviewQueueItem) Overdue(now time.Time) bool {
	return i.Open() && i.DueDate.Before(now)
}
