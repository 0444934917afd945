package models

import "time"

// Report status constants
const (
	ReportStatusDrafted       = "drafted"
	ReportStatusSubmitted     = "submitted"
	ReportStatusPendingReview = "pending_review"
	ReportStatusApproved      = "approved"
	ReportStatusReturned      = "returned"
)

// ReportDraft is a field report built from a free-text narrative. The
// accuracy score stays nil until the pipeline has computed one.
type ReportDraft struct {
	ID            string    `json:"id"`
	OrgID         string    `json:"orgId"`
	ReportType    string    `json:"reportType"`
	TemplateID    *string   `json:"templateId,omitempty"`
	Narrative     string    `json:"narrative"`
	AccuracyScore *float64  `json:"accuracyScore,omitempty"`
	Status        string    `json:"status"`
	FlagReason    string    `json:"flagReason,omitempty"`
	CreatedBy     string    `json:"createdBy"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
