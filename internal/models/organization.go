package models

import "time"

// OrganizationAggregate holds incrementally maintained counters for one
// organization. Not authoritative: counters can drift when an increment
// fails after item creation, and are recomputable from the report and
// queue-item collections.
type OrganizationAggregate struct {
	OrgID            string    `json:"orgId"`
	ReportCount      int       `json:"reportCount"`
	LowAccuracyCount int       `json:"lowAccuracyCount"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
