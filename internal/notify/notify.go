package notify

import (
	"context"
	"log"
	"time"
)

// Event types emitted by the pipeline. The payload is enough for an
// external notification service to format and deliver messages; this core
// never formats or sends messages itself.
const (
	EventLowAccuracyDetected = "lowAccuracyDetected"
	EventReviewDueSoon       = "reviewDueSoon"
	EventReviewResolved      = "reviewResolved"
)

type Event struct {
	Type          string    `json:"type"`
	OrgID         string    `json:"orgId"`
	ReportID      string    `json:"reportId,omitempty"`
	QueueItemID   string    `json:"queueItemId,omitempty"`
	AccuracyScore float64   `json:"accuracyScore,omitempty"`
	Resolution    string    `json:"resolution,omitempty"`
	At            time.Time `json:"at"`
}

// Notifier receives pipeline events fire-and-forget; a slow or failing
// notifier must never block or fail a pipeline operation.
type Notifier interface {
	Publish(ctx context.Context, e Event)
}

// LogNotifier writes events to the service log (which main multiplexes to
// GELF). The production deployment swaps in a real delivery service here.
type LogNotifier struct{}

func (LogNotifier) Publish(ctx context.Context, e Event) {
	log.Printf("event %s org=%s report=%s item=%s", e.Type, e.OrgID, e.ReportID, e.QueueItemID)
}

// NopNotifier discards events; used in tests.
type NopNotifier struct{}

func (NopNotifier) Publish(ctx context.Context, e Event) {}
