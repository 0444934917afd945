package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/notify"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/store"
)

// editedScore is recorded when a reviewer directly corrected the content.
const editedScore = 95.0

// Machine owns the review item lifecycle: pending → in_review → resolved,
// with direct pending → resolved allowed for reviewers who act without a
// separate claim step. Transitions are serialized per item by conditional
// status writes at the store; a lost race surfaces as
// ConcurrentModificationError and the caller retries from fresh state.
type Machine struct {
	store     store.Store
	notifier  notify.Notifier
	threshold float64
	now       func() time.Time
}

func NewMachine(st store.Store, notifier notify.Notifier, threshold float64) *Machine {
	return &Machine{store: st, notifier: notifier, threshold: threshold, now: time.Now}
}

// Assign claims a pending item for a reviewer.
func (m *Machine) Assign(ctx context.Context, itemID, reviewerID string) (*models.ReviewQueueItem, error) {
	if reviewerID == "" {
		return nil, errors.New("reviewer id is required")
	}
	item, err := m.store.GetQueueItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load queue item: %w", err)
	}
	if item == nil {
		return nil, &models.NotFoundError{Entity: "queue item", ID: itemID}
	}
	if item.Status != models.QueueStatusPending {
		return nil, &models.InvalidStateError{Op: "assign", Current: item.Status}
	}

	now := m.now().UTC()
	item.Status = models.QueueStatusInReview
	item.AssignedTo = &reviewerID
	item.AssignedAt = &now
	if err := m.store.UpdateQueueItemConditional(ctx, item, models.QueueStatusPending); err != nil {
		return nil, err
	}
	return item, nil
}

// Resolve closes an item with a resolution and applies the side effects on
// the linked report. Works from in_review or directly from pending.
// Resolved items are immutable; corrections need a new item.
func (m *Machine) Resolve(ctx context.Context, itemID, resolution, notes string) (*models.ReviewQueueItem, error) {
	switch resolution {
	case models.ResolutionApproved, models.ResolutionReturned, models.ResolutionEdited, models.ResolutionEscalated:
	default:
		return nil, fmt.Errorf("unknown resolution %q", resolution)
	}

	item, err := m.store.GetQueueItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("load queue item: %w", err)
	}
	if item == nil {
		return nil, &models.NotFoundError{Entity: "queue item", ID: itemID}
	}
	if item.Status == models.QueueStatusResolved {
		return nil, &models.InvalidStateError{Op: "resolve", Current: item.Status}
	}

	previous := item.Status
	now := m.now().UTC()
	item.Status = models.QueueStatusResolved
	item.Resolution = &resolution
	if notes != "" {
		item.ResolutionNotes = &notes
	}
	item.ResolvedAt = &now
	if err := m.store.UpdateQueueItemConditional(ctx, item, previous); err != nil {
		return nil, err
	}

	if err := m.applyResolution(ctx, item, resolution, notes, now); err != nil {
		return nil, err
	}

	m.notifier.Publish(ctx, notify.Event{
		Type:        notify.EventReviewResolved,
		OrgID:       item.OrgID,
		ReportID:    item.ReportID,
		QueueItemID: item.ID,
		Resolution:  resolution,
		At:          now,
	})
	return item, nil
}

// NotifyDueSoon publishes a reviewDueSoon event for every open item whose
// SLA deadline falls within the given window, overdue items included. It
// returns the number of events published. Callers run this on a timer;
// repeated runs re-notify until the item is resolved.
func (m *Machine) NotifyDueSoon(ctx context.Context, within time.Duration) (int, error) {
	cutoff := m.now().UTC().Add(within)
	items, err := m.store.ListDueBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list due items: %w", err)
	}
	for _, item := range items {
		m.notifier.Publish(ctx, notify.Event{
			Type:        notify.EventReviewDueSoon,
			OrgID:       item.OrgID,
			ReportID:    item.ReportID,
			QueueItemID: item.ID,
			At:          item.DueDate,
		})
	}
	return len(items), nil
}

func (m *Machine) applyResolution(ctx context.Context, item *models.ReviewQueueItem, resolution, notes string, now time.Time) error {
	report, err := m.store.GetReport(ctx, item.ReportID)
	if err != nil {
		return fmt.Errorf("load report: %w", err)
	}
	if report == nil {
		return &models.NotFoundError{Entity: "report", ID: item.ReportID}
	}

	switch resolution {
	case models.ResolutionApproved:
		report.Status = models.ReportStatusApproved
		// Human sign-off raises the stored score to at least the threshold,
		// never lowers it.
		if report.AccuracyScore == nil || *report.AccuracyScore < m.threshold {
			score := m.threshold
			report.AccuracyScore = &score
		}
	case models.ResolutionReturned:
		report.Status = models.ReportStatusReturned
		report.FlagReason = notes
	case models.ResolutionEdited:
		report.Status = models.ReportStatusApproved
		score := editedScore
		report.AccuracyScore = &score
	case models.ResolutionEscalated:
		// Report stays pending_review; a higher-tier reviewer is notified
		// out of band.
		return nil
	}

	report.UpdatedAt = now
	if err := m.store.UpdateReport(ctx, report); err != nil {
		return fmt.Errorf("update report: %w", err)
	}
	return nil
}
