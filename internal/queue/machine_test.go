package queue

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/notify"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/store"
)

const testThreshold = 85.0

func newTestMachine(st store.Store) *Machine {
	return NewMachine(st, notify.NopNotifier{}, testThreshold)
}

func seedReviewableReport(t *testing.T, st store.Store, score float64) (*models.ReportDraft, *models.ReviewQueueItem) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	report := &models.ReportDraft{
		ID:            uuid.NewString(),
		OrgID:         "org-1",
		ReportType:    "incident",
		Narrative:     "Officer responded to a call.",
		AccuracyScore: &score,
		Status:        models.ReportStatusPendingReview,
		CreatedBy:     "officer-7",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, st.CreateReport(ctx, report))

	item := &models.ReviewQueueItem{
		ID:            uuid.NewString(),
		OrgID:         "org-1",
		ReportID:      report.ID,
		AccuracyScore: score,
		Status:        models.QueueStatusPending,
		Priority:      models.PriorityNormal,
		DueDate:       now.Add(48 * time.Hour),
		CreatedAt:     now,
	}
	require.NoError(t, st.CreateQueueItem(ctx, item))
	return report, item
}

func TestAssign(t *testing.T) {
	st := store.NewMemoryStore()
	m := newTestMachine(st)
	_, item := seedReviewableReport(t, st, 70)

	assigned, err := m.Assign(context.Background(), item.ID, "reviewer-1")
	require.NoError(t, err)

	assert.Equal(t, models.QueueStatusInReview, assigned.Status)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, "reviewer-1", *assigned.AssignedTo)
	assert.NotNil(t, assigned.AssignedAt)

	// A second claim hits the in_review state.
	_, err = m.Assign(context.Background(), item.ID, "reviewer-2")
	var stateErr *models.InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestResolve_ApprovedRaisesScoreToThreshold(t *testing.T) {
	st := store.NewMemoryStore()
	m := newTestMachine(st)
	report, item := seedReviewableReport(t, st, 70)

	_, err := m.Assign(context.Background(), item.ID, "reviewer-1")
	require.NoError(t, err)

	resolved, err := m.Resolve(context.Background(), item.ID, models.ResolutionApproved, "looks good")
	require.NoError(t, err)

	assert.Equal(t, models.QueueStatusResolved, resolved.Status)
	require.NotNil(t, resolved.Resolution)
	assert.Equal(t, models.ResolutionApproved, *resolved.Resolution)
	assert.NotNil(t, resolved.ResolvedAt)

	stored, err := st.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusApproved, stored.Status)
	require.NotNil(t, stored.AccuracyScore)
	assert.Equal(t, testThreshold, *stored.AccuracyScore, "70 is raised to the threshold")
}

func TestResolve_ApprovedNeverLowersScore(t *testing.T) {
	st := store.NewMemoryStore()
	m := newTestMachine(st)
	report, item := seedReviewableReport(t, st, 90)

	_, err := m.Resolve(context.Background(), item.ID, models.ResolutionApproved, "")
	require.NoError(t, err)

	stored, err := st.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AccuracyScore)
	assert.Equal(t, 90.0, *stored.AccuracyScore)
}

func TestResolve_DirectlyFromPending(t *testing.T) {
	st := store.NewMemoryStore()
	m := newTestMachine(st)
	report, item := seedReviewableReport(t, st, 70)

	// No explicit claim step.
	resolved, err := m.Resolve(context.Background(), item.ID, models.ResolutionApproved, "")
	require.NoError(t, err)

	assert.Equal(t, models.QueueStatusResolved, resolved.Status)
	assert.Nil(t, resolved.AssignedTo)

	stored, err := st.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusApproved, stored.Status)
}

func TestResolve_ReturnedFlagsReport(t *testing.T) {
	st := store.NewMemoryStore()
	m := newTestMachine(st)
	report, item := seedReviewableReport(t, st, 55)

	_, err := m.Resolve(context.Background(), item.ID, models.ResolutionReturned, "narrative contradicts dispatch log")
	require.NoError(t, err)

	stored, err := st.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusReturned, stored.Status)
	assert.Equal(t, "narrative contradicts dispatch log", stored.FlagReason)
}

func TestResolve_EditedSetsFixedScore(t *testing.T) {
	st := store.NewMemoryStore()
	m := newTestMachine(st)
	report, item := seedReviewableReport(t, st, 40)

	_, err := m.Resolve(context.Background(), item.ID, models.ResolutionEdited, "rewrote second paragraph")
	require.NoError(t, err)

	stored, err := st.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusApproved, stored.Status)
	require.NotNil(t, stored.AccuracyScore)
	assert.Equal(t, editedScore, *stored.AccuracyScore)
}

func TestResolve_EscalatedLeavesReportPending(t *testing.T) {
	st := store.NewMemoryStore()
	m := newTestMachine(st)
	report, item := seedReviewableReport(t, st, 40)

	resolved, err := m.Resolve(context.Background(), item.ID, models.ResolutionEscalated, "needs lieutenant review")
	require.NoError(t, err)
	assert.Equal(t, models.QueueStatusResolved, resolved.Status)

	stored, err := st.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPendingReview, stored.Status)
}

func TestResolve_ResolvedItemsAreImmutable(t *testing.T) {
	st := store.NewMemoryStore()
	m := newTestMachine(st)
	_, item := seedReviewableReport(t, st, 70)

	first, err := m.Resolve(context.Background(), item.ID, models.ResolutionApproved, "")
	require.NoError(t, err)

	_, err = m.Resolve(context.Background(), item.ID, models.ResolutionReturned, "changed my mind")
	var stateErr *models.InvalidStateError
	require.ErrorAs(t, err, &stateErr)

	// The failed attempt left the item untouched.
	stored, err := st.GetQueueItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.Resolution, *stored.Resolution)
	assert.Equal(t, first.ResolvedAt.Unix(), stored.ResolvedAt.Unix())
}

func TestResolve_UnknownResolution(t *testing.T) {
	st := store.NewMemoryStore()
	m := newTestMachine(st)
	_, item := seedReviewableReport(t, st, 70)

	_, err := m.Resolve(context.Background(), item.ID, "shredded", "")
	assert.Error(t, err)
}

type captureNotifier struct {
	events []notify.Event
}

func (c *captureNotifier) Publish(ctx context.Context, e notify.Event) {
	c.events = append(c.events, e)
}

func TestNotifyDueSoon(t *testing.T) {
	st := store.NewMemoryStore()
	captured := &captureNotifier{}
	m := NewMachine(st, captured, testThreshold)

	now := time.Now().UTC()
	ctx := context.Background()

	seed := func(id string, due time.Time, status string) {
		require.NoError(t, st.CreateQueueItem(ctx, &models.ReviewQueueItem{
			ID:            id,
			OrgID:         "org-1",
			ReportID:      uuid.NewString(),
			AccuracyScore: 70,
			Status:        status,
			Priority:      models.PriorityNormal,
			DueDate:       due,
			CreatedAt:     now,
		}))
	}
	seed("overdue", now.Add(-time.Hour), models.QueueStatusPending)
	seed("due-soon", now.Add(2*time.Hour), models.QueueStatusInReview)
	seed("comfortable", now.Add(24*time.Hour), models.QueueStatusPending)
	seed("resolved", now.Add(-time.Hour), models.QueueStatusResolved)

	n, err := m.NotifyDueSoon(ctx, 4*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.Len(t, captured.events, 2)
	assert.Equal(t, "overdue", captured.events[0].QueueItemID)
	assert.Equal(t, "due-soon", captured.events[1].QueueItemID)
	for _, e := range captured.events {
		assert.Equal(t, notify.EventReviewDueSoon, e.Type)
	}
}
