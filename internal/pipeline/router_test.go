package pipeline

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

func newTestRouter(st store.Store) *Router {
	return NewRouter(st, notify.NopNotifier{}, testThreshold, 48*time.Hour)
}

func seedReport(t *testing.T, st store.Store) *models.ReportDraft {
	t.Helper()
	now := time.Now().UTC()
	report := &models.ReportDraft{
		ID:         uuid.NewString(),
		OrgID:      "org-1",
		ReportType: "incident",
		Narrative:  "Officer responded to a call.",
		Status:     models.ReportStatusDrafted,
		CreatedBy:  "officer-7",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, st.CreateReport(context.Background(), report))
	return report
}

func TestRoute_AutoApprovesAtOrAboveThreshold(t *testing.T) {
	st := store.NewMemoryStore()
	r := newTestRouter(st)
	report := seedReport(t, st)

	decision, err := r.Route(context.Background(), report, testThreshold)
	require.NoError(t, err)

	assert.True(t, decision.AutoApprove)
	assert.Nil(t, decision.ReviewItem)

	stored, err := st.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusSubmitted, stored.Status)
	require.NotNil(t, stored.AccuracyScore)
	assert.Equal(t, testThreshold, *stored.AccuracyScore)

	item, err := st.FindOpenQueueItem(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Nil(t, item, "no queue item for auto-approved report")
}

func TestRoute_BelowThresholdCreatesQueueItem(t *testing.T) {
	st := store.NewMemoryStore()
	r := newTestRouter(st)
	report := seedReport(t, st)

	before := time.Now().UTC()
	decision, err := r.Route(context.Background(), report, 62)
	require.NoError(t, err)

	assert.False(t, decision.AutoApprove)
	require.NotNil(t, decision.ReviewItem)
	item := decision.ReviewItem

	assert.Equal(t, models.QueueStatusPending, item.Status)
	assert.Equal(t, report.ID, item.ReportID)
	assert.Equal(t, 62.0, item.AccuracyScore)
	assert.WithinDuration(t, before.Add(48*time.Hour), item.DueDate, 5*time.Second)

	stored, err := st.GetReport(context.Background(), report.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusPendingReview, stored.Status)

	agg, err := st.GetOrgAggregate(context.Background(), "org-1")
	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, 1, agg.LowAccuracyCount)
}

func TestRoute_PriorityBands(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{30, models.PriorityHigh},
		{59.9, models.PriorityHigh},
		{60, models.PriorityNormal},
		{69.9, models.PriorityNormal},
		{70, models.PriorityLow},
		{84.9, models.PriorityLow},
	}
	for _, tt := range tests {
		st := store.NewMemoryStore()
		r := newTestRouter(st)
		report := seedReport(t, st)

		decision, err := r.Route(context.Background(), report, tt.score)
		require.NoError(t, err)
		require.NotNil(t, decision.ReviewItem, "score %v should be review-bound", tt.score)
		assert.Equal(t, tt.want, decision.ReviewItem.Priority, "score %v", tt.score)
	}
}

func TestRoute_RacingRoutersCreateOneItem(t *testing.T) {
	st := store.NewMemoryStore()
	r := newTestRouter(st)
	report := seedReport(t, st)

	first, err := r.Route(context.Background(), report, 50)
	require.NoError(t, err)
	require.NotNil(t, first.ReviewItem)

	// A second process routing from a stale drafted read loses the
	// conditional status write and never reaches item creation.
	stale := *report
	stale.Status = models.ReportStatusDrafted
	_, err = r.Route(context.Background(), &stale, 55)
	var concurrent *models.ConcurrentModificationError
	require.ErrorAs(t, err, &concurrent)

	items, err := st.ListQueueItems(context.Background(), "org-1", false)
	require.NoError(t, err)
	assert.Len(t, items, 1, "at most one open queue item per report")

	agg, err := st.GetOrgAggregate(context.Background(), "org-1")
	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, 1, agg.LowAccuracyCount, "the losing router must not double-count")
}
