package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
)

// MemoryStore keeps everything in process memory. It mirrors the sqlite
// store's conditional-update semantics so tests exercise the same races the
// pipeline sees in production.
type MemoryStore struct {
	mu        sync.Mutex
	reports   map[string]models.ReportDraft
	templates map[string]models.TemplateDefinition
	items     map[string]models.ReviewQueueItem
	orgs      map[string]models.OrganizationAggregate
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports:   make(map[string]models.ReportDraft),
		templates: make(map[string]models.TemplateDefinition),
		items:     make(map[string]models.ReviewQueueItem),
		orgs:      make(map[string]models.OrganizationAggregate),
	}
}

func (s *MemoryStore) Close() error { return nil }

// --- reports ---

func (s *MemoryStore) CreateReport(ctx context.Context, r *models.ReportDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = *r
	return nil
}

func (s *MemoryStore) GetReport(ctx context.Context, id string) (*models.ReportDraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reports[id]
	if !ok {
		return nil, nil
	}
	cp := r
	return &cp, nil
}

func (s *MemoryStore) UpdateReport(ctx context.Context, r *models.ReportDraft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = *r
	return nil
}

func (s *MemoryStore) UpdateReportConditional(ctx context.Context, r *models.ReportDraft, expectedStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.reports[r.ID]
	if !ok || current.Status != expectedStatus {
		return &models.ConcurrentModificationError{Entity: "report", ID: r.ID}
	}
	s.reports[r.ID] = *r
	return nil
}

func (s *MemoryStore) CountReports(ctx context.Context, orgID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.reports {
		if r.OrgID == orgID {
			n++
		}
	}
	return n, nil
}

// --- templates ---

func (s *MemoryStore) CreateTemplate(ctx context.Context, t *models.TemplateDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = *t
	return nil
}

func (s *MemoryStore) GetTemplate(ctx context.Context, id string) (*models.TemplateDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, nil
	}
	cp := t
	return &cp, nil
}

func (s *MemoryStore) ListTemplates(ctx context.Context, orgID string) ([]models.TemplateDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TemplateDefinition
	for _, t := range s.templates {
		if t.OrgID == orgID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateTemplate(ctx context.Context, t *models.TemplateDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates[t.ID] = *t
	return nil
}

// --- queue items ---

func (s *MemoryStore) CreateQueueItem(ctx context.Context, item *models.ReviewQueueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = *item
	return nil
}

func (s *MemoryStore) GetQueueItem(ctx context.Context, id string) (*models.ReviewQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	cp := item
	return &cp, nil
}

func (s *MemoryStore) UpdateQueueItemConditional(ctx context.Context, item *models.ReviewQueueItem, expectedStatus string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.items[item.ID]
	if !ok || current.Status != expectedStatus {
		return &models.ConcurrentModificationError{Entity: "queue item", ID: item.ID}
	}
	s.items[item.ID] = *item
	return nil
}

func (s *MemoryStore) FindOpenQueueItem(ctx context.Context, reportID string) (*models.ReviewQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ReportID == reportID && item.Status != models.QueueStatusResolved {
			cp := item
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemoryStore) ListQueueItems(ctx context.Context, orgID string, openOnly bool) ([]models.ReviewQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ReviewQueueItem
	for _, item := range s.items {
		if item.OrgID != orgID {
			continue
		}
		if openOnly && item.Status == models.QueueStatusResolved {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		pi, pj := priorityRank(out[i].Priority), priorityRank(out[j].Priority)
		if pi != pj {
			return pi < pj
		}
		return out[i].DueDate.Before(out[j].DueDate)
	})
	return out, nil
}

func (s *MemoryStore) ListDueBefore(ctx context.Context, cutoff time.Time) ([]models.ReviewQueueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ReviewQueueItem
	for _, item := range s.items {
		if item.Status != models.QueueStatusResolved && item.DueDate.Before(cutoff) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func priorityRank(p string) int {
	switch p {
	case models.PriorityHigh:
		return 0
	case models.PriorityNormal:
		return 1
	default:
		return 2
	}
}

// --- org aggregates ---

func (s *MemoryStore) GetOrgAggregate(ctx context.Context, orgID string) (*models.OrganizationAggregate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	agg, ok := s.orgs[orgID]
	if !ok {
		return nil, nil
	}
	cp := agg
	return &cp, nil
}

func (s *MemoryStore) IncrementOrgCounters(ctx context.Context, orgID string, reportDelta, lowAccuracyDelta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	agg := s.orgs[orgID]
	agg.OrgID = orgID
	agg.ReportCount += reportDelta
	agg.LowAccuracyCount += lowAccuracyDelta
	agg.UpdatedAt = time.Now().UTC()
	s.orgs[orgID] = agg
	return nil
}

func (s *MemoryStore) SetOrgAggregate(ctx context.Context, agg *models.OrganizationAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orgs[agg.OrgID] = *agg
	return nil
}
