package handler

import (
	"net/http"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/queue"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/store"
)

type DashboardHandler struct {
	store store.Store
	stats *queue.Stats
}

func NewDashboardHandler(st store.Store, stats *queue.Stats) *DashboardHandler {
	return &DashboardHandler{store: st, stats: stats}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	org := orgID(r)

	templates, _ := h.store.ListTemplates(r.Context(), org)
	reportCount, _ := h.store.CountReports(r.Context(), org)
	agg, _ := h.store.GetOrgAggregate(r.Context(), org)
	triage, err := h.stats.Snapshot(r.Context(), org)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	lowAccuracy := 0
	if agg != nil {
		lowAccuracy = agg.LowAccuracyCount
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"templateCount":    len(templates),
		"reportCount":      reportCount,
		"lowAccuracyCount": lowAccuracy,
		"triage":           triage,
	})
}
