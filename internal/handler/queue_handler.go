package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/queue"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/store"
)

type QueueHandler struct {
	machine *queue.Machine
	stats   *queue.Stats
	store   store.Store
}

func NewQueueHandler(machine *queue.Machine, stats *queue.Stats, st store.Store) *QueueHandler {
	return &QueueHandler{machine: machine, stats: stats, store: st}
}

// List returns the reviewer worklist, high priority first, then due date.
func (h *QueueHandler) List(w http.ResponseWriter, r *http.Request) {
	openOnly := r.URL.Query().Get("all") == ""
	items, err := h.store.ListQueueItems(r.Context(), orgID(r), openOnly)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": len(items),
	})
}

// Act applies a reviewer action to one queue item: assign, or resolve with
// approve/return/edit/escalate.
func (h *QueueHandler) Act(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemId")
	var req struct {
		Action string `json:"action"`
		Notes  string `json:"notes"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var item *models.ReviewQueueItem
	var err error
	switch req.Action {
	case "assign":
		if reviewerID(r) == "" {
			writeError(w, http.StatusBadRequest, "X-Reviewer-ID header is required")
			return
		}
		item, err = h.machine.Assign(r.Context(), itemID, reviewerID(r))
	case "approve":
		item, err = h.machine.Resolve(r.Context(), itemID, models.ResolutionApproved, req.Notes)
	case "return":
		item, err = h.machine.Resolve(r.Context(), itemID, models.ResolutionReturned, req.Notes)
	case "edit":
		item, err = h.machine.Resolve(r.Context(), itemID, models.ResolutionEdited, req.Notes)
	case "escalate":
		item, err = h.machine.Resolve(r.Context(), itemID, models.ResolutionEscalated, req.Notes)
	default:
		writeError(w, http.StatusBadRequest, "unknown action "+req.Action)
		return
	}
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Stats returns triage health metrics for the organization.
func (h *QueueHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Snapshot(r.Context(), orgID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Reconcile recomputes the organization's counters from the collections.
func (h *QueueHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	agg, err := h.stats.Reconcile(r.Context(), orgID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, agg)
}
