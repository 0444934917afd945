package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/pipeline"
	"github.com/yahyashhah/ninjaTextAi-sub001/internal/store"
)

type ReportHandler struct {
	pipeline *pipeline.Pipeline
	store    store.Store
}

func NewReportHandler(p *pipeline.Pipeline, st store.Store) *ReportHandler {
	return &ReportHandler{pipeline: p, store: st}
}

// Submit runs a narrative through the accuracy-gated pipeline.
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Narrative  string `json:"narrative"`
		TemplateID string `json:"templateId"`
		ReportType string `json:"reportType"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Narrative == "" {
		writeError(w, http.StatusBadRequest, "narrative is required")
		return
	}
	if req.ReportType == "" {
		req.ReportType = "incident"
	}

	result, err := h.pipeline.SubmitNarrative(r.Context(), orgID(r), reviewerID(r), req.ReportType, req.TemplateID, req.Narrative)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// AddInformation applies one round of narrative augmentation for a missing
// field and re-validates.
func (h *ReportHandler) AddInformation(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "reportId")
	var req struct {
		Field string `json:"field"`
		Text  string `json:"text"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Field == "" || req.Text == "" {
		writeError(w, http.StatusBadRequest, "field and text are required")
		return
	}

	result, err := h.pipeline.AddInformation(r.Context(), reportID, req.Field, req.Text)
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Get returns the current state of one report.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	report, err := h.store.GetReport(r.Context(), chi.URLParam(r, "reportId"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	writeJSON(w, http.StatusOK, report)
}
