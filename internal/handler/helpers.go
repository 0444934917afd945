package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/yahyashhah/ninjaTextAi-sub001/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// statusForError maps the pipeline's error taxonomy to HTTP status codes.
// State-machine and concurrency errors reach the caller unmodified since
// they represent precondition violations the caller must resolve.
// Anything unclassified is a store or infrastructure failure.
func statusForError(err error) int {
	var notFound *models.NotFoundError
	var invalidState *models.InvalidStateError
	var concurrent *models.ConcurrentModificationError
	var invalidTemplate *models.InvalidTemplateError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &invalidState):
		return http.StatusConflict
	case errors.As(err, &concurrent):
		return http.StatusConflict
	case errors.As(err, &invalidTemplate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// orgID and reviewerID come from headers; identity management lives outside
// this service.
func orgID(r *http.Request) string {
	if v := r.Header.Get("X-Org-ID"); v != "" {
		return v
	}
	return "default"
}

func reviewerID(r *http.Request) string {
	return r.Header.Get("X-Reviewer-ID")
}
