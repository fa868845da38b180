package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type createIngestionRequest struct {
	DocumentID string `json:"documentId" validate:"required"`
}

func (rt *Router) createIngestion(w http.ResponseWriter, r *http.Request) {
	var req createIngestionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	process, err := rt.ingestion.Create(r.Context(), req.DocumentID, currentPrincipal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, process)
}

func (rt *Router) listIngestions(w http.ResponseWriter, r *http.Request) {
	req, err := pageFromQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	page, err := rt.ingestion.FindAll(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (rt *Router) getIngestion(w http.ResponseWriter, r *http.Request) {
	process, err := rt.ingestion.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, process)
}

// reprocessFailed runs synchronously; the response lists the records whose
// retry attempt completed.
func (rt *Router) reprocessFailed(w http.ResponseWriter, r *http.Request) {
	processes, err := rt.ingestion.ReprocessFailed(r.Context(), currentPrincipal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, processes)
}
