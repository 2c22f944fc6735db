package api

import (
	"net/http"
)

// ListJobsHandler lists open positions.
// @Summary List jobs
// @Tags jobs
// @Produce json
// @Success 200 {array} storage.Job
// @Failure 503 {object} ErrorResponse
// @Router /jobs [get]
func (a *API) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	jobs, err := a.service.ListJobs(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// BoardHandler returns the pipeline board: one column per stage, Failed excluded.
// @Summary Pipeline board
// @Tags pipeline
// @Produce json
// @Param job_id query string false "Only candidates scanned against this job"
// @Success 200 {array} pipeline.Column
// @Failure 400 {object} ErrorResponse
// @Router /pipeline [get]
func (a *API) BoardHandler(w http.ResponseWriter, r *http.Request) {
	jobID, err := parseOptionalUUID("job_id", r.URL.Query().Get("job_id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	cols, err := a.service.Board(r.Context(), jobID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cols)
}
