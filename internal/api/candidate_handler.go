package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"talent-pipeline/internal/recruiting"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// multipartOverhead is the body allowance on top of the file limit for
// boundaries, part headers and the text fields.
const multipartOverhead = 1 << 20

// MoveRequest is the body of a stage change.
type MoveRequest struct {
	Stage string `json:"stage" validate:"required,max=32"`
}

// IngestCandidateHandler uploads a résumé and creates a candidate.
// @Summary Ingest a résumé
// @Description Extracts text, skills and email from the uploaded document, scores it and creates a candidate.
// @Description Unreadable documents still create a candidate in the Failed stage.
// @Tags candidates
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Résumé (PDF, DOCX, DOC, RTF, ODT or TXT)"
// @Param full_name formData string false "Candidate name"
// @Param email formData string false "Contact email, overrides the extracted one"
// @Param job_id formData string false "Job to score against"
// @Success 201 {object} storage.Candidate
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /candidates [post]
func (a *API) IngestCandidateHandler(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, a.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(a.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		msg := "invalid multipart form"
		if errors.As(err, &tooLarge) {
			msg = a.tooLargeMessage()
		}
		a.writeError(w, r, &recruiting.ValidationError{Field: "file", Message: msg})
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		a.writeError(w, r, &recruiting.ValidationError{Field: "file", Message: "is required"})
		return
	}
	defer file.Close()
	if header.Size > a.maxUploadBytes {
		a.writeError(w, r, &recruiting.ValidationError{Field: "file", Message: a.tooLargeMessage()})
		return
	}

	jobID, err := parseOptionalUUID("job_id", r.FormValue("job_id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	c, err := a.service.IngestCandidate(r.Context(), recruiting.IngestRequest{
		Filename: header.Filename,
		Document: file,
		FullName: r.FormValue("full_name"),
		Email:    r.FormValue("email"),
		JobID:    jobID,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.logger.Debug("upload handled",
		zap.String("filename", header.Filename),
		zap.Int64("size", header.Size),
		zap.Duration("elapsed", time.Since(startTime)),
	)
	writeJSON(w, http.StatusCreated, c)
}

// ListCandidatesHandler lists candidates newest first.
// @Summary List candidates
// @Tags candidates
// @Produce json
// @Param stage query string false "Screening, Interview, Offer, Rejected or Failed"
// @Param job_id query string false "Only candidates scanned against this job"
// @Success 200 {array} storage.Candidate
// @Failure 400 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /candidates [get]
func (a *API) ListCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	req, err := listRequest(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	candidates, err := a.service.ListCandidates(r.Context(), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

// GetCandidateHandler returns one candidate.
// @Summary Get a candidate
// @Tags candidates
// @Produce json
// @Param id path string true "Candidate ID"
// @Success 200 {object} storage.Candidate
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /candidates/{id} [get]
func (a *API) GetCandidateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	c, err := a.service.GetCandidate(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// MoveCandidateHandler changes a candidate's pipeline stage.
// @Summary Move a candidate
// @Description Any pipeline stage may follow any other. Failed is not a valid target.
// @Tags candidates
// @Accept json
// @Produce json
// @Param id path string true "Candidate ID"
// @Param request body MoveRequest true "Target stage"
// @Success 200 {object} storage.Candidate
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /candidates/{id}/stage [patch]
func (a *API) MoveCandidateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.writeError(w, r, &recruiting.ValidationError{Field: "body", Message: "invalid JSON"})
		return
	}
	if err := a.validate.Struct(req); err != nil {
		a.writeError(w, r, &recruiting.ValidationError{Field: "stage", Message: "is required"})
		return
	}

	c, err := a.service.MoveCandidate(r.Context(), id, req.Stage)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ExportCandidatesHandler downloads the filtered candidate list as a spreadsheet.
// @Summary Export candidates
// @Tags candidates
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param stage query string false "Stage filter"
// @Param job_id query string false "Job filter"
// @Success 200 {file} file
// @Failure 400 {object} ErrorResponse
// @Router /candidates/export [get]
func (a *API) ExportCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	req, err := listRequest(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	data, err := a.service.Export(r.Context(), req)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	filename := fmt.Sprintf("candidates-%s.xlsx", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *API) tooLargeMessage() string {
	if a.maxUploadBytes < 1<<20 {
		return fmt.Sprintf("file too large (max %d bytes)", a.maxUploadBytes)
	}
	return fmt.Sprintf("file too large (max %d MB)", a.maxUploadBytes>>20)
}

func listRequest(r *http.Request) (recruiting.ListRequest, error) {
	q := r.URL.Query()
	jobID, err := parseOptionalUUID("job_id", q.Get("job_id"))
	if err != nil {
		return recruiting.ListRequest{}, err
	}
	return recruiting.ListRequest{Stage: q.Get("stage"), JobID: jobID}, nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &recruiting.ValidationError{Field: "id", Message: "must be a UUID"}
	}
	return id, nil
}
