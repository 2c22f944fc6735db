package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"talent-pipeline/internal/pipeline"
	"talent-pipeline/internal/recruiting"
	"talent-pipeline/internal/storage"
)

// Error kinds reported in error bodies.
const (
	kindValidation       = "validation"
	kindInvalidStage     = "invalid_stage"
	kindNotFound         = "not_found"
	kindStoreUnavailable = "store_unavailable"
	kindInternal         = "internal"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	ID    string `json:"id,omitempty"`
}

// HTTPStatus maps a service error to its status code.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidStage), errors.Is(err, recruiting.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, pipeline.ErrInvalidStage):
		return kindInvalidStage
	case errors.Is(err, recruiting.ErrValidation):
		return kindValidation
	case errors.Is(err, storage.ErrNotFound):
		return kindNotFound
	case errors.Is(err, storage.ErrStoreUnavailable):
		return kindStoreUnavailable
	default:
		return kindInternal
	}
}

func errorID(err error) string {
	var candidateErr *recruiting.CandidateNotFoundError
	if errors.As(err, &candidateErr) {
		return candidateErr.ID.String()
	}
	var jobErr *recruiting.JobNotFoundError
	if errors.As(err, &jobErr) {
		return jobErr.ID.String()
	}
	return ""
}

func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	body := ErrorResponse{Error: err.Error(), Kind: errorKind(err), ID: errorID(err)}
	if status == http.StatusInternalServerError {
		a.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		// Internal details stay in the log.
		body.Error = http.StatusText(status)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseOptionalUUID(field, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, &recruiting.ValidationError{Field: field, Message: "must be a UUID"}
	}
	return &id, nil
}
