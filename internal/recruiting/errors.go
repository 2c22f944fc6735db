package recruiting

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"talent-pipeline/internal/storage"
)

// ErrValidation marks a malformed request.
var ErrValidation = errors.New("validation failed")

// CandidateNotFoundError indicates the candidate id does not exist.
type CandidateNotFoundError struct {
	ID uuid.UUID
}

func (e *CandidateNotFoundError) Error() string {
	return fmt.Sprintf("candidate not found: %s", e.ID)
}

func (e *CandidateNotFoundError) Unwrap() error { return storage.ErrNotFound }

// JobNotFoundError indicates the job id does not exist.
type JobNotFoundError struct {
	ID uuid.UUID
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job not found: %s", e.ID)
}

func (e *JobNotFoundError) Unwrap() error { return storage.ErrNotFound }

// ValidationError indicates request validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
