package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a candidate or job id does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable wraps any failure of the underlying persistence layer.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// CandidateStore persists candidate records.
// Single-record updates are expected to be atomic; concurrent stage updates
// to the same candidate resolve as last write wins.
type CandidateStore interface {
	// CreateCandidate assigns ID and timestamps and stores the record.
	CreateCandidate(ctx context.Context, c *Candidate) error
	GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error)
	// ListCandidates returns matching candidates, newest first.
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]*Candidate, error)
	UpdateCandidateStage(ctx context.Context, id uuid.UUID, stage Stage) (*Candidate, error)
}

// JobRegistry is the read-only view of open positions.
type JobRegistry interface {
	GetJob(ctx context.Context, id uuid.UUID) (*Job, error)
	ListJobs(ctx context.Context) ([]*Job, error)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
