package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps candidates and jobs in process memory.
// It backs the "memory" store mode and the package tests.
type MemoryStore struct {
	mu         sync.RWMutex
	candidates map[uuid.UUID]*memRecord
	jobs       []*Job
	seq        uint64
	now        func() time.Time
}

type memRecord struct {
	seq       uint64
	candidate Candidate
}

// NewMemoryStore returns an empty store seeded with the given jobs.
func NewMemoryStore(jobs ...*Job) *MemoryStore {
	s := &MemoryStore{
		candidates: make(map[uuid.UUID]*memRecord),
		now:        time.Now,
	}
	for _, j := range jobs {
		s.SaveJob(j)
	}
	return s
}

// SetClock replaces the time source used for created_at/updated_at.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) CreateCandidate(ctx context.Context, c *Candidate) error {
	if err := ctx.Err(); err != nil {
		return unavailable("create candidate", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = uuid.New()
	c.CreatedAt = s.now().UTC()
	c.UpdatedAt = c.CreatedAt
	s.seq++
	s.candidates[c.ID] = &memRecord{seq: s.seq, candidate: cloneCandidate(c)}
	return nil
}

func (s *MemoryStore) GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get candidate", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneCandidate(&rec.candidate)
	return &c, nil
}

func (s *MemoryStore) ListCandidates(ctx context.Context, filter CandidateFilter) ([]*Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("list candidates", err)
	}
	// Snapshot under the read lock; stage updates mutate records in place.
	s.mu.RLock()
	recs := make([]memRecord, 0, len(s.candidates))
	for _, rec := range s.candidates {
		if filter.matches(&rec.candidate) {
			recs = append(recs, memRecord{seq: rec.seq, candidate: cloneCandidate(&rec.candidate)})
		}
	}
	s.mu.RUnlock()

	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if !a.candidate.CreatedAt.Equal(b.candidate.CreatedAt) {
			return a.candidate.CreatedAt.After(b.candidate.CreatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]*Candidate, len(recs))
	for i := range recs {
		out[i] = &recs[i].candidate
	}
	return out, nil
}

func (s *MemoryStore) UpdateCandidateStage(ctx context.Context, id uuid.UUID, stage Stage) (*Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("update candidate stage", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	rec.candidate.Stage = stage
	rec.candidate.UpdatedAt = s.now().UTC()
	c := cloneCandidate(&rec.candidate)
	return &c, nil
}

// SaveJob inserts or replaces a job. A zero ID is replaced with a fresh one.
func (s *MemoryStore) SaveJob(j *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	cp := cloneJob(j)
	for i, existing := range s.jobs {
		if existing.ID == j.ID {
			s.jobs[i] = &cp
			return
		}
	}
	s.jobs = append(s.jobs, &cp)
}

func (s *MemoryStore) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("get job", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, j := range s.jobs {
		if j.ID == id {
			cp := cloneJob(j)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListJobs(ctx context.Context) ([]*Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, unavailable("list jobs", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Job, len(s.jobs))
	for i, j := range s.jobs {
		cp := cloneJob(j)
		out[i] = &cp
	}
	return out, nil
}

func cloneCandidate(c *Candidate) Candidate {
	cp := *c
	cp.Scoring.Skills = append([]string{}, c.Scoring.Skills...)
	if c.JobID != nil {
		id := *c.JobID
		cp.JobID = &id
	}
	if c.RawText != nil {
		text := *c.RawText
		cp.RawText = &text
	}
	return cp
}

func cloneJob(j *Job) Job {
	cp := *j
	cp.Requirements.Skills = append([]string{}, j.Requirements.Skills...)
	return cp
}
