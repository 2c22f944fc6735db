// Package pipeline governs which stage a candidate occupies and how it changes.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"talent-pipeline/internal/storage"
)

// ErrInvalidStage is returned for a stage name the pipeline does not recognise.
var ErrInvalidStage = errors.New("invalid stage")

// InvalidStageError carries the rejected stage name.
type InvalidStageError struct {
	Stage string
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("invalid stage: %q", e.Stage)
}

func (e *InvalidStageError) Unwrap() error { return ErrInvalidStage }

// TransitionRecorder observes successful stage changes.
type TransitionRecorder interface {
	StageTransition(stage storage.Stage)
}

// Machine validates and applies stage transitions. It imposes no ordering
// between stages: any pipeline stage may follow any other.
type Machine struct {
	store    storage.CandidateStore
	recorder TransitionRecorder
	logger   *zap.Logger
}

func NewMachine(store storage.CandidateStore, recorder TransitionRecorder, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		store:    store,
		recorder: recorder,
		logger:   logger.Named("pipeline"),
	}
}

// InitialStage is the stage of a freshly ingested candidate.
func InitialStage(extracted bool) storage.Stage {
	if extracted {
		return storage.StageScreening
	}
	return storage.StageFailed
}

// ParseTarget resolves a requested stage name. Failed is not a valid target:
// it is only ever assigned at ingestion.
func ParseTarget(name string) (storage.Stage, error) {
	stage, ok := storage.ParseStage(name)
	if !ok || !stage.InPipeline() {
		return "", &InvalidStageError{Stage: name}
	}
	return stage, nil
}

// Move sets the candidate's stage. The stage name is validated before the store is touched.
func (m *Machine) Move(ctx context.Context, id uuid.UUID, stageName string) (*storage.Candidate, error) {
	stage, err := ParseTarget(stageName)
	if err != nil {
		return nil, err
	}

	c, err := m.store.UpdateCandidateStage(ctx, id, stage)
	if err != nil {
		return nil, err
	}

	if m.recorder != nil {
		m.recorder.StageTransition(stage)
	}
	m.logger.Info("candidate moved",
		zap.Stringer("candidate_id", id),
		zap.Stringer("stage", stage),
	)
	return c, nil
}

// Column is one board column and the candidates in it.
type Column struct {
	Stage      storage.Stage        `json:"stage"`
	Candidates []*storage.Candidate `json:"candidates"`
}

// Board groups candidates into the pipeline columns, preserving their order.
// Candidates outside the pipeline (Failed) are left out.
func Board(candidates []*storage.Candidate) []Column {
	cols := make([]Column, len(storage.PipelineStages))
	index := make(map[storage.Stage]int, len(cols))
	for i, s := range storage.PipelineStages {
		cols[i] = Column{Stage: s, Candidates: []*storage.Candidate{}}
		index[s] = i
	}
	for _, c := range candidates {
		if i, ok := index[c.Stage]; ok {
			cols[i].Candidates = append(cols[i].Candidates, c)
		}
	}
	return cols
}
