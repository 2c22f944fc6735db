package pipeline

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"talent-pipeline/internal/storage"
)

type countingRecorder struct {
	stages []storage.Stage
}

func (r *countingRecorder) StageTransition(stage storage.Stage) {
	r.stages = append(r.stages, stage)
}

func newCandidate(t *testing.T, store *storage.MemoryStore, stage storage.Stage) *storage.Candidate {
	t.Helper()
	c := &storage.Candidate{FullName: "Jane Doe", Stage: stage}
	require.NoError(t, store.CreateCandidate(context.Background(), c))
	return c
}

func TestMove_AnyOrderIsAllowed(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewMachine(store, nil, nil)
	c := newCandidate(t, store, storage.StageScreening)

	path := []string{"Offer", "Screening", "Rejected", "Interview", "Rejected", "Offer"}
	for _, stage := range path {
		updated, err := m.Move(context.Background(), c.ID, stage)
		require.NoError(t, err, stage)
		assert.Equal(t, storage.Stage(stage), updated.Stage)
	}
}

func TestMove_OfferRightAfterCreation(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewMachine(store, nil, nil)

	for _, start := range []storage.Stage{storage.StageScreening, storage.StageRejected, storage.StageFailed} {
		c := newCandidate(t, store, start)

		updated, err := m.Move(context.Background(), c.ID, "Offer")
		require.NoError(t, err)
		assert.Equal(t, storage.StageOffer, updated.Stage)
	}
}

func TestMove_CaseInsensitive(t *testing.T) {
	store := storage.NewMemoryStore()
	m := NewMachine(store, nil, nil)
	c := newCandidate(t, store, storage.StageScreening)

	updated, err := m.Move(context.Background(), c.ID, "  interview ")
	require.NoError(t, err)
	assert.Equal(t, storage.StageInterview, updated.Stage)
}

func TestMove_InvalidStageLeavesCandidateUntouched(t *testing.T) {
	store := storage.NewMemoryStore()
	rec := &countingRecorder{}
	m := NewMachine(store, rec, nil)
	c := newCandidate(t, store, storage.StageInterview)

	for _, bad := range []string{"Bogus", "", "Failed", "Hired"} {
		_, err := m.Move(context.Background(), c.ID, bad)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidStage)

		var stageErr *InvalidStageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, bad, stageErr.Stage)
	}

	got, err := store.GetCandidate(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, storage.StageInterview, got.Stage)
	assert.Empty(t, rec.stages)
}

func TestMove_InvalidStageCheckedBeforeLookup(t *testing.T) {
	m := NewMachine(storage.NewMemoryStore(), nil, nil)

	_, err := m.Move(context.Background(), uuid.New(), "Bogus")
	assert.ErrorIs(t, err, ErrInvalidStage)
	assert.NotErrorIs(t, err, storage.ErrNotFound)
}

func TestMove_UnknownCandidate(t *testing.T) {
	m := NewMachine(storage.NewMemoryStore(), nil, nil)

	_, err := m.Move(context.Background(), uuid.New(), "Offer")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMove_RecordsTransition(t *testing.T) {
	store := storage.NewMemoryStore()
	rec := &countingRecorder{}
	m := NewMachine(store, rec, nil)
	c := newCandidate(t, store, storage.StageScreening)

	_, err := m.Move(context.Background(), c.ID, "Interview")
	require.NoError(t, err)
	_, err = m.Move(context.Background(), c.ID, "Offer")
	require.NoError(t, err)

	assert.Equal(t, []storage.Stage{storage.StageInterview, storage.StageOffer}, rec.stages)
}

func TestInitialStage(t *testing.T) {
	assert.Equal(t, storage.StageScreening, InitialStage(true))
	assert.Equal(t, storage.StageFailed, InitialStage(false))
}

func TestBoard(t *testing.T) {
	a := &storage.Candidate{FullName: "a", Stage: storage.StageScreening}
	b := &storage.Candidate{FullName: "b", Stage: storage.StageOffer}
	c := &storage.Candidate{FullName: "c", Stage: storage.StageFailed}
	d := &storage.Candidate{FullName: "d", Stage: storage.StageScreening}

	cols := Board([]*storage.Candidate{a, b, c, d})

	require.Len(t, cols, 4)
	assert.Equal(t, storage.StageScreening, cols[0].Stage)
	assert.Equal(t, []*storage.Candidate{a, d}, cols[0].Candidates)
	assert.Empty(t, cols[1].Candidates)
	assert.Equal(t, []*storage.Candidate{b}, cols[2].Candidates)
	assert.Equal(t, storage.StageRejected, cols[3].Stage)
	assert.NotNil(t, cols[3].Candidates)

	for _, col := range cols {
		for _, cand := range col.Candidates {
			assert.NotEqual(t, storage.StageFailed, cand.Stage)
		}
	}
}
