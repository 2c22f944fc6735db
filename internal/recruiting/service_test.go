package recruiting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"talent-pipeline/internal/cv"
	"talent-pipeline/internal/metrics"
	"talent-pipeline/internal/pipeline"
	"talent-pipeline/internal/storage"
)

const sampleResume = "Jane Doe\njane@acme.com\nReact, SQL, Docker"

var backendJob = &storage.Job{
	ID:    uuid.MustParse("9b2f1d1e-3c4a-4b5d-8e6f-7a8b9c0d1e2f"),
	Title: "Backend Engineer",
	Requirements: storage.JobRequirements{
		Skills:          []string{"Golang", "SQL", "Docker"},
		ExperienceYears: 3,
	},
}

type failingParser struct{}

func (failingParser) ParseFile(context.Context, string, io.Reader) (*cv.ParsedCV, error) {
	return nil, fmt.Errorf("%w: pdf: no text layer", cv.ErrExtractionFailed)
}

type fixture struct {
	svc     *Service
	store   *storage.MemoryStore
	metrics *metrics.Recorder
}

func newFixture(t *testing.T, parser DocumentParser) fixture {
	t.Helper()
	store := storage.NewMemoryStore(backendJob)
	if parser == nil {
		parser = cv.NewCVParser(t.TempDir())
	}
	rec := metrics.New()
	svc, err := NewService(store, store, parser, cv.NewExtractor(cv.DefaultVocabulary), WithMetrics(rec))
	require.NoError(t, err)
	return fixture{svc: svc, store: store, metrics: rec}
}

func scrape(t *testing.T, r *metrics.Recorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func ingestText(t *testing.T, svc *Service, req IngestRequest, text string) *storage.Candidate {
	t.Helper()
	if req.Filename == "" {
		req.Filename = "resume.txt"
	}
	req.Document = strings.NewReader(text)
	c, err := svc.IngestCandidate(context.Background(), req)
	require.NoError(t, err)
	return c
}

func TestIngestCandidate_Untargeted(t *testing.T) {
	f := newFixture(t, nil)

	c := ingestText(t, f.svc, IngestRequest{FullName: "  Jane Doe "}, sampleResume)

	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, "Jane Doe", c.FullName)
	assert.Equal(t, "jane@acme.com", c.Email)
	assert.Equal(t, "New Applicant", c.Role)
	assert.Nil(t, c.JobID)
	assert.Equal(t, storage.StageScreening, c.Stage)
	assert.Equal(t, []string{"React", "SQL", "Docker"}, c.Scoring.Skills)
	assert.Equal(t, 5.0, c.Scoring.Score)
	assert.Contains(t, c.Scoring.Rationale, "3 relevant skills")
	require.NotNil(t, c.RawText)
	assert.Equal(t, sampleResume, *c.RawText)

	stored, err := f.store.GetCandidate(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Scoring, stored.Scoring)

	assert.Contains(t, scrape(t, f.metrics), `pipeline_candidates_ingested_total{outcome="scored"} 1`)
}

func TestIngestCandidate_SubmittedEmailWins(t *testing.T) {
	f := newFixture(t, nil)

	c := ingestText(t, f.svc, IngestRequest{Email: "jane.doe@home.org"}, sampleResume)

	assert.Equal(t, "jane.doe@home.org", c.Email)
}

func TestIngestCandidate_NoSkills(t *testing.T) {
	f := newFixture(t, nil)

	c := ingestText(t, f.svc, IngestRequest{}, "Gardener with twenty years of hedge experience.")

	assert.Equal(t, storage.StageScreening, c.Stage)
	assert.Equal(t, 0.0, c.Scoring.Score)
	assert.Empty(t, c.Scoring.Skills)
	assert.NotNil(t, c.Scoring.Skills)
	assert.Empty(t, c.Email)
}

func TestIngestCandidate_Targeted(t *testing.T) {
	f := newFixture(t, nil)

	c := ingestText(t, f.svc, IngestRequest{JobID: &backendJob.ID}, sampleResume)

	assert.Equal(t, "Backend Engineer", c.Role)
	require.NotNil(t, c.JobID)
	assert.Equal(t, backendJob.ID, *c.JobID)
	assert.Equal(t, []string{"SQL", "Docker"}, c.Scoring.Skills)
	assert.Equal(t, 6.7, c.Scoring.Score)
	assert.Contains(t, c.Scoring.Rationale, "Matched 2 of 3")
	assert.Contains(t, c.Scoring.Rationale, "Missing: Golang.")
}

func TestIngestCandidate_UnknownJob(t *testing.T) {
	f := newFixture(t, nil)
	missing := uuid.New()

	_, err := f.svc.IngestCandidate(context.Background(), IngestRequest{
		Filename: "resume.txt",
		Document: strings.NewReader(sampleResume),
		JobID:    &missing,
	})

	var notFound *JobNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, missing, notFound.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	all, err := f.store.ListCandidates(context.Background(), storage.CandidateFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestIngestCandidate_ExtractionFailure(t *testing.T) {
	f := newFixture(t, failingParser{})

	c, err := f.svc.IngestCandidate(context.Background(), IngestRequest{
		Filename: "scan.pdf",
		Document: bytes.NewReader([]byte("%PDF-1.4")),
		Email:    "ann@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, storage.StageFailed, c.Stage)
	assert.Equal(t, 0.0, c.Scoring.Score)
	assert.Empty(t, c.Scoring.Skills)
	assert.Nil(t, c.RawText)
	assert.Equal(t, "ann@example.com", c.Email)
	assert.NotEmpty(t, c.Scoring.Rationale)

	assert.Contains(t, scrape(t, f.metrics), `pipeline_candidates_ingested_total{outcome="failed"} 1`)
}

func TestIngestCandidate_UnsupportedFormatIsFailed(t *testing.T) {
	f := newFixture(t, nil)
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	c, err := f.svc.IngestCandidate(context.Background(), IngestRequest{
		Filename: "photo",
		Document: bytes.NewReader(png),
	})
	require.NoError(t, err)
	assert.Equal(t, storage.StageFailed, c.Stage)
}

func TestIngestCandidate_Validation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name  string
		req   IngestRequest
		field string
	}{
		{"missing document", IngestRequest{Filename: "resume.txt"}, "document"},
		{"bad email", IngestRequest{Document: strings.NewReader(sampleResume), Email: "not-an-email"}, "email"},
		{"long name", IngestRequest{Document: strings.NewReader(sampleResume), FullName: strings.Repeat("x", 201)}, "fullname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.IngestCandidate(context.Background(), tt.req)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	all, err := f.store.ListCandidates(context.Background(), storage.CandidateFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNewService_EmailRule(t *testing.T) {
	store := storage.NewMemoryStore()
	svc, err := NewService(store, store, cv.NewCVParser(t.TempDir()), cv.NewExtractor(nil))
	require.NoError(t, err)
	require.NotNil(t, svc)

	c, err := svc.IngestCandidate(context.Background(), IngestRequest{
		Filename: "resume.txt",
		Document: strings.NewReader(sampleResume),
		Email:    "ops@example.co-op",
	})
	require.NoError(t, err)
	assert.Equal(t, "ops@example.co-op", c.Email)
}

func TestIngestCandidate_StoreUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.IngestCandidate(ctx, IngestRequest{
		Filename: "resume.txt",
		Document: strings.NewReader(sampleResume),
	})
	require.Error(t, err)
}

func TestListCandidates(t *testing.T) {
	f := newFixture(t, nil)
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	f.store.SetClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	})

	first := ingestText(t, f.svc, IngestRequest{}, sampleResume)
	second := ingestText(t, f.svc, IngestRequest{JobID: &backendJob.ID}, sampleResume)

	all, err := f.svc.ListCandidates(context.Background(), ListRequest{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID, "newest first")
	assert.Equal(t, first.ID, all[1].ID)

	byJob, err := f.svc.ListCandidates(context.Background(), ListRequest{JobID: &backendJob.ID})
	require.NoError(t, err)
	require.Len(t, byJob, 1)
	assert.Equal(t, second.ID, byJob[0].ID)

	_, err = f.svc.MoveCandidate(context.Background(), first.ID, "Offer")
	require.NoError(t, err)

	offers, err := f.svc.ListCandidates(context.Background(), ListRequest{Stage: "offer"})
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, first.ID, offers[0].ID)

	failed, err := f.svc.ListCandidates(context.Background(), ListRequest{Stage: "Failed"})
	require.NoError(t, err)
	assert.Empty(t, failed)

	_, err = f.svc.ListCandidates(context.Background(), ListRequest{Stage: "Hired"})
	assert.ErrorIs(t, err, pipeline.ErrInvalidStage)
}

func TestMoveCandidate(t *testing.T) {
	f := newFixture(t, nil)
	c := ingestText(t, f.svc, IngestRequest{}, sampleResume)

	t.Run("unknown stage leaves candidate untouched", func(t *testing.T) {
		_, err := f.svc.MoveCandidate(context.Background(), c.ID, "Bogus")
		var stageErr *pipeline.InvalidStageError
		require.ErrorAs(t, err, &stageErr)
		assert.Equal(t, "Bogus", stageErr.Stage)

		got, err := f.svc.GetCandidate(context.Background(), c.ID)
		require.NoError(t, err)
		assert.Equal(t, storage.StageScreening, got.Stage)
	})

	t.Run("failed is not a target", func(t *testing.T) {
		_, err := f.svc.MoveCandidate(context.Background(), c.ID, "Failed")
		assert.ErrorIs(t, err, pipeline.ErrInvalidStage)
	})

	t.Run("any order is allowed", func(t *testing.T) {
		moved, err := f.svc.MoveCandidate(context.Background(), c.ID, "Offer")
		require.NoError(t, err)
		assert.Equal(t, storage.StageOffer, moved.Stage)

		moved, err = f.svc.MoveCandidate(context.Background(), c.ID, "screening")
		require.NoError(t, err)
		assert.Equal(t, storage.StageScreening, moved.Stage)
	})

	t.Run("unknown candidate", func(t *testing.T) {
		id := uuid.New()
		_, err := f.svc.MoveCandidate(context.Background(), id, "Interview")
		var notFound *CandidateNotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, id, notFound.ID)
	})
}

func TestListJobs(t *testing.T) {
	f := newFixture(t, nil)

	jobs, err := f.svc.ListJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Backend Engineer", jobs[0].Title)
	assert.Equal(t, []string{"Golang", "SQL", "Docker"}, jobs[0].Requirements.Skills)
}

func TestBoard(t *testing.T) {
	f := newFixture(t, nil)
	a := ingestText(t, f.svc, IngestRequest{}, sampleResume)
	ingestText(t, f.svc, IngestRequest{}, sampleResume)
	_, err := f.svc.MoveCandidate(context.Background(), a.ID, "Interview")
	require.NoError(t, err)

	failing, err := NewService(f.store, f.store, failingParser{}, cv.NewExtractor(nil))
	require.NoError(t, err)
	_, err = failing.IngestCandidate(context.Background(), IngestRequest{Document: strings.NewReader("x")})
	require.NoError(t, err)

	cols, err := f.svc.Board(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, cols, 4)

	counts := map[storage.Stage]int{}
	total := 0
	for _, col := range cols {
		counts[col.Stage] = len(col.Candidates)
		total += len(col.Candidates)
	}
	assert.Equal(t, 1, counts[storage.StageScreening])
	assert.Equal(t, 1, counts[storage.StageInterview])
	assert.Equal(t, 2, total, "failed candidates are not on the board")
}

func TestExport(t *testing.T) {
	f := newFixture(t, nil)
	ingestText(t, f.svc, IngestRequest{FullName: "Jane Doe"}, sampleResume)

	data, err := f.svc.Export(context.Background(), ListRequest{})
	require.NoError(t, err)

	wb, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows("Candidates")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Jane Doe", rows[1][1])

	_, err = f.svc.Export(context.Background(), ListRequest{Stage: "nope"})
	assert.True(t, errors.Is(err, pipeline.ErrInvalidStage))
}
