// Package recruiting exposes the pipeline operations to transports: ingesting
// résumés, listing candidates and jobs, and moving candidates between stages.
package recruiting

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"talent-pipeline/internal/cv"
	"talent-pipeline/internal/export"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/metrics"
	"talent-pipeline/internal/pipeline"
	"talent-pipeline/internal/scoring"
	"talent-pipeline/internal/storage"
)

const defaultRole = "New Applicant"

// extractionFailedRationale is stored on candidates whose document could not be read.
const extractionFailedRationale = "Résumé text could not be extracted; candidate was not scored."

// DocumentParser turns an uploaded document into text.
type DocumentParser interface {
	ParseFile(ctx context.Context, filename string, reader io.Reader) (*cv.ParsedCV, error)
}

// IngestRequest is one uploaded résumé plus what the submitter told us.
type IngestRequest struct {
	Filename string    `validate:"max=255"`
	Document io.Reader `validate:"required"`
	FullName string    `validate:"max=200"`
	Email    string    `validate:"omitempty,max=254,resume_email"`
	JobID    *uuid.UUID
}

// ListRequest filters ListCandidates. Empty fields match everything.
type ListRequest struct {
	Stage string
	JobID *uuid.UUID
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics records ingestion and transition counts.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Service) { s.metrics = r }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithDefaultRole sets the role label of candidates not tied to a job.
func WithDefaultRole(role string) Option {
	return func(s *Service) {
		if strings.TrimSpace(role) != "" {
			s.defaultRole = strings.TrimSpace(role)
		}
	}
}

type Service struct {
	store       storage.CandidateStore
	jobs        storage.JobRegistry
	parser      DocumentParser
	extractor   *cv.Extractor
	machine     *pipeline.Machine
	metrics     *metrics.Recorder
	validate    *validator.Validate
	defaultRole string
	logger      *zap.Logger
}

func NewService(store storage.CandidateStore, jobs storage.JobRegistry, parser DocumentParser, extractor *cv.Extractor, opts ...Option) (*Service, error) {
	s := &Service{
		store:       store,
		jobs:        jobs,
		parser:      parser,
		extractor:   extractor,
		defaultRole: defaultRole,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("recruiting")
	s.machine = pipeline.NewMachine(store, s.metrics, s.logger)

	s.validate = validator.New()
	if err := s.validate.RegisterValidation("resume_email", func(fl validator.FieldLevel) bool {
		return cv.ValidEmail(fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("failed to register email validation: %w", err)
	}
	return s, nil
}

// IngestCandidate extracts, scores and stores one résumé. It always creates exactly one
// candidate: an unreadable document yields a Failed candidate rather than an error.
// Errors are returned only for invalid requests, unknown jobs and store failures.
func (s *Service) IngestCandidate(ctx context.Context, req IngestRequest) (*storage.Candidate, error) {
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if err := s.validateStruct(req); err != nil {
		return nil, err
	}

	var job *storage.Job
	if req.JobID != nil {
		j, err := s.jobs.GetJob(ctx, *req.JobID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, &JobNotFoundError{ID: *req.JobID}
		}
		if err != nil {
			return nil, err
		}
		job = j
	}

	c := &storage.Candidate{
		FullName: req.FullName,
		Email:    req.Email,
		Role:     s.defaultRole,
		JobID:    req.JobID,
	}
	if job != nil {
		c.Role = job.Title
	}

	parsed, err := s.parser.ParseFile(ctx, req.Filename, req.Document)
	switch {
	case err == nil:
		s.score(c, parsed.FullText, job)
	case errors.Is(err, cv.ErrExtractionFailed):
		s.logger.Warn("document extraction failed",
			zap.String("filename", req.Filename),
			zap.Error(err),
		)
		c.Stage = pipeline.InitialStage(false)
		c.Scoring = storage.ScoringArtifact{
			Score:     scoring.MinScore,
			Skills:    []string{},
			Rationale: extractionFailedRationale,
		}
	default:
		return nil, err
	}

	if err := s.store.CreateCandidate(ctx, c); err != nil {
		return nil, err
	}

	outcome := metrics.OutcomeScored
	if c.Stage == storage.StageFailed {
		outcome = metrics.OutcomeFailed
	}
	s.metrics.CandidateIngested(outcome, c.Scoring.Score)

	fields := []zap.Field{
		zap.Stringer("candidate_id", c.ID),
		zap.Stringer("stage", c.Stage),
		zap.Float64("score", c.Scoring.Score),
		zap.Strings("skills", c.Scoring.Skills),
	}
	if c.JobID != nil {
		fields = append(fields, zap.Stringer("job_id", *c.JobID))
	}
	s.logger.Info("candidate ingested", fields...)
	return c, nil
}

// score runs extraction and scoring over text and fills in the candidate.
// Targeted scans match against the job's required skills instead of the vocabulary.
func (s *Service) score(c *storage.Candidate, text string, job *storage.Job) {
	extractor := s.extractor
	if job != nil {
		extractor = cv.NewExtractor(job.Requirements.Skills)
	}
	entities := extractor.Extract(text)
	result := scoring.Score(entities.Skills, job)

	if c.Email == "" {
		c.Email = entities.Email
	}
	c.Stage = pipeline.InitialStage(true)
	c.Scoring = storage.ScoringArtifact{
		Score:     result.Score,
		Skills:    entities.Skills,
		Rationale: result.Rationale,
	}
	c.RawText = &text

	s.logger.Debug("document scored",
		zap.Int("text_length", len(text)),
		zap.String("excerpt", logger.TruncateForLog(text, 80)),
	)
}

// ListCandidates returns candidates newest first.
func (s *Service) ListCandidates(ctx context.Context, req ListRequest) ([]*storage.Candidate, error) {
	filter := storage.CandidateFilter{JobID: req.JobID}
	if strings.TrimSpace(req.Stage) != "" {
		stage, ok := storage.ParseStage(req.Stage)
		if !ok {
			return nil, &pipeline.InvalidStageError{Stage: req.Stage}
		}
		filter.Stage = stage
	}
	return s.store.ListCandidates(ctx, filter)
}

// MoveCandidate sets a candidate's stage. Stage order is not enforced.
func (s *Service) MoveCandidate(ctx context.Context, id uuid.UUID, stage string) (*storage.Candidate, error) {
	c, err := s.machine.Move(ctx, id, stage)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &CandidateNotFoundError{ID: id}
	}
	return c, err
}

// GetCandidate returns a single candidate.
func (s *Service) GetCandidate(ctx context.Context, id uuid.UUID) (*storage.Candidate, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, &CandidateNotFoundError{ID: id}
	}
	return c, err
}

// ListJobs delegates to the job registry.
func (s *Service) ListJobs(ctx context.Context) ([]*storage.Job, error) {
	return s.jobs.ListJobs(ctx)
}

// Board returns the pipeline columns. Failed candidates are not shown.
func (s *Service) Board(ctx context.Context, jobID *uuid.UUID) ([]pipeline.Column, error) {
	candidates, err := s.store.ListCandidates(ctx, storage.CandidateFilter{JobID: jobID})
	if err != nil {
		return nil, err
	}
	return pipeline.Board(candidates), nil
}

// Export renders the filtered candidate list as an XLSX workbook.
func (s *Service) Export(ctx context.Context, req ListRequest) ([]byte, error) {
	candidates, err := s.ListCandidates(ctx, req)
	if err != nil {
		return nil, err
	}
	return export.CandidatesXLSX(candidates)
}

func (s *Service) validateStruct(v interface{}) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return &ValidationError{Field: strings.ToLower(fe.Field()), Message: validationMessage(fe)}
	}
	return &ValidationError{Field: "request", Message: err.Error()}
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "resume_email":
		return "must look like local-part@domain"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
