package storage

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Stage is the pipeline stage a candidate currently occupies.
// The string values are stored verbatim in the pipeline_stage column.
type Stage string

const (
	StageScreening Stage = "Screening"
	StageInterview Stage = "Interview"
	StageOffer     Stage = "Offer"
	StageRejected  Stage = "Rejected"

	// StageFailed marks a candidate whose document could not be read.
	// It is not a recruiting stage and never shows up in a pipeline column.
	StageFailed Stage = "Failed"
)

// PipelineStages lists the board columns in display order.
var PipelineStages = []Stage{StageScreening, StageInterview, StageOffer, StageRejected}

var knownStages = map[string]Stage{
	"screening": StageScreening,
	"interview": StageInterview,
	"offer":     StageOffer,
	"rejected":  StageRejected,
	"failed":    StageFailed,
}

// ParseStage normalizes a stage name (case and surrounding whitespace are ignored).
func ParseStage(name string) (Stage, bool) {
	s, ok := knownStages[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// InPipeline reports whether the stage is one of the board columns.
func (s Stage) InPipeline() bool {
	return s != StageFailed && s != ""
}

func (s Stage) String() string { return string(s) }

// ScoringArtifact is the outcome of a single scoring pass.
type ScoringArtifact struct {
	Score     float64  `json:"score"`
	Skills    []string `json:"skills"`
	Rationale string   `json:"rationale"`
}

// Candidate is a person moving through the hiring pipeline.
type Candidate struct {
	ID        uuid.UUID       `json:"id"`
	FullName  string          `json:"full_name"`
	Email     string          `json:"email,omitempty"`
	Role      string          `json:"role"`
	JobID     *uuid.UUID      `json:"job_id,omitempty"`
	Stage     Stage           `json:"status"`
	Scoring   ScoringArtifact `json:"scoring_artifact"`
	RawText   *string         `json:"raw_text,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// JobRequirements describes what an open position asks for.
type JobRequirements struct {
	Skills          []string `json:"skills"`
	ExperienceYears float64  `json:"experience_years"`
	Education       string   `json:"education"`
}

// Job is an open position candidates can be scanned against.
type Job struct {
	ID           uuid.UUID       `json:"id"`
	Title        string          `json:"title"`
	Requirements JobRequirements `json:"requirements"`
}

// CandidateFilter narrows ListCandidates. Zero values match everything.
type CandidateFilter struct {
	Stage Stage      `json:"stage,omitempty"`
	JobID *uuid.UUID `json:"job_id,omitempty"`
}

func (f CandidateFilter) matches(c *Candidate) bool {
	if f.Stage != "" && c.Stage != f.Stage {
		return false
	}
	if f.JobID != nil && (c.JobID == nil || *c.JobID != *f.JobID) {
		return false
	}
	return true
}
