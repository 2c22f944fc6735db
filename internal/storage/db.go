package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq" // PostgreSQL driver
)

//go:embed schema.sql
var schemaSQL string

const candidateColumns = `id, full_name, email, role, job_id, pipeline_stage, score, skills, rationale, raw_text, created_at, updated_at`

// DB is the PostgreSQL-backed CandidateStore and JobRegistry.
type DB struct {
	connection *sql.DB
}

func NewDB(dataSourceName string) (*DB, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, err
	}

	// Connection pool tuning
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, unavailable("ping", err)
	}

	return &DB{connection: db}, nil
}

func (db *DB) Close() {
	if err := db.connection.Close(); err != nil {
		log.Println("Error closing the database connection:", err)
	}
}

// Migrate creates the tables and folds the legacy status column into pipeline_stage.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.connection.ExecContext(ctx, schemaSQL); err != nil {
		return unavailable("migrate", err)
	}
	return nil
}

func (db *DB) CreateCandidate(ctx context.Context, c *Candidate) error {
	c.ID = uuid.New()
	query := `INSERT INTO candidates (id, full_name, email, role, job_id, pipeline_stage, score, skills, rationale, raw_text)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
              RETURNING created_at, updated_at`
	err := db.connection.QueryRowContext(ctx, query,
		c.ID,
		c.FullName,
		nullString(c.Email),
		c.Role,
		nullUUID(c.JobID),
		string(c.Stage),
		c.Scoring.Score,
		pq.StringArray(nonNil(c.Scoring.Skills)),
		c.Scoring.Rationale,
		nullStringPtr(c.RawText),
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		c.ID = uuid.Nil
		return unavailable("create candidate", err)
	}
	return nil
}

func (db *DB) GetCandidate(ctx context.Context, id uuid.UUID) (*Candidate, error) {
	query := `SELECT ` + candidateColumns + ` FROM candidates WHERE id = $1`
	c, err := scanCandidate(db.connection.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get candidate", err)
	}
	return c, nil
}

// ListCandidates returns candidates matching the filter, newest first.
func (db *DB) ListCandidates(ctx context.Context, filter CandidateFilter) ([]*Candidate, error) {
	query, args := listCandidatesQuery(filter)

	rows, err := db.connection.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, unavailable("list candidates", err)
	}
	defer rows.Close()

	res := []*Candidate{}
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, unavailable("list candidates", err)
		}
		res = append(res, c)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list candidates", err)
	}
	return res, nil
}

func listCandidatesQuery(filter CandidateFilter) (string, []interface{}) {
	base := `SELECT ` + candidateColumns + ` FROM candidates`
	var where []string
	var args []interface{}
	i := 1

	if filter.Stage != "" {
		where = append(where, fmt.Sprintf("pipeline_stage = $%d", i))
		args = append(args, string(filter.Stage))
		i++
	}
	if filter.JobID != nil {
		where = append(where, fmt.Sprintf("job_id = $%d", i))
		args = append(args, *filter.JobID)
	}

	if len(where) > 0 {
		base += " WHERE " + strings.Join(where, " AND ")
	}
	return base + " ORDER BY created_at DESC, id DESC", args
}

// UpdateCandidateStage overwrites the stage in a single statement; racing updates resolve as last write wins.
func (db *DB) UpdateCandidateStage(ctx context.Context, id uuid.UUID, stage Stage) (*Candidate, error) {
	query := `UPDATE candidates SET pipeline_stage = $1, updated_at = NOW() WHERE id = $2
              RETURNING ` + candidateColumns
	c, err := scanCandidate(db.connection.QueryRowContext(ctx, query, string(stage), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("update candidate stage", err)
	}
	return c, nil
}

// SaveJob upserts a job into the registry table. Used for seeding.
func (db *DB) SaveJob(ctx context.Context, j *Job) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	query := `INSERT INTO jobs (id, title, required_skills, experience_years, education)
              VALUES ($1, $2, $3, $4, $5)
              ON CONFLICT (id) DO UPDATE
                SET title = EXCLUDED.title,
                    required_skills = EXCLUDED.required_skills,
                    experience_years = EXCLUDED.experience_years,
                    education = EXCLUDED.education`
	_, err := db.connection.ExecContext(ctx, query,
		j.ID, j.Title, pq.StringArray(nonNil(j.Requirements.Skills)), j.Requirements.ExperienceYears, j.Requirements.Education)
	if err != nil {
		return unavailable("save job", err)
	}
	return nil
}

func (db *DB) GetJob(ctx context.Context, id uuid.UUID) (*Job, error) {
	query := `SELECT id, title, required_skills, experience_years, education FROM jobs WHERE id = $1`
	j, err := scanJob(db.connection.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get job", err)
	}
	return j, nil
}

func (db *DB) ListJobs(ctx context.Context) ([]*Job, error) {
	rows, err := db.connection.QueryContext(ctx,
		`SELECT id, title, required_skills, experience_years, education FROM jobs ORDER BY title, id`)
	if err != nil {
		return nil, unavailable("list jobs", err)
	}
	defer rows.Close()

	res := []*Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, unavailable("list jobs", err)
		}
		res = append(res, j)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list jobs", err)
	}
	return res, nil
}

// Ping reports whether the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.connection.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCandidate(row rowScanner) (*Candidate, error) {
	c := &Candidate{}
	var (
		email   sql.NullString
		jobID   uuid.NullUUID
		stage   string
		skills  pq.StringArray
		rawText sql.NullString
	)
	err := row.Scan(&c.ID, &c.FullName, &email, &c.Role, &jobID, &stage,
		&c.Scoring.Score, &skills, &c.Scoring.Rationale, &rawText, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	normalized, ok := ParseStage(stage)
	if !ok {
		return nil, fmt.Errorf("candidate %s has unrecognised stage %q", c.ID, stage)
	}
	c.Stage = normalized
	c.Email = email.String
	if jobID.Valid {
		id := jobID.UUID
		c.JobID = &id
	}
	c.Scoring.Skills = []string(skills)
	if c.Scoring.Skills == nil {
		c.Scoring.Skills = []string{}
	}
	if rawText.Valid {
		text := rawText.String
		c.RawText = &text
	}
	return c, nil
}

func scanJob(row rowScanner) (*Job, error) {
	j := &Job{}
	var skills pq.StringArray
	if err := row.Scan(&j.ID, &j.Title, &skills, &j.Requirements.ExperienceYears, &j.Requirements.Education); err != nil {
		return nil, err
	}
	j.Requirements.Skills = []string(skills)
	if j.Requirements.Skills == nil {
		j.Requirements.Skills = []string{}
	}
	return j, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
