// Package scoring turns extracted skills into a bounded fit score and a rationale.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"talent-pipeline/internal/storage"
)

const (
	// MaxScore and MinScore bound every score.
	MaxScore = 10.0
	MinScore = 0.0

	// perSkill is what each matched vocabulary skill is worth in untargeted mode.
	perSkill = 1.5
	// moderateFloor is the least any non-empty untargeted match scores.
	moderateFloor = 5.0
)

// Result is a score and the human-readable reason for it.
type Result struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// Score picks the scoring mode: a nil job means an untargeted scan.
func Score(skills []string, job *storage.Job) Result {
	if job == nil {
		return Untargeted(skills)
	}
	return Targeted(skills, job)
}

// Untargeted scores by how many vocabulary skills matched.
func Untargeted(skills []string) Result {
	n := len(skills)
	score := math.Min(MaxScore, float64(n)*perSkill)
	if n > 0 && score < moderateFloor {
		score = moderateFloor
	}

	var rationale string
	switch n {
	case 0:
		rationale = "No relevant skills found in the résumé."
	case 1:
		rationale = fmt.Sprintf("Found 1 relevant skill: %s.", skills[0])
	default:
		rationale = fmt.Sprintf("Found %d relevant skills: %s.", n, strings.Join(skills, ", "))
	}

	return Result{Score: clampRound(score), Rationale: rationale}
}

// Targeted scores by the fraction of the job's required skills that matched.
func Targeted(skills []string, job *storage.Job) Result {
	required := job.Requirements.Skills
	if len(required) == 0 {
		return Result{
			Score:     MinScore,
			Rationale: fmt.Sprintf("%s lists no required skills to match against.", job.Title),
		}
	}

	have := make(map[string]bool, len(skills))
	for _, s := range skills {
		have[strings.ToLower(strings.TrimSpace(s))] = true
	}

	matched, missing := Overlap(required, have)
	total := len(matched) + len(missing)
	score := float64(len(matched)) / float64(total) * MaxScore

	rationale := fmt.Sprintf("Matched %d of %d required skills for %s.", len(matched), total, job.Title)
	if len(matched) > 0 {
		rationale += " Matched: " + strings.Join(matched, ", ") + "."
	}
	if len(missing) > 0 {
		rationale += " Missing: " + strings.Join(missing, ", ") + "."
	}

	return Result{Score: clampRound(score), Rationale: rationale}
}

// Overlap splits required into the skills present in have (lower-cased keys) and the rest,
// keeping the order of required. Duplicate requirements count once.
func Overlap(required []string, have map[string]bool) (matched, missing []string) {
	matched, missing = []string{}, []string{}
	seen := make(map[string]bool, len(required))
	for _, r := range required {
		key := strings.ToLower(strings.TrimSpace(r))
		if seen[key] {
			continue
		}
		seen[key] = true
		if have[key] {
			matched = append(matched, r)
		} else {
			missing = append(missing, r)
		}
	}
	return matched, missing
}

func clampRound(score float64) float64 {
	if math.IsNaN(score) {
		return MinScore
	}
	score = math.Round(score*10) / 10
	return math.Max(MinScore, math.Min(MaxScore, score))
}
