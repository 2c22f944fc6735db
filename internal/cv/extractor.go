package cv

import (
	"regexp"
	"strings"
)

// DefaultVocabulary is the skill list matched when a scan is not tied to a job.
// Order matters: extracted skills are reported in this order.
var DefaultVocabulary = []string{
	"Python", "Java", "JavaScript", "TypeScript", "Golang", "Rust", "C++", "C#",
	"Ruby", "PHP", "Kotlin", "Swift",
	"React", "Vue", "Angular", "Node.js", "Django", "Flask", "Spring",
	"SQL", "PostgreSQL", "MySQL", "MongoDB", "Redis", "GraphQL",
	"Docker", "Kubernetes", "Terraform", "AWS", "Azure", "GCP", "Linux", "Git", "CI/CD",
	"Kafka", "Machine Learning", "Data Science", "DevOps", "Microservices",
	"Figma", "Excel", "Tableau",
}

var (
	emailPattern      = regexp.MustCompile(`(?i)[a-z0-9._-]+@[a-z0-9._-]+\.[a-z0-9_-]+`)
	exactEmailPattern = regexp.MustCompile(`(?i)^[a-z0-9._-]+@[a-z0-9._-]+\.[a-z0-9_-]+$`)
)

// Entities is what the extractor finds in résumé text.
type Entities struct {
	Email  string   `json:"email,omitempty"`
	Skills []string `json:"skills"`
}

// Extractor finds a contact email and vocabulary skills in plain text.
// Matching is case-insensitive substring search; it is deterministic and does no I/O.
type Extractor struct {
	vocabulary []string
	lowered    []string
}

// NewExtractor builds an extractor over vocabulary. Case-insensitive duplicates
// keep their first position.
func NewExtractor(vocabulary []string) *Extractor {
	e := &Extractor{}
	seen := make(map[string]bool, len(vocabulary))
	for _, v := range vocabulary {
		term := strings.TrimSpace(v)
		key := strings.ToLower(term)
		if term == "" || seen[key] {
			continue
		}
		seen[key] = true
		e.vocabulary = append(e.vocabulary, term)
		e.lowered = append(e.lowered, key)
	}
	return e
}

// Vocabulary returns a copy of the terms this extractor matches.
func (e *Extractor) Vocabulary() []string {
	return append([]string{}, e.vocabulary...)
}

// Extract returns the first email in document order and every vocabulary
// term present in text, in vocabulary order.
func (e *Extractor) Extract(text string) Entities {
	return Entities{
		Email:  FindEmail(text),
		Skills: e.Skills(text),
	}
}

// Skills returns the vocabulary terms that occur in text.
func (e *Extractor) Skills(text string) []string {
	lower := strings.ToLower(text)
	skills := []string{}
	for i, term := range e.lowered {
		if strings.Contains(lower, term) {
			skills = append(skills, e.vocabulary[i])
		}
	}
	return skills
}

// FindEmail returns the first email-shaped substring of text, or "".
func FindEmail(text string) string {
	return emailPattern.FindString(text)
}

// ValidEmail reports whether s is exactly one email address.
func ValidEmail(s string) bool {
	return exactEmailPattern.MatchString(s)
}
