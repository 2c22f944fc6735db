package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"talent-pipeline/internal/metrics"
)

func NewRouter(a *API, rec *metrics.Recorder) http.Handler {
	mux := http.NewServeMux()

	// Swagger documentation - must be registered first
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	mux.HandleFunc("GET /health", a.HealthHandler)
	mux.Handle("GET /metrics", rec.Handler())

	route := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, instrument(endpoint, rec, a.logger, h))
	}

	// Candidates
	route("POST /api/candidates", "ingest_candidate", a.IngestCandidateHandler)
	route("GET /api/candidates", "list_candidates", a.ListCandidatesHandler)
	route("GET /api/candidates/export", "export_candidates", a.ExportCandidatesHandler)
	route("GET /api/candidates/{id}", "get_candidate", a.GetCandidateHandler)
	route("PATCH /api/candidates/{id}/stage", "move_candidate", a.MoveCandidateHandler)

	// Jobs & board
	route("GET /api/jobs", "list_jobs", a.ListJobsHandler)
	route("GET /api/pipeline", "board", a.BoardHandler)

	return mux
}
