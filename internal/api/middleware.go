package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"talent-pipeline/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument records request count and latency under endpoint and logs the request.
func instrument(endpoint string, rec *metrics.Recorder, logger *zap.Logger, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(sr, r)

		elapsed := time.Since(start)
		rec.HTTPRequest(endpoint, r.Method, sr.status, elapsed)
		logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sr.status),
			zap.Duration("elapsed", elapsed),
		)
	}
}
