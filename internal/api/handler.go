package api

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"talent-pipeline/internal/recruiting"
)

const defaultMaxUploadBytes = 10 << 20

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type API struct {
	service        *recruiting.Service
	health         HealthChecker
	maxUploadBytes int64
	validate       *validator.Validate
	logger         *zap.Logger
}

// Options tunes the transport. Zero values fall back to defaults.
type Options struct {
	MaxUploadBytes int64
	Health         HealthChecker
	Logger         *zap.Logger
}

func NewAPI(svc *recruiting.Service, opts Options) *API {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &API{
		service:        svc,
		health:         opts.Health,
		maxUploadBytes: opts.MaxUploadBytes,
		validate:       validator.New(),
		logger:         opts.Logger.Named("api"),
	}
}

// HealthHandler reports service liveness and store reachability.
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health.Ping(r.Context()); err != nil {
			a.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
