package worker

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/movielocations/movielocations/internal/api/middleware"
	"github.com/movielocations/movielocations/internal/api/response"
	"github.com/movielocations/movielocations/internal/provider/resilience"
)

// HealthResponse is the body of the worker health endpoint.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Job     map[string]interface{} `json:"verifyJob"`

	// Endpoints maps each probed endpoint to its circuit status.
	Endpoints map[string]string `json:"endpoints"`
}

// NewHealthRouter serves /health for the worker process. The worker stays
// healthy whatever the endpoint outcome; the job stats carry that.
func NewHealthRouter(version string, job *VerifyJob, registry *resilience.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		endpoints := map[string]string{}
		if registry != nil {
			for _, h := range registry.AllHealth() {
				endpoints[h.Name] = h.Status()
			}
		}

		response.JSON(w, r, http.StatusOK, HealthResponse{
			Status:    "healthy",
			Version:   version,
			Job:       job.MetricsSnapshot(),
			Endpoints: endpoints,
		})
	})

	return r
}
