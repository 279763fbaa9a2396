package controllers

import (
	"context"
	"net/http"

	"github.com/mealora/mealora-backend/api/responses"
	"github.com/mealora/mealora-backend/pkg/logger"
)

// Pinger is the health probe surface of a stateful dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Healthz reports liveness and the state of the two stateful dependencies.
// Degraded dependencies flip the status but still return 200: the process is
// alive, the load balancer decides what to do with the detail.
func Healthz(database, cache Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "ok"}
		if database != nil {
			if err := database.Ping(r.Context()); err != nil {
				status["status"] = "degraded"
				status["database"] = "unreachable"
				if logg != nil {
					logg.Warn(r.Context(), "healthz: database unreachable")
				}
			}
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				status["status"] = "degraded"
				status["redis"] = "unreachable"
				if logg != nil {
					logg.Warn(r.Context(), "healthz: redis unreachable")
				}
			}
		}
		responses.WriteSuccess(w, status)
	}
}
