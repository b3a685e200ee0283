package controllers

import (
	"context"
	"net/http"

	"github.com/lokapasar/checkout/api/responses"
	"github.com/lokapasar/checkout/pkg/config"
	"github.com/lokapasar/checkout/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

// HealthReady checks the optional session store backend. A nil pinger means
// the in-memory store is in use and readiness equals liveness.
func HealthReady(cfg *config.Config, logg *logger.Logger, redisPinger pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{"app": "ok"}
		healthy := true

		if redisPinger != nil {
			if err := redisPinger.Ping(r.Context()); err != nil {
				checks["redis"] = "down"
				healthy = false
				logg.Warn(r.Context(), "readiness: redis ping failed")
			} else {
				checks["redis"] = "ok"
			}
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, status, map[string]any{
			"env":    cfg.App.Env,
			"checks": checks,
		})
	}
}
