package controllers

import (
	"net/http"

	"github.com/localmarkethq/localmarket-backend/api/responses"
	"github.com/localmarkethq/localmarket-backend/pkg/config"
	"github.com/localmarkethq/localmarket-backend/pkg/db"
	pkgerrors "github.com/localmarkethq/localmarket-backend/pkg/errors"
	"github.com/localmarkethq/localmarket-backend/pkg/logger"
	"github.com/localmarkethq/localmarket-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LocalMarket-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies the hard dependencies answer before reporting ready.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LocalMarket-Env", cfg.App.Env)

		checks := map[string]string{"db": "ok", "redis": "ok"}

		if dbP != nil {
			if err := dbP.Ping(r.Context()); err != nil {
				checks["db"] = "unavailable"
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database ping").WithDetails(checks))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(r.Context()); err != nil {
				checks["redis"] = "unavailable"
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis ping").WithDetails(checks))
				return
			}
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
