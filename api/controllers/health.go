package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/seedling-limiter/api/responses"
	"github.com/angelmondragon/seedling-limiter/pkg/config"
	"github.com/angelmondragon/seedling-limiter/pkg/db"
	pkgerrors "github.com/angelmondragon/seedling-limiter/pkg/errors"
	"github.com/angelmondragon/seedling-limiter/pkg/logger"
	"github.com/angelmondragon/seedling-limiter/pkg/redis"
)

const (
	envHeader    = "X-Seedling-Env"
	readyTimeout = 2 * time.Second
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and Redis; either failing answers 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		checks := map[string]string{}
		for _, check := range []struct {
			name   string
			pinger interface{ Ping(context.Context) error }
		}{
			{name: "db", pinger: dbP},
			{name: "redis", pinger: redisP},
		} {
			if check.pinger == nil {
				checks[check.name] = "skipped"
				continue
			}
			if err := check.pinger.Ping(ctx); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, check.name+" unavailable").
					WithDetails(map[string]any{"check": check.name}))
				return
			}
			checks[check.name] = "ok"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": checks})
	}
}
