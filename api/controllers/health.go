package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/cafehop-backend/api/responses"
	"github.com/angelmondragon/cafehop-backend/pkg/config"
	"github.com/angelmondragon/cafehop-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/cafehop-backend/pkg/errors"
	"github.com/angelmondragon/cafehop-backend/pkg/logger"
	"github.com/angelmondragon/cafehop-backend/pkg/redis"
)

const (
	envHeader    = "X-Cafehop-Env"
	readyTimeout = 2 * time.Second
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings the database and redis; either failing reports 503.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		if err := ping(ctx, dbP); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready"))
			return
		}
		if err := ping(ctx, redisP); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}

type pinger interface {
	Ping(ctx context.Context) error
}

func ping(ctx context.Context, p pinger) error {
	if p == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "dependency not configured")
	}
	return p.Ping(ctx)
}
