package controllers

import (
	"context"
	"net/http"

	"github.com/scraplink/dealer-backend/api/responses"
	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
	"github.com/scraplink/dealer-backend/pkg/logger"
)

// Pinger reports whether a backing resource is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health reports static liveness.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"status":  "healthy",
			"service": "dealer-backend",
		})
	}
}

// Ready reports readiness by pinging the database and cache.
func Ready(db Pinger, cache Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := map[string]string{}

		if db != nil {
			if err := db.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unreachable"))
				return
			}
			checks["database"] = "ok"
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cache unreachable"))
				return
			}
			checks["cache"] = "ok"
		}

		responses.WriteSuccess(w, checks)
	}
}
