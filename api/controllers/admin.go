package controllers

import (
	"net/http"

	"github.com/scraplink/dealer-backend/api/responses"
	"github.com/scraplink/dealer-backend/internal/assignments"
	"github.com/scraplink/dealer-backend/internal/dealers"
	pkgerrors "github.com/scraplink/dealer-backend/pkg/errors"
	"github.com/scraplink/dealer-backend/pkg/logger"
)

// AdminDealers lists every dealer profile.
func AdminDealers(svc dealers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "dealers service unavailable"))
			return
		}

		profiles, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profiles)
	}
}

// AdminAssignments lists every assignment, newest first.
func AdminAssignments(svc assignments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "assignments service unavailable"))
			return
		}

		rows, err := svc.ListAll(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}
